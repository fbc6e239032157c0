// Package atomspace provides a symbolic knowledge store and a
// non-deterministic rewriting interpreter over it.
//
// Terms are in package 'atom', matching is in 'match', spaces are in
// 'space', and the interpreter is in 'core'.  Grounded operations are
// in 'grounded', and some command-line tools are in `cmd`.
package atomspace
