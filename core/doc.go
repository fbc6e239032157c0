/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package core provides the step-wise rewriting interpreter.
//
// An Interpreter reduces the atoms of a target Space against a
// background Space.  The background contains equality rules of the
// form (= pattern body) along with any other facts.  Atoms headed by
// an executable Grounded atom are computed by calling out to that
// atom's Value.
//
// Reduction is non-deterministic: a rule set can have several rules
// that apply, and a grounded computation can return several results.
// Each alternative becomes an independent Branch, and the pending
// Branches live in a worklist in the State.  There is no recursion
// and no hidden call stack, so a State can be stepped, set aside,
// and resumed.
//
// The primary method is Step, which takes one Branch and does one
// reduction.  Walk takes many Steps.  InterpretStep keeps Stepping
// until it has one result or until there's nothing left to do, in
// which case it returns EOS.
//
// An Interpreter never adds results to any Space.  The caller can do
// that if it wants to accumulate derived knowledge.
package core
