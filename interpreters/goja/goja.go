// Package goja provides grounded atoms implemented in ECMAScript
// using Goja.
//
// A Script is an executable grounded value.  When a Script executes,
// its arguments are encoded with the Interpreter's Codec and made
// available as _.args.  The value that the code returns is decoded
// into results: an array gives one result per element, null (or
// undefined) gives no results, and anything else is a single
// result.
package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/core"
	"github.com/Comcast/atomspace/match"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Exec if the execution is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)
)

// TypeName is the codec type name for Scripts.
const TypeName = "js"

// Interpreter compiles and runs Scripts using Goja, which is a Go
// implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
type Interpreter struct {
	// Testing is used to expose or hide some runtime
	// capabilities.
	Testing bool

	// Codec translates between atoms and the values that the
	// code sees.
	Codec *atom.Codec

	// Matcher is used by the match() utility.  If nil,
	// match.DefaultMatcher.
	Matcher *match.Matcher

	// LibraryProvider is a pluggable library provider.  If nil,
	// DefaultLibraryProvider.
	LibraryProvider func(ctx context.Context, i *Interpreter, libraryName string) (string, error)

	// Now is the clock for cronNext().  If nil, time.Now.
	Now func() time.Time
}

// NewInterpreter makes a new Interpreter that uses the given Codec.
func NewInterpreter(c *atom.Codec) *Interpreter {
	return &Interpreter{
		Codec: c,
	}
}

func (i *Interpreter) matcher() *match.Matcher {
	if i.Matcher == nil {
		return match.DefaultMatcher
	}
	return i.Matcher
}

func (i *Interpreter) now() time.Time {
	if i.Now == nil {
		return time.Now()
	}
	return i.Now()
}

// ProvideLibrary resolves the library name into a library.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, i, name)
	}
	return DefaultLibraryProvider(ctx, i, name)
}

var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider makes a library provider that supports
// (barely) names that are URLs with protocols of "file", "http", and
// "https". There currently is no additional control when using
// HTTP/HTTPS.
func MakeFileLibraryProvider(dir string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		switch parts[0] {
		case "file":
			bs, err := ioutil.ReadFile(dir + "/" + parts[1])
			if err != nil {
				return "", err
			}
			return string(bs), nil
		case "http", "https":
			req, err := http.NewRequest("GET", name, nil)
			if err != nil {
				return "", err
			}
			resp, err := http.DefaultClient.Do(req.WithContext(ctx))
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("library fetch status %s", resp.Status)
			}
			bs, err := ioutil.ReadAll(resp.Body)
			if err != nil {
				return "", err
			}
			return string(bs), nil
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}

// MakeMapLibraryProvider makes a library provider backed by the given
// map.
func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

func wrapSrc(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

// Source is what a Script is compiled from.
type Source struct {
	Code     string   `json:"code" yaml:"code"`
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`
}

func parseSource(vv map[string]interface{}) (*Source, error) {
	src := &Source{}
	if x, have := vv["code"]; have {
		s, is := x.(string)
		if !is {
			return nil, errors.New("bad script code")
		}
		src.Code = s
	}

	switch vv := vv["requires"].(type) {
	case nil:
	case string:
		src.Requires = []string{vv}
	case []string:
		src.Requires = vv
	case []interface{}:
		src.Requires = make([]string, 0, len(vv))
		for _, x := range vv {
			s, is := x.(string)
			if !is {
				return nil, errors.New("bad library")
			}
			src.Requires = append(src.Requires, s)
		}
	default:
		return nil, fmt.Errorf("bad requires (%T)", vv)
	}

	return src, nil
}

// AsSource accepts a string (just code) or a map with "code" and
// (optional) "requires" properties.
//
// A YAML parser might give map[interface{}]interface{}, which is
// also accepted.
func AsSource(x interface{}) (*Source, error) {
	switch vv := x.(type) {
	case *Source:
		return vv, nil
	case string:
		return &Source{Code: vv}, nil
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			s, is := k.(string)
			if !is {
				return nil, fmt.Errorf("bad source key (%T)", k)
			}
			m[s] = v
		}
		return parseSource(m)
	case map[string]interface{}:
		return parseSource(vv)
	}
	return nil, fmt.Errorf("bad script source (%T)", x)
}

// Compile makes a goja.Program.
//
// Top-level require("LIB") statements are replaced by the library's
// code, and then the libraries listed in Requires are prepended.
// This method can block if the library provider blocks in order to
// obtain external libraries.
func (i *Interpreter) Compile(ctx context.Context, src *Source) (*goja.Program, error) {
	provide := func(ctx context.Context, name string) (string, error) {
		return i.ProvideLibrary(ctx, name)
	}
	code, err := InlineRequires(ctx, src.Code, provide)
	if err != nil {
		return nil, err
	}

	var libs string
	for _, lib := range src.Requires {
		s, err := i.ProvideLibrary(ctx, lib)
		if err != nil {
			return nil, err
		}
		libs += s + "\n"
	}

	code = libs + wrapSrc(code)

	p, err := goja.Compile("", code, true)
	if err != nil {
		return nil, errors.New(err.Error() + ": " + code)
	}

	return p, nil
}

// Script is a compiled grounded operation.
//
// Two Scripts are equal if they have the same name and code.
type Script struct {
	Name   string
	Source *Source

	i       *Interpreter
	program *goja.Program
}

// NewScript compiles the source into a Script.
func (i *Interpreter) NewScript(ctx context.Context, name string, src interface{}) (*Script, error) {
	s, err := AsSource(src)
	if err != nil {
		return nil, err
	}
	p, err := i.Compile(ctx, s)
	if err != nil {
		return nil, err
	}
	return &Script{
		Name:    name,
		Source:  s,
		i:       i,
		program: p,
	}, nil
}

func (s *Script) Equal(v atom.Value) bool {
	t, is := v.(*Script)
	return is && s.Name == t.Name && s.Source.Code == t.Source.Code
}

func (s *Script) String() string {
	if s.Name == "" {
		return TypeName + ":anon"
	}
	return s.Name
}

func (s *Script) Encode() (string, interface{}, error) {
	m := map[string]interface{}{
		"code": s.Source.Code,
	}
	if s.Name != "" {
		m["name"] = s.Name
	}
	if 0 < len(s.Source.Requires) {
		m["requires"] = s.Source.Requires
	}
	return TypeName, m, nil
}

// Decoder returns an atom.Decoder for Scripts.  The payload is a
// Source (either just code or a map), which can also have a "name".
func (i *Interpreter) Decoder(ctx context.Context) atom.Decoder {
	return func(x interface{}) (atom.Value, error) {
		var name string
		switch vv := x.(type) {
		case map[string]interface{}:
			name, _ = vv["name"].(string)
		case map[interface{}]interface{}:
			name, _ = vv["name"].(string)
		}
		return i.NewScript(ctx, name, x)
	}
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

func export(x interface{}) interface{} {
	if v, is := x.(goja.Value); is {
		return v.Export()
	}
	return x
}

// Execute runs the Script.
//
// The following properties are available from the runtime at _.
//
//    args: the encoded arguments (not including the Script itself).
//
// Some useful utilities:
//
//    gensym(): generate a random string.
//    esc(s): URL query-escape the given string.
//    log(x): log the given value as JSON.
//    cronNext(s): next time (RFC3339Nano) for the cron expression.
//    match(pat, obj): run the matcher on encoded atoms, which returns
//      the encoded bindings or null.
//
// For testing only:
//
//    sleep(ms): sleep for the given number of milliseconds.
//
// The Testing flag must be set to see sleep().
func (s *Script) Execute(ctx context.Context, e atom.Expr) ([]atom.Atom, error) {
	i := s.i
	c := i.Codec

	args, err := c.EncodeAll(e.Args())
	if err != nil {
		return nil, err
	}

	o := goja.New()

	env := map[string]interface{}{
		"args": args,
	}

	o.Set("_", env)

	if i.Testing {
		o.Set("sleep", func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		})
	}

	env["gensym"] = func() interface{} {
		return string(core.Gensym(32))
	}

	env["cronNext"] = func(x interface{}) interface{} {
		expr, is := export(x).(string)
		if !is {
			protest(o, "not a string")
		}
		sched, err := cronexpr.Parse(expr)
		if err != nil {
			protest(o, err.Error())
		}
		return sched.Next(i.now()).UTC().Format(time.RFC3339Nano)
	}

	env["esc"] = func(x interface{}) interface{} {
		s, is := export(x).(string)
		if !is {
			protest(o, "not a string")
		}
		return url.QueryEscape(s)
	}

	env["log"] = func(x interface{}) interface{} {
		x = export(x)
		js, err := json.Marshal(&x)
		if err != nil {
			log.Println("goja.log (can't marshal: " + err.Error() + ")")
		} else {
			log.Println(string(js))
		}
		return x
	}

	env["match"] = func(pat, cand goja.Value) interface{} {
		p, err := c.Decode(pat.Export())
		if err != nil {
			protest(o, err.Error())
		}
		a, err := c.Decode(cand.Export())
		if err != nil {
			protest(o, err.Error())
		}
		bs, ok := i.matcher().Match(p, a, nil)
		if !ok {
			return nil
		}
		acc := make(map[string]interface{}, len(bs))
		for v, x := range bs {
			y, err := c.Encode(x)
			if err != nil {
				protest(o, err.Error())
			}
			acc[v.String()] = y
		}
		return acc
	}

	// We want to make sure that the following goroutine is
	// terminated as soon as possible.
	ictx, cancel := context.WithCancel(ctx)
	go func() {
		<-ictx.Done()
		// If Execute calls cancel() after RunProgram returns,
		// then the interruption doesn't matter.
		o.Interrupt(InterruptedMessage)
	}()

	v, err := o.RunProgram(s.program)
	cancel()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return nil, Interrupted
		}
		return nil, err
	}

	switch vv := v.Export().(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return c.DecodeAll(vv)
	default:
		x, err := c.Decode(vv)
		if err != nil {
			return nil, err
		}
		return []atom.Atom{x}, nil
	}
}
