package sio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Comcast/atomspace/grounded"
	"github.com/Comcast/atomspace/storage"
)

var conditionals = `[
  ["=",["if","True","$then","$else"],"$then"],
  ["=",["if","False","$then","$else"],"$else"],
  ["=",["fact","$n"],["if",["==","$n",0],1,["*","$n",["fact",["-","$n",1]]]]]
]`

// chans is a Couplings for tests.
type chans struct {
	in   chan interface{}
	out  chan *Result
	done chan bool
}

func newChans() *chans {
	return &chans{
		in:   make(chan interface{}),
		out:  make(chan *Result),
		done: make(chan bool),
	}
}

func (c *chans) Start(ctx context.Context) error {
	return nil
}

func (c *chans) IO(ctx context.Context) (chan interface{}, chan *Result, chan bool, error) {
	return c.in, c.out, c.done, nil
}

func (c *chans) Read(ctx context.Context) (map[string][]interface{}, error) {
	return nil, nil
}

func (c *chans) Stop(ctx context.Context) error {
	return nil
}

func newSession(t *testing.T, conf *SessionConf, c Couplings) *Session {
	return newSessionCtx(context.Background(), t, conf, c)
}

// newSessionCtx is newSession with the context that the Couplings'
// IO will get.
func newSessionCtx(ctx context.Context, t *testing.T, conf *SessionConf, c Couplings) *Session {
	env, err := grounded.NewEnv(nil)
	if err != nil {
		t.Fatal(err)
	}
	env.Spaces.Must("kb")
	s, err := NewSession(ctx, conf, env, nil, c)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func msg(js string) interface{} {
	x, err := ParseJSON([]byte(js))
	if err != nil {
		panic(err)
	}
	return x
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		msg string
		bad bool
	}{
		{`["fact",5]`, false},
		{`{"add":[["fact",5]],"to":"kb"}`, false},
		{`{"query":{"space":"kb","pattern":"$x","template":"$x"}}`, false},
		{`{"timer":{"in":"1s","msg":["a"]}}`, false},
		{`{"cancel":"t0"}`, false},
		{`{"add":"fact"}`, true},
		{`{"to":"kb"}`, true},
		{`{"to":1,"add":[]}`, true},
		{`{"query":{"space":"kb"}}`, true},
		{`"fact"`, true},
		{`42`, true},
	}
	for _, test := range tests {
		t.Run(test.msg, func(t *testing.T) {
			in, err := ParseInput(msg(test.msg))
			if test.bad {
				if !errors.Is(err, BadMessage) {
					t.Fatalf("got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if in.Timer != nil && in.Timer.Id == "" {
				t.Fatal("no timer id")
			}
		})
	}
}

func TestSessionProcessMsg(t *testing.T) {
	s := newSession(t, nil, newChans())
	ctx := context.Background()

	if err := s.Load(ctx, map[string][]interface{}{
		"background": msg(conditionals).([]interface{}),
	}); err != nil {
		t.Fatal(err)
	}

	r, err := s.ProcessMsg(ctx, msg(`["fact",5]`))
	if err != nil {
		t.Fatal(err)
	}
	if js := JS(r.Results); js != `[120]` {
		t.Fatal(js)
	}
	if js := JS(r.Changed); js != `{"target":[["fact",5]]}` {
		t.Fatal(js)
	}
	if d := r.Diag[0]; d.Stopped != "Done" || d.Steps == 0 {
		t.Fatal(JS(d))
	}

	// The first target atom isn't reduced again, and the
	// shorter reduction finishes first.
	if r, err = s.ProcessMsg(ctx, msg(`{"add":[["fact",3],["fact",0]]}`)); err != nil {
		t.Fatal(err)
	}
	if js := JS(r.Results); js != `[1,6]` {
		t.Fatal(js)
	}
}

func TestSessionFailures(t *testing.T) {
	s := newSession(t, nil, newChans())
	ctx := context.Background()

	r, err := s.ProcessMsg(ctx, msg(`{"add":[["+",1,{"str":"one"}],["+",1,1]]}`))
	if err != nil {
		t.Fatal(err)
	}
	if js := JS(r.Results); js != `[2]` {
		t.Fatal(js)
	}
	if n := len(r.Diag[0].Failed); n != 1 {
		t.Fatal(JS(r.Diag))
	}

	if r, err = s.ProcessMsg(ctx, msg(`{"nope":1}`)); !errors.Is(err, BadMessage) {
		t.Fatal(err)
	}
	if r.Diag[0].Err == "" {
		t.Fatal("no diag")
	}
}

func TestSessionQuery(t *testing.T) {
	s := newSession(t, nil, newChans())
	ctx := context.Background()

	r, err := s.ProcessMsg(ctx, msg(`{"to":"kb","add":[["isa","Fred","frog"],["isa","Sam","toad"]]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Results) != 0 {
		t.Fatal(JS(r))
	}
	if js := JS(r.Changed); js != `{"kb":[["isa","Fred","frog"],["isa","Sam","toad"]]}` {
		t.Fatal(js)
	}

	r, err = s.ProcessMsg(ctx, msg(`{"query":{"space":"kb","pattern":["isa","$x","frog"],"template":["frog","$x"]}}`))
	if err != nil {
		t.Fatal(err)
	}
	if js := JS(r.Results); js != `[["frog","Fred"]]` {
		t.Fatal(js)
	}

	if _, err = s.ProcessMsg(ctx, msg(`{"query":{"space":"nope","pattern":"$x","template":"$x"}}`)); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestSessionFeedback(t *testing.T) {
	s := newSession(t, &SessionConf{
		Background: "kb",
		Feedback:   true,
	}, newChans())
	ctx := context.Background()

	if err := s.Load(ctx, map[string][]interface{}{
		"kb": msg(`[["=",["Fritz","croaks"],"True"],["=",["Fritz","eats_flies"],"True"]]`).([]interface{}),
	}); err != nil {
		t.Fatal(err)
	}

	r, err := s.ProcessMsg(ctx, msg(`{"add":[
  ["match","kb",["q","=",["$x","croaks"],"True"],
    ["q","match","kb",["q","=",["$x","eats_flies"],"True"],
      ["q","q","=",["$x","frog"],"True"]]]
]}`))
	if err != nil {
		t.Fatal(err)
	}
	if js := JS(r.Results); js != `[["=",["Fritz","frog"],"True"]]` {
		t.Fatal(js)
	}
	if n := len(r.Changed["kb"]); n != 1 {
		t.Fatal(JS(r.Changed))
	}
}

func TestSessionStorage(t *testing.T) {
	s := newSession(t, nil, newChans())
	ctx := context.Background()

	st := storage.NewMem()
	s.Storage = st

	if _, err := s.ProcessMsg(ctx, msg(`{"to":"kb","add":[["isa","Fred","frog"]]}`)); err != nil {
		t.Fatal(err)
	}
	kb, err := st.ReadSpace(ctx, "kb")
	if err != nil {
		t.Fatal(err)
	}
	if kb == nil || kb.String() != "(isa Fred frog)" {
		t.Fatal(kb)
	}
	names, _ := st.Names(ctx)
	if len(names) != 1 {
		t.Fatal(names)
	}
}

func TestSessionTimers(t *testing.T) {
	c := newChans()
	s := newSession(t, &SessionConf{
		HaltOnInputEOF: true,
	}, c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		if err := s.Loop(ctx); err != nil {
			t.Error(err)
		}
	}()

	c.in <- msg(`{"timer":{"id":"t0","in":"50ms","msg":["+",1,2]}}`)
	if r := <-c.out; len(r.Results) != 0 {
		t.Fatal(JS(r))
	}

	c.in <- msg(`{"timer":{"id":"t1","in":"1h","msg":["+",3,4]}}`)
	<-c.out
	c.in <- msg(`{"cancel":"t1"}`)
	<-c.out

	select {
	case <-ctx.Done():
		t.Fatal("timer didn't fire")
	case r := <-c.out:
		if js := JS(r.Results); js != `[3]` {
			t.Fatal(js)
		}
	}

	if ids := s.Timers().Pending(); len(ids) != 0 {
		t.Fatal(ids)
	}

	close(c.done)
}

func TestTimerSpecWhen(t *testing.T) {
	now := time.Date(2020, 1, 1, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		spec TimerSpec
		want string
	}{
		{TimerSpec{In: "2s"}, "2020-01-01T10:30:02Z"},
		{TimerSpec{Cron: "0 * * * *"}, "2020-01-01T11:00:00Z"},
		{TimerSpec{}, ""},
		{TimerSpec{In: "2s", Cron: "0 * * * *"}, ""},
		{TimerSpec{In: "tacos"}, ""},
	}
	for _, test := range tests {
		at, err := test.spec.When(now)
		if test.want == "" {
			if err == nil {
				t.Fatalf("%#v didn't protest", test.spec)
			}
			continue
		}
		if err != nil {
			t.Fatal(err)
		}
		if s := at.Format(time.RFC3339); s != test.want {
			t.Fatal(s)
		}
	}
}

func TestSessionLoopHalts(t *testing.T) {
	c := newChans()
	s := newSession(t, &SessionConf{
		HaltOnInputEOF: true,
	}, c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	halted := make(chan error)
	go func() {
		halted <- s.Loop(ctx)
	}()

	c.in <- msg(`["+",1,2]`)
	if r := <-c.out; r == nil || JS(r.Results) != `[3]` {
		t.Fatal(JS(r))
	}

	close(c.done)

	select {
	case <-ctx.Done():
		t.Fatal("no signal from the loop")
	case r := <-c.out:
		if r != nil {
			t.Fatal(JS(r))
		}
	}

	if err := <-halted; err != nil {
		t.Fatal(err)
	}
}

func TestStdio(t *testing.T) {
	dir, err := ioutil.TempDir("", "atomspace-sio")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	input := `# Rules first.
{"to":"background","add":[["=",["double","$x"],["*","$x",2]]]}
["double", 21]
{"add":[["double", <<echo 4>>]]}
`

	std := NewStdio(true)
	std.Tags = true
	std.PrintUpdates = true
	std.StateOutputFilename = filepath.Join(dir, "state.json")
	ri, wi := io.Pipe()
	std.In = ri
	ro, wo := io.Pipe()
	std.Out = wo

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := std.Start(ctx); err != nil {
		t.Fatal(err)
	}

	s := newSessionCtx(ctx, t, &SessionConf{
		HaltOnInputEOF: true,
	}, std)

	heard := make(chan []string)
	go func() {
		acc := make([]string, 0, 8)
		out := bufio.NewReader(ro)
		for {
			line, err := out.ReadString('\n')
			if err != nil {
				break
			}
			acc = append(acc, strings.TrimSpace(line))
		}
		heard <- acc
	}()

	go func() {
		fmt.Fprint(wi, input)
		wi.Close()
	}()

	if err := s.Loop(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	if err = std.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	wo.Close()

	lines := <-heard
	want := map[string]bool{
		"result 42": false,
		"result 8":  false,
		`update {"background":[["=",["double","$x"],["*","$x",2]]]}`: false,
	}
	for _, line := range lines {
		if _, have := want[line]; have {
			want[line] = true
		}
	}
	for line, found := range want {
		if !found {
			t.Fatalf("didn't hear %s in %s", line, JS(lines))
		}
	}

	// The state has every space that changed.
	std.StateInputFilename = std.StateOutputFilename
	state, err := std.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if js := JS(state["target"]); js != `[["double",21],["double",4]]` {
		t.Fatal(js)
	}
}
