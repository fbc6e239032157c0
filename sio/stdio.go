/* Copyright 2019 Comcast Cable Communications Management, LLC
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

package sio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Stdio is a fairly simple Couplings that uses stdin for input and
// stdout for output.
//
// Each input line is a JSON message.  See ParseInput.
//
// State is optionally crudely written as JSON to a file.
type Stdio struct {
	// In is coupled to session input.
	In io.Reader

	// Out is coupled to session output.
	Out io.Writer

	// ShellExpand enables input to include inline shell commands
	// delimited by '<<' and '>>'.  Use at your own risk, of
	// course!
	ShellExpand bool

	// Timestamps prepends a timestamp to each output line.
	Timestamps bool

	// EchoInput writes input lines (prepended with "input") to
	// the output.
	EchoInput bool

	// Tags prefixes tags indicating type of output ("input",
	// "result", "update", "diag", "error").
	Tags bool

	// PadTags adds some padding to tags used in output.
	PadTags bool

	// PrintUpdates will print the atoms added to each space.
	PrintUpdates bool

	JSONStore

	// InputEOF will be closed on EOF from stdin.
	InputEOF chan bool

	// WriteStatePerMsg will write out ALL state after every input
	// message is processed.
	//
	// Inefficient!
	WriteStatePerMsg bool

	// PrintDiag turns on printing of diagnostic data.
	PrintDiag bool
}

// NewStdio creates a new Stdio.
//
// ShellExpand enables input to include inline shell commands
// delimited by '<<' and '>>'.  Use at your own risk, of course!
//
// In and Out are initialized with os.Stdin and os.Stdout
// respectively.
func NewStdio(shellExpand bool) *Stdio {
	return &Stdio{
		In:          os.Stdin,
		Out:         os.Stdout,
		ShellExpand: shellExpand,
		InputEOF:    make(chan bool),
	}
}

// Start does nothing.
func (s *Stdio) Start(ctx context.Context) error {
	return nil
}

// Stop writes out the state if requested by StateOutputFilename.
//
// This function waits until IO is complete or was terminated via its
// context.
func (s *Stdio) Stop(ctx context.Context) error {
	return s.JSONStore.Stop(ctx, true)
}

// Read reads s.StateInputFilename, which should contain a JSON
// representation of the spaces.
func (s *Stdio) Read(ctx context.Context) (map[string][]interface{}, error) {
	return s.JSONStore.Read(ctx)
}

// IO returns channels for reading from stdin and writing to stdout.
func (s *Stdio) IO(ctx context.Context) (chan interface{}, chan *Result, chan bool, error) {
	in := make(chan interface{})
	done := make(chan bool)

	if s.StateOutputFilename != "" && s.State == nil {
		s.State = make(map[string][]interface{})
	}

	printf := func(tag, format string, args ...interface{}) {
		if s.PadTags {
			tag = fmt.Sprintf("% 10s", tag)
		}
		if s.Tags {
			format = tag + " " + format
		}
		if s.Timestamps {
			ts := fmt.Sprintf("%-31s", time.Now().UTC().Format(time.RFC3339Nano))
			format = ts + " " + format
		}

		fmt.Fprintf(s.Out, format, args...)
	}

	s.WG.Add(1)
	go func() {
		defer s.WG.Done()
		stdin := bufio.NewReader(s.In)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				line, err := stdin.ReadString('\n')
				if err == io.EOF || strings.TrimSpace(line) == "quit" {
					close(done)
					if s.InputEOF != nil {
						close(s.InputEOF)
					}
					return
				}
				if err != nil {
					log.Printf("stdin error %s", err)
					return
				}
				if s.EchoInput {
					printf("input", "%s", line)
				}
				if strings.HasPrefix(line, "#") || len(strings.TrimSpace(line)) == 0 {
					continue
				}
				if s.ShellExpand {
					line, err = ShellExpand(line)
					if err != nil {
						log.Printf("stdin error %s", err)
						return
					}
				}

				msg, err := ParseJSON([]byte(line))
				if err != nil {
					fmt.Fprintf(os.Stderr, "bad input: %s\n", err)
					continue
				}

				select {
				case <-ctx.Done():
					return
				case in <- msg:
				}
			}
		}
	}()

	out := make(chan *Result)

	s.WG.Add(1)
	go func() {
		defer s.WG.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-out:
				if r == nil {
					return
				}
				for _, x := range r.Results {
					printf("result", "%s\n", JS(x))
				}
				if s.PrintUpdates {
					for name, xs := range r.Changed {
						printf("update", "%s\n", JS(map[string]interface{}{name: xs}))
					}
				}
				for _, stroll := range r.Diag {
					if stroll.Err != "" {
						printf("error", "%s\n", JS(stroll.Err))
					}
					if s.PrintDiag {
						printf("diag", "%s\n", JShort(stroll))
					}
				}
				if err := s.Update(r); err != nil {
					log.Printf("stdio update error %s", err)
				}
				if s.WriteStatePerMsg {
					if err := s.WriteState(ctx); err != nil {
						log.Printf("stdio write error %s", err)
					}
				}
			}
		}
	}()

	return in, out, done, nil
}
