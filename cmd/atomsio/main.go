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

// Package main runs a single session that reads messages from some
// couplings (stdin, MQTT, WebSockets, or HTTP) and writes results
// back.
//
//   echo '["double", 21]' | atomsio -program double.yaml -halt-on-eof
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/core"
	"github.com/Comcast/atomspace/grounded"
	"github.com/Comcast/atomspace/interpreters"
	"github.com/Comcast/atomspace/load"
	"github.com/Comcast/atomspace/sio"
	"github.com/Comcast/atomspace/storage"
	"github.com/Comcast/atomspace/storage/bolt"
)

func main() {

	var (
		coupling            = flag.String("io", "std", `IO protocol: "std", "mq", "ws", or "httpd"`)
		stateInputFilename  = flag.String("state-input-filename", "", "Optional name for input JSON state file")
		stateOutputFilename = flag.String("state-output-filename", "state.json", "Optional name for output JSON state file")
		boltFilename        = flag.String("bolt", "", "Optional BoltDB filename for persistent spaces")

		programFile = flag.String("program", "", "Optional program filename (YAML or JSON)")
		target      = flag.String("target", "", "Target space (overrides the program)")
		background  = flag.String("background", "", "Background space (overrides the program)")
		feedback    = flag.Bool("feedback", false, "Add results to the background")
		limit       = flag.Int("limit", core.DefaultControl.Limit, "Max steps per message")

		wait      = flag.Duration("wait", time.Second, "Wait this long before shutting down couplings")
		haltOnEOF = flag.Bool("halt-on-eof", false, "Stop on input EOF")
		verbose   = flag.Bool("v", false, "Verbose")
		help      = flag.Bool("h", false, "Get usage")
	)

	flag.Parse()

	if *help {
		flag.PrintDefaults()

		{
			fmt.Fprintf(os.Stderr, "\n-io std (default):\n\n")
			_, fs := NewStdCouplings(nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n-io mq:\n\n")
			_, fs := NewMQTTCouplings(nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n-io ws:\n\n")
			_, fs := NewWebSocketCouplings(nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n-io httpd:\n\n")
			_, fs := NewHTTPDCouplings(nil)
			fs.PrintDefaults()
		}

		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cio sio.Couplings
	var store *sio.JSONStore
	switch *coupling {
	case "std":
		c, _ := NewStdCouplings(flag.Args())
		store = &c.JSONStore
		cio = c
	case "mq", "mqtt":
		c, _ := NewMQTTCouplings(flag.Args())
		store = c.JSONStore
		cio = c
	case "ws":
		c, _ := NewWebSocketCouplings(flag.Args())
		store = &c.JSONStore
		cio = c
	case "httpd", "http":
		c, _ := NewHTTPDCouplings(flag.Args())
		store = &c.JSONStore
		// But see hack below to set the session.
		cio = c
	default:
		log.Fatalf("unknown io: '%s'", *coupling)
	}

	if store != nil {
		if *stateInputFilename != "" {
			store.StateInputFilename = *stateInputFilename
		}
		if *stateOutputFilename != "" {
			store.StateOutputFilename = *stateOutputFilename
		}
	}

	env, err := grounded.NewEnv(nil)
	if err != nil {
		log.Fatal(err)
	}
	env.Debug = *verbose

	conf := &sio.SessionConf{
		Target:         *target,
		Background:     *background,
		Feedback:       *feedback,
		HaltOnInputEOF: *haltOnEOF,
		Ctl: &core.Control{
			Limit: *limit,
		},
	}

	var c *atom.Codec
	if *programFile != "" {
		p, err := load.ReadFile(*programFile)
		if err != nil {
			log.Fatal(err)
		}
		inst, err := p.Build(ctx, env)
		if err != nil {
			log.Fatal(err)
		}
		c = inst.Codec
		if conf.Target == "" {
			conf.Target = p.Target
		}
		if conf.Background == "" {
			conf.Background = p.Background
		}
		conf.Feedback = conf.Feedback || p.Feedback
	} else {
		c, _ = interpreters.Standard(ctx, env)
	}

	var st *bolt.Storage
	if *boltFilename != "" {
		if st, err = bolt.NewStorage(*boltFilename, c); err != nil {
			log.Fatal(err)
		}
		st.Debug = *verbose
		if err = st.Open(ctx); err != nil {
			log.Fatal(err)
		}
		defer st.Close(context.Background())
		if err = storage.Load(ctx, st, env.Spaces); err != nil {
			log.Fatal(err)
		}
	}

	if err := cio.Start(ctx); err != nil {
		log.Fatal(err)
	}

	s, err := sio.NewSession(ctx, conf, env, c, cio)
	if err != nil {
		log.Fatal(err)
	}
	s.Verbose = *verbose
	if st != nil {
		s.Storage = st
	}

	// Hack to set session.
	if h, is := cio.(*HTTPDCouplings); is {
		h.Lock()
		h.session = s
		h.Unlock()
	}

	spaces, err := cio.Read(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if err = s.Load(ctx, spaces); err != nil {
		log.Fatal(err)
	}

	go func() {
		if std, is := cio.(*sio.Stdio); is {
			<-std.InputEOF
			log.Printf("input EOF (waiting %v)", *wait)
			time.Sleep(*wait)
			cancel()
		}
	}()

	if err := s.Loop(ctx); err != nil {
		log.Fatal(err)
	}

	if err = cio.Stop(context.Background()); err != nil {
		log.Printf("error from io.Stop: %v", err)
	}
}

func E(err error, args ...interface{}) error {
	log.Printf("error %s: %v", err, args)
	return err
}
