/* Copyright 2018 Comcast Cable Communications Management, LLC
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

// Package main runs a program or a test session.
//
//   atoms -p programs/factorial.yaml
//   atoms -p programs/factorial.yaml -format yaml
//   atoms -expect tests/double.test.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"time"

	"github.com/Comcast/atomspace/core"
	"github.com/Comcast/atomspace/tools"
	"github.com/Comcast/atomspace/tools/expect"
	"github.com/Comcast/atomspace/util"

	"github.com/jsccast/yaml"
	yaml2 "gopkg.in/yaml.v2"
)

func main() {

	var (
		programFilename = flag.String("p", "", "program filename (YAML or JSON)")
		expectFilename  = flag.String("expect", "", "test session filename (YAML)")
		format          = flag.String("format", "text", "output format: text, json, or yaml")
		limit           = flag.Int("limit", core.DefaultControl.Limit, "maximum number of steps")
		rounds          = flag.Int("rounds", core.DefaultRounds, "maximum number of feedback rounds")
		maxBranches     = flag.Int("max-branches", 0, "maximum number of pending branches (0 means no limit)")
		timeout         = flag.Duration("t", 10*time.Second, "main timeout")
		verbose         = flag.Bool("v", false, "verbosity")
	)

	flag.Parse()

	util.Logging = *verbose

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *expectFilename != "" {
		if err := runExpect(ctx, *expectFilename, *verbose); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("ok\n")
		return
	}

	if *programFilename == "" {
		flag.Usage()
		os.Exit(1)
	}

	i := core.NewInterpreter()
	i.MaxBranches = *maxBranches
	i.Debug = *verbose

	c := core.DefaultControl.Copy()
	c.Limit = *limit
	c.Rounds = *rounds

	if err := run(ctx, *programFilename, i, c, *format, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, filename string, i *core.Interpreter, c *core.Control, format string, out io.Writer) error {
	inst, err := tools.BuildFile(ctx, filename)
	if err != nil {
		return err
	}

	xs, err := inst.Run(ctx, i, c)
	if err != nil {
		return err
	}

	switch format {
	case "text":
		for _, x := range xs {
			fmt.Fprintf(out, "%s\n", x)
		}
		return nil
	case "json", "yaml":
	default:
		return fmt.Errorf("unknown format %s", format)
	}

	ys, err := inst.Codec.EncodeAll(xs)
	if err != nil {
		return err
	}

	var bs []byte
	if format == "json" {
		bs, err = json.Marshal(ys)
		bs = append(bs, '\n')
	} else {
		bs, err = yaml2.Marshal(ys)
	}
	if err != nil {
		return err
	}
	_, err = out.Write(bs)
	return err
}

func runExpect(ctx context.Context, filename string, verbose bool) error {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return err
	}

	var s expect.Session
	if err = yaml.Unmarshal(bs, &s); err != nil {
		return err
	}
	if verbose {
		s.Verbose = true
	}
	if s.DefaultTimeout == 0 {
		s.DefaultTimeout = 5 * time.Second
	}

	return s.Run(ctx)
}

