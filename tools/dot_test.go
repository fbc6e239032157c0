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

package tools

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// buffer is a WriteCloser for tests.
type buffer struct {
	bytes.Buffer
	closed bool
}

func (b *buffer) Close() error {
	b.closed = true
	return nil
}

func TestDot(t *testing.T) {
	dir, err := ioutil.TempDir("", "atomspace-tools")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	filename := filepath.Join(dir, "g.dot")
	out, err := os.Create(filename)
	if err != nil {
		t.Fatal(err)
	}

	if err := Dot(rulebase(t), out, &DotOpts{YAMLPatterns: true, Highlight: "fact"}); err != nil {
		t.Fatal(err)
	}

	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	g := string(bs)
	if !strings.HasPrefix(g, "digraph G {") {
		t.Fatal(g)
	}
	if !strings.Contains(g, `color="red"`) {
		t.Fatal(g)
	}
}

func TestDotEdges(t *testing.T) {
	var b buffer
	if err := Dot(rulebase(t), &b, nil); err != nil {
		t.Fatal(err)
	}
	if !b.closed {
		t.Fatal("not closed")
	}
	g := b.String()

	// Heads get ids in order of appearance and then grounded heads.
	for _, want := range []string{
		`n1 -> n0 [ style="solid" ]`,
		`n1 -> n1 [ style="solid" ]`,
		`n1 -> n3 [ style="dotted" ]`,
		`n2 -> n6 [ style="solid" ]`,
		"(fact $n)",
	} {
		if !strings.Contains(g, want) {
			t.Fatalf("no %s in\n%s", want, g)
		}
	}
	if strings.Contains(g, "broken") {
		t.Fatal(g)
	}
}
