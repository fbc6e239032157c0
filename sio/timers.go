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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
)

// TimerEntry represents a pending timer.
type TimerEntry struct {
	Id  string      `json:"id"`
	Msg interface{} `json:"msg"`
	At  time.Time   `json:"at"`
	Ctl chan bool   `json:"-"`

	timers *Timers
}

// TimerSpec is the request for a timer.
//
// Exactly one of In (a duration like "2s") and Cron (a cron
// expression) should be given.  A Cron timer fires once at the next
// time the expression matches.
type TimerSpec struct {
	Id   string      `json:"id"`
	In   string      `json:"in,omitempty"`
	Cron string      `json:"cron,omitempty"`
	Msg  interface{} `json:"msg"`
}

// When computes the time the timer should fire.
func (t *TimerSpec) When(now time.Time) (time.Time, error) {
	switch {
	case t.In != "" && t.Cron != "":
		return now, fmt.Errorf("timer %s has both in and cron", t.Id)
	case t.In != "":
		d, err := time.ParseDuration(t.In)
		if err != nil {
			return now, err
		}
		return now.Add(d), nil
	case t.Cron != "":
		c, err := cronexpr.Parse(t.Cron)
		if err != nil {
			return now, err
		}
		return c.Next(now), nil
	}
	return now, fmt.Errorf("timer %s needs in or cron", t.Id)
}

// Timers represents pending timers.
type Timers struct {
	Map     map[string]*TimerEntry
	Emitter func(context.Context, *TimerEntry) `json:"-"`

	// Logf, if not nil, is used for logging.
	Logf func(format string, args ...interface{}) `json:"-"`

	sync.Mutex
}

// NewTimers creates a Timers with the given function that the
// TimerEntries will use to emit their messages.
func NewTimers(emitter func(context.Context, *TimerEntry)) *Timers {
	return &Timers{
		Map:     make(map[string]*TimerEntry, 8),
		Emitter: emitter,
	}
}

func (ts *Timers) logf(format string, args ...interface{}) {
	if ts.Logf != nil {
		ts.Logf(format, args...)
	}
}

// Add creates a new Timer that will emit the given message at the
// given time (if the timer isn't cancelled first).
//
// An existing timer with the same id is cancelled and replaced.
func (ts *Timers) Add(ctx context.Context, id string, msg interface{}, at time.Time) error {
	ts.logf("Timers.Add %s at %s", id, at.Format(time.RFC3339Nano))

	ts.Lock()
	defer ts.Unlock()

	if _, have := ts.Map[id]; have {
		if err := ts.cancel(ctx, id); err != nil {
			return err
		}
	}

	e := &TimerEntry{
		Id:     id,
		At:     at.UTC(),
		Msg:    msg,
		Ctl:    make(chan bool),
		timers: ts,
	}
	ts.Map[id] = e

	go e.run(ctx)

	return nil
}

// Pending returns the ids of the pending timers.
func (ts *Timers) Pending() []string {
	ts.Lock()
	acc := make([]string, 0, len(ts.Map))
	for id := range ts.Map {
		acc = append(acc, id)
	}
	ts.Unlock()
	return acc
}

// run starts a timer that will execute the TimerEntry at the
// appointed time if the TimerEntry isn't cancelled first.
func (te *TimerEntry) run(ctx context.Context) {
	ts := te.timers
	ts.logf("TimerEntry %s run", te.Id)

	t := time.NewTimer(time.Until(te.At))
	defer t.Stop()

	select {
	case <-t.C:
		ts.logf("Firing timer '%s'", te.Id)
		ts.Lock()
		if ts.Map[te.Id] == te {
			delete(ts.Map, te.Id)
		}
		ts.Unlock()
		if ts.Emitter != nil {
			ts.Emitter(ctx, te)
		}
	case <-te.Ctl:
		ts.logf("Canceling timer '%s'", te.Id)
	case <-ctx.Done():
	}
}

func (ts *Timers) cancel(ctx context.Context, id string) error {
	ts.logf("Timers.cancel %s", id)

	t, have := ts.Map[id]
	if !have {
		return fmt.Errorf("timer '%s' doesn't exist", id)
	}
	delete(ts.Map, id)

	close(t.Ctl)

	return nil
}

// Cancel attepts to cancel the timer with the given id.
func (ts *Timers) Cancel(ctx context.Context, id string) error {
	ts.Lock()
	err := ts.cancel(ctx, id)
	ts.Unlock()
	return err
}
