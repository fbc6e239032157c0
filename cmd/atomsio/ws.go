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

package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/url"

	"github.com/Comcast/atomspace/sio"

	"github.com/gorilla/websocket"
)

// WebSocketCouplings dials a WebSocket server and uses that one
// connection for both directions.
//
// Each text frame from the server is one session message: an atom
// in generic JSON (["+",1,2]) or a control message like
// {"add":[...]}.  Each Result goes back as a frame.  With Atoms, each
// result atom is its own frame and the rest of the Result stays
// local.
type WebSocketCouplings struct {
	URL   string
	Atoms bool
	sio.JSONStore

	in     chan interface{}
	out    chan *sio.Result
	closed chan bool
	conn   *websocket.Conn
}

func NewWebSocketCouplings(args []string) (*WebSocketCouplings, *flag.FlagSet) {
	c := &WebSocketCouplings{}
	fs := flag.NewFlagSet("ws", flag.ExitOnError)
	fs.StringVar(&c.URL, "url", "ws://localhost:8080", "WebSocket server URL")
	fs.BoolVar(&c.Atoms, "atoms", false, "Send each result atom as its own frame")
	if args == nil {
		return nil, fs
	}
	fs.Parse(args)
	return c, fs
}

// Start dials the server and starts the frame loops.
func (c *WebSocketCouplings) Start(ctx context.Context) error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return err
	}

	c.in = make(chan interface{})
	c.out = make(chan *sio.Result)
	c.closed = make(chan bool)

	log.Printf("ws dialing %s", u)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}
	c.conn = conn

	if c.StateOutputFilename != "" && c.State == nil {
		c.State = make(map[string][]interface{})
	}

	go c.readFrames(ctx)
	go c.writeResults(ctx)

	return nil
}

// readFrames parses each frame into a session message.  The closed
// channel closes when the connection does.
func (c *WebSocketCouplings) readFrames(ctx context.Context) {
	defer close(c.closed)
	for {
		_, bs, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				E(err, "ReadMessage")
			}
			return
		}
		if len(bs) == 0 {
			continue
		}

		msg, err := sio.ParseJSON(bs)
		if err != nil {
			E(err, "ParseJSON", string(bs))
			continue
		}

		select {
		case <-ctx.Done():
			return
		case c.in <- msg:
		}
	}
}

// frames returns the frames for one Result.
func (c *WebSocketCouplings) frames(r *sio.Result) ([][]byte, error) {
	if !c.Atoms {
		js, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		return [][]byte{js}, nil
	}
	acc := make([][]byte, 0, len(r.Results))
	for _, x := range r.Results {
		js, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		acc = append(acc, js)
	}
	return acc, nil
}

// writeResults sends Results to the server until the session's
// loop sends nil.
func (c *WebSocketCouplings) writeResults(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-c.out:
			if r == nil {
				return
			}
			frames, err := c.frames(r)
			if err != nil {
				E(err, "Marshal")
				continue
			}
			for _, js := range frames {
				if err = c.conn.WriteMessage(websocket.TextMessage, js); err != nil {
					E(err, "WriteMessage")
					return
				}
			}
			if err := c.Update(r); err != nil {
				E(err, "Update")
				return
			}
		}
	}
}

// IO returns the channels that Start made.  The done channel closes
// when the server closes the connection.
func (c *WebSocketCouplings) IO(ctx context.Context) (chan interface{}, chan *sio.Result, chan bool, error) {
	return c.in, c.out, c.closed, nil
}

func (c *WebSocketCouplings) Read(ctx context.Context) (map[string][]interface{}, error) {
	return c.JSONStore.Read(ctx)
}

// Stop says goodbye to the server and writes the state if asked.
func (c *WebSocketCouplings) Stop(ctx context.Context) error {
	if c.conn != nil {
		bye := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := c.conn.WriteMessage(websocket.CloseMessage, bye); err != nil {
			E(err, "close")
		}
		c.conn.Close()
	}
	return c.JSONStore.WriteState(ctx)
}
