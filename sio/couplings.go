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
)

// Couplings provide channels for message input, results output, and
// persistence.
//
// For example, an implementation could couple a Session to an MQTT
// broker (for IO) and BoltDB (for persistence).
type Couplings interface {
	// Start initializes the Couplings.
	Start(context.Context) error

	// IO returns the input and result channels along with a
	// channel that's closed when input is exhausted.
	IO(context.Context) (chan interface{}, chan *Result, chan bool, error)

	// Read (optionally) returns the initial content of some
	// spaces.  The atoms are in the generic form of atom.Codec.
	Read(context.Context) (map[string][]interface{}, error)

	// Stop shuts down the Couplings.
	Stop(context.Context) error
}
