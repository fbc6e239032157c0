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

// Package storage persists named spaces.
package storage

import (
	"context"

	"github.com/Comcast/atomspace/space"
	"github.com/Comcast/atomspace/util"
)

// Storage is a persistence interface that's suitable for a
// space.Spaces registry.
type Storage interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error

	// WriteSpace replaces the stored content of the named space.
	WriteSpace(ctx context.Context, name string, s *space.Space) error

	// ReadSpace returns the stored space, or nil if there isn't
	// one.
	ReadSpace(ctx context.Context, name string) (*space.Space, error)

	RemSpace(ctx context.Context, name string) error

	// Names returns the names of the stored spaces in sorted
	// order.
	Names(ctx context.Context) ([]string, error)
}

// Load reads every stored space into the registry.
func Load(ctx context.Context, st Storage, ss *space.Spaces) error {
	names, err := st.Names(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		s, err := st.ReadSpace(ctx, name)
		if err != nil {
			return err
		}
		if s == nil {
			continue
		}
		util.Logf("storage.Load %s (%d atoms)", name, s.Len())
		ss.Must(name).Merge(s)
	}
	return nil
}

// Save writes the given spaces from the registry.  With no names,
// Save writes every space.
func Save(ctx context.Context, st Storage, ss *space.Spaces, names ...string) error {
	if len(names) == 0 {
		names = ss.Names()
	}
	for _, name := range names {
		s, err := ss.Get(name)
		if err != nil {
			return err
		}
		if err = st.WriteSpace(ctx, name, s); err != nil {
			return err
		}
	}
	return nil
}
