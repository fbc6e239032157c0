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

// Package bolt is a storage.Storage based on BoltDB.
//
// Each space gets its own bucket.  The keys are big-endian sequence
// numbers, so a cursor sees the atoms in insertion order.  The values
// are the atoms in JSON via an atom.Codec.
package bolt

import (
	"context"
	"encoding/binary"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/Comcast/atomspace/atom"
	"github.com/Comcast/atomspace/space"

	bolt "go.etcd.io/bbolt"
)

// NotOpen is returned when the Storage hasn't been opened.
var NotOpen = errors.New("storage not open")

type Storage struct {
	Debug bool

	// Codec encodes and decodes atoms.  Grounded atoms need a
	// Codec that knows them.
	Codec *atom.Codec

	filename string
	db       *bolt.DB
}

func NewStorage(filename string, c *atom.Codec) (*Storage, error) {
	if c == nil {
		c = atom.NewCodec()
	}
	return &Storage{
		Codec:    c,
		filename: filename,
	}, nil
}

func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("BoltDB Storage."+format, args...)
	}
}

func key(n uint64) []byte {
	bs := make([]byte, 8)
	binary.BigEndian.PutUint64(bs, n)
	return bs
}

// WriteSpace replaces the bucket for the space.
func (s *Storage) WriteSpace(ctx context.Context, name string, sp *space.Space) error {
	if s.db == nil {
		return NotOpen
	}

	content := sp.Content()
	s.logf("WriteSpace %s (%d atoms)", name, len(content))

	vals := make([][]byte, 0, len(content))
	for _, a := range content {
		js, err := s.Codec.MarshalAtom(a)
		if err != nil {
			return err
		}
		vals = append(vals, js)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(name)) != nil {
			if err := tx.DeleteBucket([]byte(name)); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket([]byte(name))
		if err != nil {
			return err
		}
		for _, js := range vals {
			n, err := b.NextSequence()
			if err != nil {
				return err
			}
			if err = b.Put(key(n), js); err != nil {
				return err
			}
		}
		return nil
	})
}

// Append adds atoms to the end of the stored space without rewriting
// what's already there.
func (s *Storage) Append(ctx context.Context, name string, atoms ...atom.Atom) error {
	if s.db == nil {
		return NotOpen
	}
	s.logf("Append %s (%d atoms)", name, len(atoms))
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return err
		}
		for _, a := range atoms {
			js, err := s.Codec.MarshalAtom(a)
			if err != nil {
				return err
			}
			n, err := b.NextSequence()
			if err != nil {
				return err
			}
			if err = b.Put(key(n), js); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) ReadSpace(ctx context.Context, name string) (*space.Space, error) {
	if s.db == nil {
		return nil, NotOpen
	}
	s.logf("ReadSpace %s", name)

	var acc []atom.Atom
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(name))
		if b == nil {
			return nil
		}
		acc = make([]atom.Atom, 0, b.Stats().KeyN)
		c := b.Cursor()
		for _, js := c.First(); js != nil; _, js = c.Next() {
			a, err := s.Codec.UnmarshalAtom(js)
			if err != nil {
				return err
			}
			acc = append(acc, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, nil
	}

	s.logf("ReadSpace %s found %d atoms", name, len(acc))

	return space.New(acc...), nil
}

func (s *Storage) RemSpace(ctx context.Context, name string) error {
	if s.db == nil {
		return NotOpen
	}
	s.logf("RemSpace %s", name)
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(name))
		if err == bolt.ErrBucketNotFound {
			return nil
		}
		return err
	})
}

func (s *Storage) Names(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, NotOpen
	}
	var acc []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			acc = append(acc, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(acc)
	return acc, nil
}
