package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/Comcast/atomspace/space"
)

// Mem is an in-memory Storage.
type Mem struct {
	sync.Mutex

	spaces map[string]*space.Space
}

func NewMem() *Mem {
	return &Mem{
		spaces: make(map[string]*space.Space),
	}
}

func (m *Mem) Open(ctx context.Context) error {
	return nil
}

func (m *Mem) Close(ctx context.Context) error {
	return nil
}

func (m *Mem) WriteSpace(ctx context.Context, name string, s *space.Space) error {
	m.Lock()
	m.spaces[name] = space.New(s.Content()...)
	m.Unlock()
	return nil
}

func (m *Mem) ReadSpace(ctx context.Context, name string) (*space.Space, error) {
	m.Lock()
	defer m.Unlock()
	s, have := m.spaces[name]
	if !have {
		return nil, nil
	}
	return space.New(s.Content()...), nil
}

func (m *Mem) RemSpace(ctx context.Context, name string) error {
	m.Lock()
	delete(m.spaces, name)
	m.Unlock()
	return nil
}

func (m *Mem) Names(ctx context.Context) ([]string, error) {
	m.Lock()
	acc := make([]string, 0, len(m.spaces))
	for name := range m.spaces {
		acc = append(acc, name)
	}
	m.Unlock()
	sort.Strings(acc)
	return acc, nil
}
