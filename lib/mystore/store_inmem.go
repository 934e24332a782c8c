package mystore

import (
	"context"
	"sync"
)

type inMemoryTransactionKey struct{}

type InMemoryStore[T any] struct {
	sync.Mutex
	Items map[string]T
}

func NewInMemoryStore[T any](c context.Context) (*InMemoryStore[T], func(), error) {
	return &InMemoryStore[T]{
		Items: make(map[string]T),
	}, func() {}, nil
}

// inTransaction reports whether c carries a transaction that already holds the lock of this store
func (s *InMemoryStore[T]) inTransaction(c context.Context) bool {
	owners, ok := c.Value(inMemoryTransactionKey{}).(map[any]bool)
	return ok && owners[s]
}

func (s *InMemoryStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	if s.inTransaction(c) {
		// Join the enclosing transaction
		return f(c)
	}

	// Start transaction
	s.Lock()
	defer s.Unlock()

	owners := map[any]bool{s: true}
	if outer, ok := c.Value(inMemoryTransactionKey{}).(map[any]bool); ok {
		for k := range outer {
			owners[k] = true
		}
	}
	ctx := context.WithValue(c, inMemoryTransactionKey{}, owners)

	// Within this block everything is transactional
	return f(ctx)
}

func (s *InMemoryStore[T]) Put(c context.Context, uid string, value T) error {
	if !s.inTransaction(c) {
		s.Lock()
		defer s.Unlock()
	}

	s.Items[uid] = value

	return nil
}

func (s *InMemoryStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	if !s.inTransaction(c) {
		s.Lock()
		defer s.Unlock()
	}

	result, exists := s.Items[uid]

	return result, exists, nil
}

func (s *InMemoryStore[T]) List(c context.Context) ([]T, error) {
	if !s.inTransaction(c) {
		s.Lock()
		defer s.Unlock()
	}

	result := make([]T, 0, len(s.Items))
	for _, v := range s.Items {
		result = append(result, v)
	}

	return result, nil
}

func (s *InMemoryStore[T]) Query(c context.Context, filters []Filter, orderByField string) ([]T, error) {
	all, err := s.List(c)
	if err != nil {
		return nil, err
	}
	return applyQuery(all, filters, orderByField)
}
