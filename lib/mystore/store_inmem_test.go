package mystore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type Person struct {
	UID   string
	Name  string
	Age   int
	Owner bool
}

var (
	person = Person{UID: "123", Name: "Marc", Age: 42}
)

func TestStore(t *testing.T) {
	c := context.TODO()
	ps, cleanup, err := NewInMemoryStore[Person](c)
	assert.NoError(t, err)
	defer cleanup()

	t.Run("Get not found", func(t *testing.T) {
		_, found, err := ps.Get(c, person.UID)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Get put", func(t *testing.T) {
		err = ps.Put(c, person.UID, person)
		assert.NoError(t, err)
	})

	t.Run("Get found", func(t *testing.T) {
		p, found, err := ps.Get(c, person.UID)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, Person{UID: "123", Name: "Marc", Age: 42}, p)
	})

	t.Run("List", func(t *testing.T) {
		all, err := ps.List(c)
		assert.NoError(t, err)
		assert.Equal(t, all, []Person{person})
	})
}

func TestQuery(t *testing.T) {
	c := context.TODO()
	ps, cleanup, err := NewInMemoryStore[Person](c)
	assert.NoError(t, err)
	defer cleanup()

	_ = ps.Put(c, "1", Person{UID: "1", Name: "Eva", Age: 12, Owner: true})
	_ = ps.Put(c, "2", Person{UID: "2", Name: "Pien", Age: 16})
	_ = ps.Put(c, "3", Person{UID: "3", Name: "Marc", Age: 42, Owner: true})

	t.Run("Filter on bool, newest first", func(t *testing.T) {
		got, err := ps.Query(c, []Filter{{Field: "Owner", Compare: "=", Value: true}}, "-Age")
		assert.NoError(t, err)
		assert.Equal(t, []string{"3", "1"}, uids(got))
	})

	t.Run("Filter on string", func(t *testing.T) {
		got, err := ps.Query(c, []Filter{{Field: "Name", Compare: "=", Value: "Pien"}}, "")
		assert.NoError(t, err)
		assert.Equal(t, []string{"2"}, uids(got))
	})

	t.Run("Ascending", func(t *testing.T) {
		got, err := ps.Query(c, nil, "Name")
		assert.NoError(t, err)
		assert.Equal(t, []string{"1", "3", "2"}, uids(got))
	})

	t.Run("Unknown field", func(t *testing.T) {
		_, err := ps.Query(c, []Filter{{Field: "Shoe", Compare: "=", Value: 1}}, "")
		assert.Error(t, err)
	})

	t.Run("Unsupported comparison", func(t *testing.T) {
		_, err := ps.Query(c, []Filter{{Field: "Age", Compare: ">", Value: 1}}, "")
		assert.Error(t, err)
	})
}

func TestTransaction(t *testing.T) {
	c := context.TODO()
	ps, cleanup, err := NewInMemoryStore[Person](c)
	assert.NoError(t, err)
	defer cleanup()

	t.Run("Nested transaction joins outer", func(t *testing.T) {
		err := ps.RunInTransaction(c, func(c context.Context) error {
			return ps.RunInTransaction(c, func(c context.Context) error {
				return ps.Put(c, person.UID, person)
			})
		})
		assert.NoError(t, err)
		_, found, _ := ps.Get(c, person.UID)
		assert.True(t, found)
	})

	t.Run("Transaction on other store still locks", func(t *testing.T) {
		other, _, _ := NewInMemoryStore[Person](c)
		err := ps.RunInTransaction(c, func(c context.Context) error {
			assert.False(t, other.inTransaction(c))
			return other.Put(c, "456", Person{UID: "456"})
		})
		assert.NoError(t, err)
	})

	t.Run("Error propagates", func(t *testing.T) {
		err := ps.RunInTransaction(c, func(c context.Context) error {
			return fmt.Errorf("boom")
		})
		assert.EqualError(t, err, "boom")
	})
}

func uids(persons []Person) []string {
	result := []string{}
	for _, p := range persons {
		result = append(result, p.UID)
	}
	return result
}
