package registry

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Account struct {
	ID    int64  `po:"id,primaryKey,bigserial"`
	Email string `po:"email,varchar(320),unique,notNull"`
}

type Item struct {
	ID    int64  `po:"id,primaryKey,bigserial"`
	Title string `po:"title,text,notNull"`
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(Account{}))
	require.NoError(t, r.Register(&Account{}), "duplicate registration is a no-op")
	assert.True(t, r.Has(reflect.TypeOf(Account{})))
	assert.True(t, r.Has(reflect.TypeOf(&Account{})))
	assert.False(t, r.Has(reflect.TypeOf(Item{})))

	table, err := r.GetByName("account")
	require.NoError(t, err)
	assert.Equal(t, "account", table.Name)

	_, err = r.GetByName("missing")
	assert.Error(t, err)
}

func TestRegistry_RejectsNonStructs(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(42))
	assert.Error(t, r.Register(nil))
}

func TestRegistry_AllSortedAndClear(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Item{}))
	require.NoError(t, r.Register(Account{}))

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "account", all[0].Name)
	assert.Equal(t, "item", all[1].Name)

	r.Clear()
	assert.Empty(t, r.All())
}

func TestRegistry_ConcurrentGetOrRegister(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	results := make(chan string, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table, err := r.GetOrRegister(Item{})
			if err == nil {
				results <- table.Name
			}
		}()
	}
	wg.Wait()
	close(results)

	count := 0
	for name := range results {
		assert.Equal(t, "item", name)
		count++
	}
	assert.Equal(t, 32, count)
	assert.Len(t, r.All(), 1)
}
