package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRegistry(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	registry := New()
	assert.NotNil(registry)
	assert.Equal(0, registry.Count())
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	registry := New()

	registry.Register("FNDX", Meta{Name: "Global Equity", Active: true})
	assert.True(registry.IsRegistered("FNDX"))

	// Registering the same ID again replaces the record
	registry.Register("FNDX", Meta{Name: "Global Equity II", Active: false})
	meta, ok := registry.Get("FNDX")
	assert.True(ok)
	assert.Equal("Global Equity II", meta.Name)
	assert.False(meta.Active)
	assert.Equal(1, registry.Count())
}

func TestRegistry_Get(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	registry := New()
	registry.Register("BK01", Meta{
		Name:   "First Commercial",
		Active: true,
		Metadata: map[string]string{
			"swift": "FCBKTWTP",
		},
	})

	meta, ok := registry.Get("BK01")
	assert.True(ok)
	assert.Equal("BK01", meta.ID)
	assert.Equal("First Commercial", meta.Name)

	_, ok = registry.Get("unknown")
	assert.False(ok)
}

func TestRegistry_ListActive(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	registry := New()
	registry.Register("A", Meta{Active: true})
	registry.Register("B", Meta{Active: false})
	registry.Register("C", Meta{Active: true})

	assert.ElementsMatch([]string{"A", "C"}, registry.ListActive())
	assert.Len(registry.ListRegistered(), 3)
}

func TestRegistry_Unregister(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	registry := New()
	registry.Register("A", Meta{Active: true})

	assert.True(registry.Unregister("A"))
	assert.False(registry.Unregister("A"))
	assert.False(registry.IsRegistered("A"))
}

func TestRegistry_Metadata(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	registry := New()
	registry.Register("TWD", Meta{
		Active:   true,
		Metadata: map[string]string{"decimals": "0"},
	})

	v, ok := registry.Metadata("TWD", "decimals")
	assert.True(ok)
	assert.Equal("0", v)

	_, ok = registry.Metadata("TWD", "missing")
	assert.False(ok)
	_, ok = registry.Metadata("unknown", "decimals")
	assert.False(ok)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	registry := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := fmt.Sprintf("entity-%d", i%5)
		go func(id string) {
			defer wg.Done()
			registry.Register(id, Meta{Active: true})
		}(id)
		go func(id string) {
			defer wg.Done()
			registry.Get(id)
			registry.ListActive()
		}(id)
	}
	wg.Wait()
	assert.Equal(5, registry.Count())
}
