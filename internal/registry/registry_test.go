package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry[int]()

	isNew, err := reg.Register("orders", 1)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = reg.Register("orders", 2)
	require.NoError(t, err)
	assert.False(t, isNew)

	v, ok := reg.Get("orders")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, err = reg.Register("", 3)
	assert.Error(t, err)

	assert.Panics(t, func() { reg.MustGet("wallets") })
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	reg := NewRegistry[string]()
	names := []string{"orders", "wallets", "payments", "deliveries"}

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = reg.Register(names[i%len(names)], "x")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, reg.Len())
	assert.Equal(t, []string{"deliveries", "orders", "payments", "wallets"}, reg.Keys())
}
