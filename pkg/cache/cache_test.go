package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/mchmarny/trustchain/pkg/identity"
	"github.com/stretchr/testify/assert"
)

const testID identity.Identity = "0x52908400098527886e0f7030069857d2e4169ee7"

func TestGet_Missing(t *testing.T) {
	c := New()
	assert.Equal(t, 0.0, c.Get(testID))

	_, ok := c.Lookup(testID)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestSet_Overwrites(t *testing.T) {
	c := New()

	c.Set(testID, 7.5)
	assert.Equal(t, 7.5, c.Get(testID))

	c.Set(testID, 3.0)
	assert.Equal(t, 3.0, c.Get(testID))

	v, ok := c.Lookup(testID)
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
	assert.Equal(t, 1, c.Len())
}

func TestSet_Zero(t *testing.T) {
	c := New()
	c.Set(testID, 0)

	_, ok := c.Lookup(testID)
	assert.True(t, ok)
	assert.Equal(t, 0.0, c.Get(testID))
}

func TestIsolatedInstances(t *testing.T) {
	a, b := New(), New()
	a.Set(testID, 42)
	assert.Equal(t, 0.0, b.Get(testID))
}

func TestConcurrentWrites(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := identity.Identity(fmt.Sprintf("id-%d", i))
			c.Set(id, float64(i))
			_ = c.Get(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, c.Len())
	assert.Equal(t, 49.0, c.Get("id-49"))
}
