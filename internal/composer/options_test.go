package composer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	c := newTestComposer(t)

	assert.Equal(t, []string{Sentinel, "cat", "dog", "empty"}, c.Options("default", "subject", true))
	assert.Equal(t, []string{"cat", "dog", "empty"}, c.Options("default", "subject", false))
	assert.Equal(t, []string{Sentinel}, c.Options("default", "unknown_block", true))
	assert.Equal(t, []string{Sentinel}, c.Options("missing", "subject", true))
	assert.Empty(t, c.Options("missing", "subject", false))
}

func TestOptionsMemoIsNotShared(t *testing.T) {
	c := newTestComposer(t)

	first := c.Options("default", "composition", true)
	first[0] = "mutated"
	second := c.Options("default", "composition", true)
	assert.Equal(t, Sentinel, second[0])
}

func TestOptionsConcurrentAccess(t *testing.T) {
	c := newTestComposer(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, []string{Sentinel, "golden_hour"}, c.Options("default", "lighting", true))
		}()
	}
	wg.Wait()
}

func TestLibraryNamesAndValidateSelection(t *testing.T) {
	c := newTestComposer(t)

	assert.Equal(t, []string{"default"}, c.LibraryNames())
	assert.True(t, c.ValidateSelection("default", "subject", "cat"))
	assert.False(t, c.ValidateSelection("default", "subject", "horse"))
	assert.False(t, c.ValidateSelection("default", "mood", "cat"))
	assert.False(t, c.ValidateSelection("other", "subject", "cat"))
}
