package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_CapsPerGeneration(t *testing.T) {
	l := NewLimiter(3)

	allowed := 0
	for i := 0; i < 10; i++ {
		if l.Allow(1) {
			allowed++
		}
	}
	assert.Equal(t, 3, allowed)
	assert.Equal(t, uint32(3), l.Count())
}

func TestLimiter_ResetsOnGenerationChange(t *testing.T) {
	l := NewLimiter(2)
	l.Allow(1)
	l.Allow(1)
	assert.False(t, l.Allow(1))

	assert.True(t, l.Allow(2))
	assert.True(t, l.Allow(2))
	assert.False(t, l.Allow(2))

	// going back is still a change
	assert.True(t, l.Allow(1))
}

func TestBudget(t *testing.T) {
	b := NewBudget(2)
	assert.True(t, b.Take())
	assert.True(t, b.Take())
	assert.False(t, b.Take())
	assert.Equal(t, uint32(2), b.Used())
}

func TestOrNop(t *testing.T) {
	assert.Equal(t, Nop{}, OrNop(nil))
	OrNop(nil).Info("ignored", "k", 1)
}
