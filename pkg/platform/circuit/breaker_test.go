package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fail(b *Breaker, n int) {
	for range n {
		b.RecordFailure()
	}
}

func succeed(b *Breaker, n int) {
	for range n {
		b.RecordSuccess()
	}
}

func TestBreakerStartsClosed(t *testing.T) {
	b := New("lighthouse")
	assert.Equal(t, "lighthouse", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.Equal(t, "open", StateOpen.String())
}

func TestBreakerOpening(t *testing.T) {
	t.Run("opens on the threshold failure", func(t *testing.T) {
		b := New("lighthouse", WithFailureThreshold(3))
		fail(b, 2)

		useFallback, change := b.RecordFailure()
		assert.True(t, useFallback)
		assert.True(t, change.Opened)
		assert.True(t, b.IsOpen())
	})

	t.Run("below threshold keeps the primary", func(t *testing.T) {
		b := New("lighthouse", WithFailureThreshold(3))
		useFallback, change := b.RecordFailure()
		assert.False(t, useFallback)
		assert.Equal(t, StateChange{}, change)
	})

	t.Run("success clears the failure streak", func(t *testing.T) {
		b := New("lighthouse", WithFailureThreshold(3))
		fail(b, 2)
		b.RecordSuccess()
		fail(b, 2)
		assert.False(t, b.IsOpen())
		fail(b, 1)
		assert.True(t, b.IsOpen())
	})

	t.Run("failures while open report no transition", func(t *testing.T) {
		b := New("lighthouse", WithFailureThreshold(1))
		fail(b, 1)
		useFallback, change := b.RecordFailure()
		assert.True(t, useFallback)
		assert.False(t, change.Opened)
	})

	t.Run("defaults to five failures", func(t *testing.T) {
		b := New("lighthouse")
		fail(b, 4)
		assert.False(t, b.IsOpen())
		fail(b, 1)
		assert.True(t, b.IsOpen())
	})

	t.Run("non-positive thresholds keep defaults", func(t *testing.T) {
		b := New("lighthouse", WithFailureThreshold(0), WithSuccessThreshold(-1))
		fail(b, 5)
		require.True(t, b.IsOpen())
		usePrimary, _ := b.RecordSuccess()
		assert.True(t, usePrimary)
	})
}

func TestBreakerClosing(t *testing.T) {
	t.Run("needs the success threshold in a row", func(t *testing.T) {
		b := New("lighthouse", WithFailureThreshold(1), WithSuccessThreshold(2))
		fail(b, 1)

		usePrimary, change := b.RecordSuccess()
		assert.False(t, usePrimary)
		assert.False(t, change.Closed)

		usePrimary, change = b.RecordSuccess()
		assert.True(t, usePrimary)
		assert.True(t, change.Closed)
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("a failure restarts the success count", func(t *testing.T) {
		b := New("lighthouse", WithFailureThreshold(1), WithSuccessThreshold(3))
		fail(b, 1)
		succeed(b, 2)
		fail(b, 1)
		succeed(b, 2)
		assert.True(t, b.IsOpen())
		succeed(b, 1)
		assert.False(t, b.IsOpen())
	})

	t.Run("reset forces closed", func(t *testing.T) {
		b := New("lighthouse", WithFailureThreshold(1))
		fail(b, 1)
		b.Reset()
		assert.Equal(t, StateClosed, b.State())
	})
}
