package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// step is one recorded outcome and the state expected after it.
type step struct {
	ok       bool
	wantOpen bool
}

func replay(t *testing.T, b *Breaker, steps []step) {
	t.Helper()
	for i, s := range steps {
		if s.ok {
			b.RecordSuccess()
		} else {
			b.RecordFailure()
		}
		assert.Equal(t, s.wantOpen, b.IsOpen(), "after step %d", i)
	}
}

func TestBreakerTransitions(t *testing.T) {
	fail := func(open bool) step { return step{ok: false, wantOpen: open} }
	pass := func(open bool) step { return step{ok: true, wantOpen: open} }

	tests := []struct {
		name  string
		opts  []Option
		steps []step
	}{
		{
			name:  "opens on the third consecutive failure",
			opts:  []Option{WithFailureThreshold(3)},
			steps: []step{fail(false), fail(false), fail(true)},
		},
		{
			name:  "a success between failures restarts the count",
			opts:  []Option{WithFailureThreshold(3)},
			steps: []step{fail(false), fail(false), pass(false), fail(false), fail(false), fail(true)},
		},
		{
			name:  "closes after enough consecutive successes",
			opts:  []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{fail(true), pass(true), pass(false)},
		},
		{
			name:  "a failure while open restarts the success count",
			opts:  []Option{WithFailureThreshold(1), WithSuccessThreshold(3)},
			steps: []step{fail(true), pass(true), pass(true), fail(true), pass(true), pass(true), pass(false)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replay(t, New("risk-cache", tt.opts...), tt.steps)
		})
	}
}

func TestBreakerReportsStateChanges(t *testing.T) {
	b := New("risk-cache", WithFailureThreshold(1), WithSuccessThreshold(1))
	assert.Equal(t, "risk-cache", b.Name())
	assert.Equal(t, StateClosed, b.State())

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)

	_, change = b.RecordFailure()
	assert.False(t, change.Opened, "already open")

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
}

func TestBreakerReset(t *testing.T) {
	b := New("risk-cache", WithFailureThreshold(1))
	b.RecordFailure()
	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerAllowsOneProbePerCooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New("risk-cache", WithFailureThreshold(1), WithCooldown(time.Minute))
	b.now = func() time.Time { return now }

	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(59 * time.Second)
	assert.False(t, b.Allow())

	now = now.Add(time.Second)
	assert.True(t, b.Allow())
	assert.False(t, b.Allow())
}
