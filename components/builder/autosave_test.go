package builder

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAutoSaverDefaults(t *testing.T) {
	saver := NewAutoSaver(0, func() {})
	assert.Equal(t, DefaultAutoSaveDelay, saver.Delay())
	assert.True(t, saver.Enabled())

	disabled := NewAutoSaver(-1, func() {})
	assert.False(t, disabled.Enabled())
	disabled.Schedule()
	disabled.Cancel()
	disabled.Stop()
}

func TestAutoSaverCoalesces(t *testing.T) {
	var calls atomic.Int32
	saver := NewAutoSaver(30*time.Millisecond, func() { calls.Add(1) })

	for i := 0; i < 5; i++ {
		saver.Schedule()
		time.Sleep(5 * time.Millisecond)
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAutoSaverCancelAndStop(t *testing.T) {
	var calls atomic.Int32
	saver := NewAutoSaver(20*time.Millisecond, func() { calls.Add(1) })

	saver.Schedule()
	saver.Cancel()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	saver.Schedule()
	saver.Stop()
	assert.False(t, saver.Enabled())
	saver.Schedule()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}
