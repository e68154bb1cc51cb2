package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeTestLed(t *testing.T, cfg LedConfig) (*Led, *fakeGPIO, *GoRuntime) {
	t.Helper()
	led, gpio, rt := newTestLed(t, cfg)
	require.NoError(t, led.Activate())
	gpio.Reset()
	return led, gpio, rt
}

func countEvents(typ EventType) int {
	n := 0
	for _, e := range Events() {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func TestFlashZeroCount(t *testing.T) {
	led, gpio, _ := activeTestLed(t, DefaultLedConfig(3))

	start := time.Now()
	led.Flash(0, 500, 500)

	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.Empty(t, gpio.Writes())
}

func TestFlashCyclesAndTiming(t *testing.T) {
	led, gpio, _ := activeTestLed(t, DefaultLedConfig(3))

	start := time.Now()
	led.Flash(3, 10, 20)
	elapsed := time.Since(start)

	high, low := countLevels(gpio.Writes())
	assert.Equal(t, 3, high, "on-writes")
	assert.Equal(t, 3, low, "off-writes")
	assert.False(t, led.IsOn(), "pre-call state not restored")

	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
	assert.Less(t, elapsed, 400*time.Millisecond)
}

func TestFlashRestoresLitState(t *testing.T) {
	led, gpio, _ := activeTestLed(t, DefaultLedConfig(3))
	led.TurnOn()

	led.Flash(2, 1, 1)

	require.True(t, led.IsOn())
	last, _ := gpio.Last()
	assert.True(t, last.level)
}

func TestFlashTruncatesCount(t *testing.T) {
	led, gpio, _ := activeTestLed(t, DefaultLedConfig(3))

	led.Flash(MaxFlash+50, 0, 0)

	high, _ := countLevels(gpio.Writes())
	assert.Equal(t, MaxFlash, high)
}

func TestFlashContextCancel(t *testing.T) {
	led, _, _ := activeTestLed(t, DefaultLedConfig(3))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := led.FlashContext(ctx, 50, 100, 100)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, led.IsOn())
}

func TestAsyncFlashRunsToCompletion(t *testing.T) {
	ClearEvents()
	led, gpio, rt := activeTestLed(t, DefaultLedConfig(3))

	res, err := led.AsyncFlash(3, 5, 5, 0)
	require.NoError(t, err)
	require.Equal(t, AsyncStarted, res)

	require.Eventually(t, func() bool { return !led.Running() }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(0), led.Remaining())

	high, low := countLevels(gpio.Writes())
	assert.Equal(t, 3, high)
	assert.Equal(t, 3, low)
	assert.Equal(t, 1, countEvents(EvtTaskExit))

	require.Eventually(t, func() bool { return rt.Live() == 0 }, time.Second, time.Millisecond)
}

func TestAsyncFlashRestoresStartState(t *testing.T) {
	led, gpio, _ := activeTestLed(t, DefaultLedConfig(3))
	led.TurnOn()

	_, err := led.AsyncFlash(2, 3, 3, 0)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return !led.Running() }, 2*time.Second, 5*time.Millisecond)

	assert.True(t, led.IsOn())
	last, _ := gpio.Last()
	assert.True(t, last.level)
}

func TestAsyncFlashRetargetsInPlace(t *testing.T) {
	ClearEvents()
	led, _, rt := activeTestLed(t, DefaultLedConfig(3))

	res, err := led.AsyncFlash(5, 20, 20, 0)
	require.NoError(t, err)
	require.Equal(t, AsyncStarted, res)

	res, err = led.AsyncFlash(2, 5, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, AsyncRetargeted, res)

	assert.Equal(t, 1, rt.Live(), "a second task was spawned")
	assert.Equal(t, 1, countEvents(EvtTaskStart))
	assert.Equal(t, uint64(2), led.Remaining())

	on, off := led.TimeRegime()
	assert.Equal(t, uint32(5), on)
	assert.Equal(t, uint32(5), off)

	require.Eventually(t, func() bool { return !led.Running() }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(0), led.Remaining())
}

func TestAsyncFlashRejectWhileRunning(t *testing.T) {
	cfg := DefaultLedConfig(3)
	cfg.RejectWhileRunning = true
	led, _, rt := activeTestLed(t, cfg)

	_, err := led.AsyncFlash(Forever, 10, 10, 0)
	require.NoError(t, err)

	res, err := led.AsyncFlash(2, 1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, AsyncRejected, res)
	assert.Equal(t, Forever, led.Remaining())
	assert.Equal(t, 1, rt.Live())

	led.Stop()
	assert.False(t, led.Running())
}

func TestAsyncFlashOnInactiveLed(t *testing.T) {
	led, gpio, rt := newTestLed(t, DefaultLedConfig(3))

	res, err := led.AsyncFlash(4, 10, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, AsyncDormant, res)
	assert.False(t, led.Running())
	assert.Equal(t, 0, rt.Live())
	assert.Equal(t, uint64(4), led.Remaining())
	assert.Empty(t, gpio.Writes())
}

func TestAsyncFlashSpawnFailure(t *testing.T) {
	led, _, rt := activeTestLed(t, DefaultLedConfig(3))

	res, err := led.AsyncFlash(3, 5, 5, 7)
	assert.Equal(t, AsyncFailed, res)
	assert.True(t, errors.Is(err, ErrSpawnFailed))
	assert.True(t, errors.Is(err, ErrInvalidCore))
	assert.False(t, led.Running())

	rt.MaxTasks = 1
	other := NewLed(newFakeGPIO(), rt, DefaultLedConfig(5))
	defer other.Close()
	require.NoError(t, other.Activate())
	_, err = other.AsyncFlash(Forever, 10, 10, 0)
	require.NoError(t, err)

	res, err = led.AsyncFlash(3, 5, 5, 0)
	assert.Equal(t, AsyncFailed, res)
	assert.ErrorIs(t, err, ErrTaskLimit)

	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, GPIOPin(3), spawnErr.Pin)
}

func TestDeactivateStopsForeverBlink(t *testing.T) {
	led, gpio, rt := activeTestLed(t, DefaultLedConfig(3))

	_, err := led.AsyncFlash(Forever, 50, 50, 0)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	start := time.Now()
	led.Deactivate()
	assert.Less(t, time.Since(start), 40*time.Millisecond, "teardown waited for the cycle")

	assert.False(t, led.Running())
	assert.Equal(t, 0, rt.Live())
	last, _ := gpio.Last()
	assert.False(t, last.level)

	n := len(gpio.Writes())
	time.Sleep(120 * time.Millisecond)
	assert.Len(t, gpio.Writes(), n, "write after Deactivate returned")
}

func TestForeverBlinkKeepsCount(t *testing.T) {
	led, _, _ := activeTestLed(t, DefaultLedConfig(3))

	_, err := led.AsyncFlash(Forever, 1, 1, 0)
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)

	assert.True(t, led.Running())
	assert.Equal(t, Forever, led.Remaining())
	led.Stop()
}

func TestReconnectStopsBlink(t *testing.T) {
	led, gpio, rt := activeTestLed(t, DefaultLedConfig(3))

	_, err := led.AsyncFlash(Forever, 2, 2, 0)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	led.ReconnectToPin(8, ActiveHigh)
	assert.Equal(t, 0, rt.Live())

	before := gpio.WritesTo(3)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before, gpio.WritesTo(3), "old pin written after reconnect")
	assert.Zero(t, gpio.WritesTo(8))
}

func TestRestartAfterStop(t *testing.T) {
	led, _, rt := activeTestLed(t, DefaultLedConfig(3))

	_, err := led.AsyncFlash(Forever, 5, 5, 0)
	require.NoError(t, err)
	led.Stop()
	require.False(t, led.Running())

	res, err := led.AsyncFlash(1, 1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, AsyncStarted, res)
	require.Eventually(t, func() bool { return !led.Running() }, time.Second, time.Millisecond)

	res, err = led.AsyncFlash(1, 1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, AsyncStarted, res)
	require.Eventually(t, func() bool { return !led.Running() }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return rt.Live() == 0 }, time.Second, time.Millisecond)
}

func TestSetTimeRegime(t *testing.T) {
	led, _, _ := activeTestLed(t, DefaultLedConfig(3))

	led.AsyncFlashSetTimeRegime(30, 0)
	on, off := led.TimeRegime()
	assert.Equal(t, uint32(30), on)
	assert.Equal(t, uint32(30), off)
	assert.False(t, led.Running())

	_, err := led.AsyncFlash(Forever, 40, 40, 0)
	require.NoError(t, err)
	led.AsyncFlashSetTimeRegime(2, 3)
	assert.Equal(t, Forever, led.Remaining())
	on, off = led.TimeRegime()
	assert.Equal(t, uint32(2), on)
	assert.Equal(t, uint32(3), off)
}

func TestDelayTruncatesToTicks(t *testing.T) {
	rt := NewGoRuntime()
	rt.TickPeriodMS = 10

	start := time.Now()
	require.NoError(t, rt.Delay(context.Background(), 9))
	assert.Less(t, time.Since(start), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, rt.Delay(ctx, 1000), context.Canceled)
}
