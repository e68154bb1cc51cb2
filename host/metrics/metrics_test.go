package metrics

import (
	"context"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ledkit/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestObserveBlinkLifecycle(t *testing.T) {
	c := New()

	c.Observe(core.Event{Type: core.EvtTaskStart, Pin: 2, Remaining: 3})
	c.Observe(core.Event{Type: core.EvtCycle, Pin: 2, Remaining: 2})
	c.Observe(core.Event{Type: core.EvtCycle, Pin: 2, Remaining: 1})

	assert.Equal(t, float64(1), testutil.ToFloat64(c.running.WithLabelValues("2")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.cycles.WithLabelValues("2")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.remaining.WithLabelValues("2")))

	c.Observe(core.Event{Type: core.EvtTaskExit, Pin: 2})
	assert.Equal(t, float64(0), testutil.ToFloat64(c.running.WithLabelValues("2")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.events.WithLabelValues("task_exit")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.events.WithLabelValues("cycle")))
}

func TestObserveForeverAndFailures(t *testing.T) {
	c := New()

	c.Observe(core.Event{Type: core.EvtRetarget, Pin: 7, Remaining: core.Forever})
	assert.True(t, math.IsInf(testutil.ToFloat64(c.remaining.WithLabelValues("7")), 1))

	c.Observe(core.Event{Type: core.EvtWriteFailed, Pin: 7})
	c.Observe(core.Event{Type: core.EvtSpawnFailed, Pin: 7})
	assert.Equal(t, float64(1), testutil.ToFloat64(c.writeFailures.WithLabelValues("7")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.events.WithLabelValues("spawn_failed")))
}

type quietGPIO struct{}

func (quietGPIO) ConfigureOutput(core.GPIOPin) error { return nil }
func (quietGPIO) SetPin(core.GPIOPin, bool) error    { return nil }

func TestEventHookFeedsCollector(t *testing.T) {
	c := New()
	core.SetEventHook(c.Observe)
	t.Cleanup(func() { core.SetEventHook(nil) })

	rt := core.NewGoRuntime()
	rt.NumCores = 1
	led := core.NewLed(quietGPIO{}, rt, core.DefaultLedConfig(9))
	defer led.Close()
	require.NoError(t, led.Activate())

	_, err := led.AsyncFlash(2, 1, 1, 0)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return !led.Running() }, time.Second, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.cycles.WithLabelValues("9")))
	assert.Equal(t, float64(0), testutil.ToFloat64(c.running.WithLabelValues("9")))
}

func TestHandler(t *testing.T) {
	c := New()
	c.Observe(core.Event{Type: core.EvtActivate, Pin: 1})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ledkit_led_events_total{event="activate"} 1`)
}

func TestServeStopsWithContext(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	c := New()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Serve(ctx, addr) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr + "/metrics")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	http.DefaultClient.CloseIdleConnections()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
