package gpio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledkit/core"
)

func fakeLEDClass(t *testing.T, name string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trigger"), []byte("heartbeat"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brightness"), []byte("0"), 0644))
	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSysfsDriver(t *testing.T) {
	root := fakeLEDClass(t, "ACT")
	d := NewSysfsDriver(root, map[core.GPIOPin]string{0: "ACT"})

	assert.ErrorIs(t, d.SetPin(0, true), ErrNotConfigured)

	require.NoError(t, d.ConfigureOutput(0))
	assert.Equal(t, "none", readFile(t, filepath.Join(root, "ACT", "trigger")))

	require.NoError(t, d.SetPin(0, true))
	assert.Equal(t, "1", readFile(t, filepath.Join(root, "ACT", "brightness")))
	require.NoError(t, d.SetPin(0, false))
	assert.Equal(t, "0", readFile(t, filepath.Join(root, "ACT", "brightness")))
}

func TestSysfsDriverUnknownLED(t *testing.T) {
	d := NewSysfsDriver(t.TempDir(), map[core.GPIOPin]string{0: "missing"})

	assert.Error(t, d.ConfigureOutput(0))
	assert.Error(t, d.ConfigureOutput(1))
}

func TestSysfsDriverUnderLed(t *testing.T) {
	root := fakeLEDClass(t, "green_led")
	d := NewSysfsDriver(root, map[core.GPIOPin]string{3: "green_led"})

	rt := core.NewGoRuntime()
	led := core.NewLed(d, rt, core.DefaultLedConfig(3))
	defer led.Close()

	require.NoError(t, led.Activate())
	led.TurnOn()
	assert.Equal(t, "1", readFile(t, filepath.Join(root, "green_led", "brightness")))
	led.Deactivate()
	assert.Equal(t, "0", readFile(t, filepath.Join(root, "green_led", "brightness")))
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(zerolog.Nop())

	assert.ErrorIs(t, r.SetPin(4, true), ErrNotConfigured)
	require.NoError(t, r.ConfigureOutput(4))
	require.NoError(t, r.SetPin(4, true))
	require.NoError(t, r.SetPin(4, false))

	writes := r.Writes()
	require.Len(t, writes, 2)
	assert.True(t, writes[0].Level)
	assert.False(t, writes[1].Level)
	assert.False(t, writes[1].At.Before(writes[0].At))
}

func TestNew(t *testing.T) {
	log := zerolog.Nop()

	d, err := New(Options{Backend: BackendDryRun}, log)
	require.NoError(t, err)
	assert.NoError(t, d.ConfigureOutput(1))
	assert.NoError(t, d.Close())

	_, err = New(Options{Backend: BackendSysfs, Pin: 1}, log)
	assert.Error(t, err)

	d, err = New(Options{Backend: BackendSysfs, Pin: 1, SysfsLED: "ACT", SysfsRoot: fakeLEDClass(t, "ACT")}, log)
	require.NoError(t, err)
	assert.NoError(t, d.ConfigureOutput(1))

	_, err = New(Options{Backend: "bitbang"}, log)
	assert.EqualError(t, err, `unknown gpio backend "bitbang"`)

	_, err = New(Options{Backend: BackendChip}, log)
	assert.Error(t, err, "empty chip name accepted")
}
