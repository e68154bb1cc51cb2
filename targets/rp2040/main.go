//go:build rp2040 || rp2350

package main

import (
	"machine"
	"sync"
	"time"

	"ledkit/console"
	"ledkit/core"
)

var (
	session *console.Session
	lines   = console.NewLineReader(console.MaxLineLen)

	// Debug counters
	commandsRun uint32
	msgerrors   uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	InitDebug()

	driver := NewRPGPIODriver()
	var gpio core.GPIODriver = driver
	if exp, err := NewExpanderDriver(machine.I2C0, ExpanderAddress); err == nil {
		gpio = &pinRouter{native: driver, expander: exp}
		core.DebugPrintln("mcp23017 expander found, pins " + itoa(ExpanderBase) + "+ routed to it")
	}
	core.SetGPIODriver(gpio)

	led := core.NewLed(core.MustGPIO(), core.DefaultRuntime(), core.DefaultLedConfig(core.GPIOPin(machine.LED)))
	if err := led.Activate(); err != nil {
		core.DebugPrintln("led activate failed: " + err.Error())
	}
	session = console.NewSession(led)

	// Boot blink so a flashed board is visibly alive
	led.Flash(2, 50, 50)
	writeLine("ledkit console ready")

	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					lines.Reset()
					writeLine(console.ReplyErr + " internal error")
				}
			}()
			pollConsole()
		}()

		// Yield to the blink task
		time.Sleep(1 * time.Millisecond)
	}
}

// pollConsole drains USB input and runs every complete line
func pollConsole() {
	for USBAvailable() > 0 {
		b, err := USBRead()
		if err != nil {
			msgerrors++
			return
		}

		line, ok, err := lines.Feed(b)
		switch {
		case err != nil:
			msgerrors++
			writeLine(console.ReplyErr + " " + err.Error())
		case ok:
			commandsRun++
			writeLine(session.Reply(line))
		}
	}
}

// writeMu keeps debug lines from the blink task whole
var writeMu sync.Mutex

func writeLine(s string) {
	writeMu.Lock()
	defer writeMu.Unlock()
	USBWriteBytes([]byte(s))
	USBWriteBytes([]byte("\r\n"))
}
