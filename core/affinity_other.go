//go:build !linux || tinygo

package core

import "runtime"

// pinToCore is a no-op where the scheduler does not expose thread affinity.
// TinyGo schedules goroutines cooperatively, so the requested core is only
// validated by SpawnPinned.
func pinToCore(core int) error {
	return nil
}

func numCores() int {
	return runtime.NumCPU()
}
