//go:build linux && !tinygo

package core

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCore locks the calling goroutine to its OS thread and restricts that
// thread to the core-th CPU of the process affinity mask. Indexing into the
// mask keeps core numbers valid inside cgroup-limited containers.
func pinToCore(core int) error {
	runtime.LockOSThread()

	var allowed unix.CPUSet
	if err := unix.SchedGetaffinity(0, &allowed); err != nil {
		return err
	}

	cpu := nthCPU(&allowed, core)
	if cpu < 0 {
		return ErrInvalidCore
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}

// cpuSetSize is CPU_SETSIZE, the number of CPUs a unix.CPUSet can hold
const cpuSetSize = 1024

func nthCPU(set *unix.CPUSet, n int) int {
	seen := 0
	for cpu := 0; cpu < cpuSetSize; cpu++ {
		if !set.IsSet(cpu) {
			continue
		}
		if seen == n {
			return cpu
		}
		seen++
	}
	return -1
}

// numCores returns the number of CPUs the process may run on
func numCores() int {
	var allowed unix.CPUSet
	if err := unix.SchedGetaffinity(0, &allowed); err != nil {
		return runtime.NumCPU()
	}
	return allowed.Count()
}
