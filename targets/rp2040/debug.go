//go:build rp2040 || rp2350

package main

import "ledkit/core"

// DebugPrefix marks firmware debug lines so hosts can tell them from replies
const DebugPrefix = "dbg "

// InitDebug routes core debug output to the console port
func InitDebug() {
	core.SetDebugWriter(func(s string) {
		writeLine(DebugPrefix + s)
	})
	core.SetDebugEnabled(true)
}

// itoa converts int to string without fmt
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
