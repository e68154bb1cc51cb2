package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint64(-n))
	}
	return utoa(uint64(n))
}

// utoa converts an unsigned integer to a string
func utoa(n uint64) string {
	if n == 0 {
		return "0"
	}

	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// countToString renders a blink count, naming the forever sentinel
func countToString(n uint64) string {
	if n == Forever {
		return "forever"
	}
	return utoa(n)
}

func btoa(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
