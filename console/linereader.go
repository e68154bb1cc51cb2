package console

import "errors"

// MaxLineLen is the longest command line the firmware console accepts
const MaxLineLen = 128

// ErrLineTooLong is reported once per overlong line, when its terminator arrives
var ErrLineTooLong = errors.New("line too long")

// LineReader frames a byte stream into command lines. It allocates its
// buffer once so the firmware can feed it byte by byte.
type LineReader struct {
	buf        []byte
	discarding bool
}

// NewLineReader returns a reader accepting lines of up to max bytes
func NewLineReader(max int) *LineReader {
	if max <= 0 {
		max = MaxLineLen
	}
	return &LineReader{buf: make([]byte, 0, max)}
}

// Feed consumes one byte. It returns ok with the line when b terminates a
// non-empty line, or ErrLineTooLong when b terminates a line that overflowed.
// Bytes of an overflowing line are dropped up to its terminator.
func (r *LineReader) Feed(b byte) (line string, ok bool, err error) {
	switch b {
	case '\r', '\n':
		if r.discarding {
			r.discarding = false
			r.buf = r.buf[:0]
			return "", false, ErrLineTooLong
		}
		if len(r.buf) == 0 {
			return "", false, nil
		}
		line = string(r.buf)
		r.buf = r.buf[:0]
		return line, true, nil
	}

	if r.discarding {
		return "", false, nil
	}
	if len(r.buf) == cap(r.buf) {
		r.discarding = true
		return "", false, nil
	}
	r.buf = append(r.buf, b)
	return "", false, nil
}

// Reset drops any partial line
func (r *LineReader) Reset() {
	r.buf = r.buf[:0]
	r.discarding = false
}
