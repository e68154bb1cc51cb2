// Package remote sends console command lines to a board over a serial link
// and reads back the matching reply.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ledkit/console"
)

// DefaultTimeout bounds the wait for a reply. A blocking flash on the board
// holds the reply back for the whole sequence, so callers flashing long
// sequences raise it.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned when no reply line arrived in time
var ErrTimeout = errors.New("no reply from device")

// Client talks to one board. Calls are serialised.
type Client struct {
	port    io.ReadWriter
	log     zerolog.Logger
	Timeout time.Duration

	mu      sync.Mutex
	pending []byte
}

// NewClient wraps an open port
func NewClient(port io.ReadWriter, log zerolog.Logger) *Client {
	return &Client{port: port, log: log, Timeout: DefaultTimeout}
}

// Do sends one command line and returns the detail of its ok reply. An err
// reply comes back as an error. Lines the board prints that are not replies
// (debug output) are logged and skipped.
func (c *Client) Do(ctx context.Context, line string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line = strings.TrimSpace(line)
	if strings.ContainsAny(line, "\r\n") {
		return "", fmt.Errorf("command %q spans lines", line)
	}
	if _, err := io.WriteString(c.port, line+"\n"); err != nil {
		return "", fmt.Errorf("write command: %w", err)
	}
	c.log.Debug().Str("cmd", line).Msg("sent")

	deadline := time.Now().Add(c.Timeout)
	for {
		reply, err := c.readLine(ctx, deadline)
		if err != nil {
			return "", err
		}
		if isReply(reply) {
			c.log.Debug().Str("reply", reply).Msg("received")
			return console.ParseReply(reply)
		}
		if reply != "" {
			c.log.Debug().Str("line", reply).Msg("device output")
		}
	}
}

func isReply(line string) bool {
	return line == console.ReplyOK ||
		strings.HasPrefix(line, console.ReplyOK+" ") ||
		strings.HasPrefix(line, console.ReplyErr+" ") ||
		line == console.ReplyErr
}

func (c *Client) readLine(ctx context.Context, deadline time.Time) (string, error) {
	buf := make([]byte, 64)
	for {
		if i := bytes.IndexByte(c.pending, '\n'); i >= 0 {
			line := strings.TrimRight(string(c.pending[:i]), "\r")
			c.pending = c.pending[i+1:]
			return line, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if time.Now().After(deadline) {
			return "", ErrTimeout
		}

		n, err := c.port.Read(buf)
		c.pending = append(c.pending, buf[:n]...)
		switch {
		case err == nil || errors.Is(err, io.EOF):
			// tarm reports a read timeout as a zero-length read
			if n == 0 {
				time.Sleep(time.Millisecond)
			}
		default:
			return "", fmt.Errorf("read reply: %w", err)
		}
	}
}
