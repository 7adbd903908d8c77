package service

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
)

const maxMessageSize = 1 << 20

// ReadDirectives forwards each non-blank line of r to out and closes out
// when r is exhausted or ctx is done.
func ReadDirectives(ctx context.Context, r io.Reader, out chan<- []byte) error {
	defer close(out)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		msg := make([]byte, len(line))
		copy(msg, line)
		select {
		case out <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read directives: %w", err)
	}
	return nil
}
