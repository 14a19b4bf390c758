package server

import "bytes"

// Framer accumulates raw bytes from one connection and splits them into
// newline-terminated messages. Partial trailing data is kept for the next
// push. The buffer is not capped; a client that never sends a newline
// grows it without limit.
type Framer struct {
	buf []byte
}

// Push appends data and returns every complete message it now holds, in
// order, without the trailing newline.
func (f *Framer) Push(data []byte) []string {
	f.buf = append(f.buf, data...)

	var lines []string
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(f.buf[:i]))
		f.buf = f.buf[i+1:]
	}
	return lines
}

// Pending reports how many bytes of partial message are buffered.
func (f *Framer) Pending() int {
	return len(f.buf)
}
