package server

import (
	"encoding/json"
	"log"
	"net"
)

// client is one accepted connection. The reader goroutine frames inbound
// bytes into lines and posts them as events; the writer goroutine drains
// the send channel so a stalled peer never blocks the server loop.
type client struct {
	id   string
	conn net.Conn
	send chan []byte
}

func (c *client) ID() string {
	return c.id
}

// Send marshals v and queues it for delivery, newline-terminated. The
// message is dropped when the send buffer is full.
func (c *client) Send(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling message for client %s: %v", c.id, err)
		return
	}
	data = append(data, '\n')

	select {
	case c.send <- data:
	default:
		log.Printf("Client %s send buffer full, dropping message", c.id)
	}
}

// readLoop reads until the connection drops, posting framed lines to the
// server loop. A read error or EOF posts a single disconnect event.
func (c *client) readLoop(events chan<- event, done <-chan struct{}) {
	var framer Framer
	buf := make([]byte, 1024)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			for _, line := range framer.Push(buf[:n]) {
				select {
				case events <- event{kind: eventLine, client: c, line: line}:
				case <-done:
					return
				}
			}
		}
		if err != nil {
			select {
			case events <- event{kind: eventDisconnect, client: c}:
			case <-done:
			}
			return
		}
	}
}

// writeLoop runs until the send channel is closed during teardown.
func (c *client) writeLoop() {
	for data := range c.send {
		if _, err := c.conn.Write(data); err != nil {
			// The reader will observe the broken connection and post
			// the disconnect; just stop writing.
			return
		}
	}
}
