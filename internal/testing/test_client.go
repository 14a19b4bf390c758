package testing

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// TestClient is one TCP connection speaking the newline-delimited JSON
// protocol, for driving the server from tests.
type TestClient struct {
	conn   net.Conn
	reader *bufio.Reader
}

func NewTestClient(addr string) (*TestClient, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &TestClient{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}, nil
}

func (tc *TestClient) Close() {
	tc.conn.Close()
}

// SendJSON marshals v and writes it as one protocol line.
func (tc *TestClient) SendJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tc.SendRaw(string(data))
}

// SendRaw writes an arbitrary line, for malformed-input tests.
func (tc *TestClient) SendRaw(line string) error {
	_, err := tc.conn.Write([]byte(line + "\n"))
	return err
}

// ReadMessage blocks for the next server message, decoded into a generic
// map. JSON numbers come back as float64.
func (tc *TestClient) ReadMessage(timeout time.Duration) (map[string]interface{}, error) {
	tc.conn.SetReadDeadline(time.Now().Add(timeout))
	line, err := tc.reader.ReadString('\n')
	if err != nil {
		return nil, err
	}

	var msg map[string]interface{}
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		return nil, fmt.Errorf("bad server line %q: %w", line, err)
	}
	return msg, nil
}

// ReadUntilType discards messages until one with the given type arrives.
// Useful when broadcasts like lobby_update interleave with direct replies.
func (tc *TestClient) ReadUntilType(msgType string, timeout time.Duration) (map[string]interface{}, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("timed out waiting for %q message", msgType)
		}
		msg, err := tc.ReadMessage(remaining)
		if err != nil {
			return nil, err
		}
		if msg["type"] == msgType {
			return msg, nil
		}
	}
}
