package session

import (
	"io"
	"strings"
	"sync"
	"time"
)

// scriptedTransport plays a server: replies are queued per received command.
type scriptedTransport struct {
	mu      sync.Mutex
	inbox   [][]byte
	sent    []string
	closed  bool
	chunk   int
	onSend  func(cmd string) [][]byte
	sendErr error
	empty   int
}

func newScripted(chunk int, onSend func(cmd string) [][]byte) *scriptedTransport {
	return &scriptedTransport{chunk: chunk, onSend: onSend}
}

func (t *scriptedTransport) push(chunks ...[]byte) {
	for _, c := range chunks {
		for t.chunk > 0 && len(c) > t.chunk {
			t.inbox = append(t.inbox, c[:t.chunk])
			c = c[t.chunk:]
		}
		if len(c) > 0 {
			t.inbox = append(t.inbox, c)
		}
	}
}

func (t *scriptedTransport) Receive(p []byte, _ time.Duration) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inbox) == 0 {
		if t.closed {
			return 0, io.EOF
		}
		t.empty++
		return 0, nil
	}
	n := copy(p, t.inbox[0])
	if n < len(t.inbox[0]) {
		t.inbox[0] = t.inbox[0][n:]
	} else {
		t.inbox = t.inbox[1:]
	}
	return n, nil
}

func (t *scriptedTransport) Send(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	cmd := strings.TrimSuffix(string(p), "#")
	t.sent = append(t.sent, cmd)
	if t.onSend != nil {
		t.push(t.onSend(cmd)...)
	}
	return nil
}

func (t *scriptedTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *scriptedTransport) emptyReads() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.empty
}

// floodTransport always has another full chunk ready.
type floodTransport struct {
	reads int
}

func (f *floodTransport) Receive(p []byte, _ time.Duration) (int, error) {
	f.reads++
	for i := range p {
		p[i] = 'a'
	}
	return len(p), nil
}

func (f *floodTransport) Send([]byte) error { return nil }

func (f *floodTransport) Close() error { return nil }

func (t *scriptedTransport) commands() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.sent...)
}
