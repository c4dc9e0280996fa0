package mavlink

import (
	"sync"
	"time"
)

// MockSource feeds scripted records to the ingestion loop in tests.
type MockSource struct {
	ch        chan *Decoded
	closed    chan struct{}
	closeOnce sync.Once
}

var _ Source = &MockSource{}

func NewMockSource(buffer int) *MockSource {
	return &MockSource{
		ch:     make(chan *Decoded, buffer),
		closed: make(chan struct{}),
	}
}

func (ms *MockSource) Push(d *Decoded) { ms.ch <- d }

func (ms *MockSource) Recv(timeout time.Duration) (*Decoded, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case d := <-ms.ch:
		return d, nil
	case <-ms.closed:
		return nil, ErrSourceClosed
	case <-timer.C:
		return nil, errRecvTimeout(timeout)
	}
}

func (ms *MockSource) Close() error {
	ms.closeOnce.Do(func() { close(ms.closed) })
	return nil
}
