package coordinator

import (
	"context"
	"sync"
)

type reply struct {
	value string
	err   error
}

// stubBackend answers commands immediately unless a gate is registered for
// them, in which case the call blocks until the test releases it.
type stubBackend struct {
	mu       sync.Mutex
	calls    []string
	finished int
	gates    map[string]chan reply
}

func newStubBackend() *stubBackend {
	return &stubBackend{gates: map[string]chan reply{}}
}

func (s *stubBackend) gate(command string) chan reply {
	ch := make(chan reply, 1)
	s.mu.Lock()
	s.gates[command] = ch
	s.mu.Unlock()
	return ch
}

func (s *stubBackend) exec(ctx context.Context, command string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, command)
	ch := s.gates[command]
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.finished++
		s.mu.Unlock()
	}()
	if ch == nil {
		return "value:" + command, nil
	}
	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *stubBackend) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubBackend) callList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *stubBackend) finishedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

func argSource(_ context.Context, args ...any) (string, error) {
	if len(args) == 0 {
		return "default", nil
	}
	return args[0].(string), nil
}
