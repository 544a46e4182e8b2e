package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type memStore struct {
	mu    sync.Mutex
	saves []string
	err   error
}

func (m *memStore) Save(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves = append(m.saves, text)
	return nil
}

func (m *memStore) snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.saves...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestBurstIsCoalesced(t *testing.T) {
	m := &memStore{}
	s := New(m, 50*time.Millisecond, nil)
	defer s.Stop()
	for _, text := range []string{"a", "ab", "abc"} {
		s.Request(text)
	}
	waitFor(t, func() bool { return len(m.snapshot()) > 0 })
	time.Sleep(100 * time.Millisecond)
	got := m.snapshot()
	if len(got) != 1 || got[0] != "abc" {
		t.Fatalf("saves = %q, want [abc]", got)
	}
}

func TestStopWritesPending(t *testing.T) {
	m := &memStore{}
	s := New(m, time.Hour, nil)
	s.Request("last")
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if got := m.snapshot(); len(got) != 1 || got[0] != "last" {
		t.Fatalf("saves = %q, want [last]", got)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop error: %v", err)
	}
}

func TestFlushDropsPending(t *testing.T) {
	m := &memStore{}
	s := New(m, time.Hour, nil)
	s.Request("stale")
	if err := s.Flush(context.Background(), "fresh"); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	s.Stop()
	if got := m.snapshot(); len(got) != 1 || got[0] != "fresh" {
		t.Fatalf("saves = %q, want [fresh]", got)
	}
	if got := s.Written(); got != "fresh" {
		t.Fatalf("Written = %q, want %q", got, "fresh")
	}
}

func TestFailedWriteKeepsLastWritten(t *testing.T) {
	m := &memStore{}
	s := New(m, time.Hour, nil)
	defer s.Stop()
	if err := s.Flush(context.Background(), "ok"); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	m.mu.Lock()
	m.err = errors.New("disk full")
	m.mu.Unlock()
	if err := s.Flush(context.Background(), "lost"); err == nil {
		t.Fatalf("expected an error")
	}
	if got := s.Written(); got != "ok" {
		t.Fatalf("Written = %q, want %q", got, "ok")
	}
}

func TestFailureIsReported(t *testing.T) {
	m := &memStore{err: errors.New("disk full")}
	var mu sync.Mutex
	var reported []error
	s := New(m, 10*time.Millisecond, func(err error) {
		mu.Lock()
		reported = append(reported, err)
		mu.Unlock()
	})
	defer s.Stop()
	s.Request("x")
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reported) == 1
	})
	if err := s.Flush(context.Background(), "y"); err == nil {
		t.Fatalf("Flush error = nil, want failure")
	}
}

func TestFlushIsNeverOverwrittenByOlderRequest(t *testing.T) {
	for i := 0; i < 200; i++ {
		m := &memStore{}
		s := New(m, time.Microsecond, nil)
		s.Request("older")
		if err := s.Flush(context.Background(), "newer"); err != nil {
			t.Fatalf("Flush: %v", err)
		}
		time.Sleep(50 * time.Microsecond)
		if err := s.Stop(); err != nil {
			t.Fatalf("Stop: %v", err)
		}
		got := m.snapshot()
		if len(got) == 0 || got[len(got)-1] != "newer" {
			t.Fatalf("run %d: saves = %q, want %q last", i, got, "newer")
		}
	}
}
