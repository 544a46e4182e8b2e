// Package autosave coalesces save requests into debounced background writes.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/Rancor38/Jot-Down/internal/logger"
)

const DefaultDelay = 300 * time.Millisecond

// Store is the write side of the persistence layer.
type Store interface {
	Save(ctx context.Context, text string) error
}

// Saver writes the most recent requested text once requests have been quiet
// for the configured delay. Request never blocks and never queues more than
// one pending text; a failed write is reported and not retried.
type Saver struct {
	store   Store
	delay   time.Duration
	onError func(error)

	mu      sync.Mutex
	pending string
	hasText bool
	written string

	// saveMu is held from taking a text until it is written, so a pending
	// text can never land after a newer Flush.
	saveMu sync.Mutex

	notify   chan struct{}
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New starts the saver goroutine. onError may be nil.
func New(store Store, delay time.Duration, onError func(error)) *Saver {
	if delay <= 0 {
		delay = DefaultDelay
	}
	s := &Saver{
		store:    store,
		delay:    delay,
		onError:  onError,
		notify:   make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.loop()
	logger.Debug("autosave started", "delay", delay)
	return s
}

// Request schedules text to be saved, replacing any text still waiting.
func (s *Saver) Request(text string) {
	s.mu.Lock()
	s.pending = text
	s.hasText = true
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Flush writes text now and drops any pending request.
func (s *Saver) Flush(ctx context.Context, text string) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.Lock()
	s.pending = ""
	s.hasText = false
	s.mu.Unlock()
	return s.write(ctx, text)
}

// Stop ends the goroutine and writes whatever request is still pending.
func (s *Saver) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
		err = s.writePending(context.Background())
		logger.Debug("autosave stopped")
	})
	return err
}

func (s *Saver) loop() {
	defer s.wg.Done()

	timer := time.NewTimer(s.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-s.notify:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.delay)
		case <-timer.C:
			_ = s.writePending(context.Background())
		case <-s.stopChan:
			return
		}
	}
}

func (s *Saver) take() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasText {
		return "", false
	}
	text := s.pending
	s.pending = ""
	s.hasText = false
	return text, true
}

// writePending writes the pending text, if any.
func (s *Saver) writePending(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	text, ok := s.take()
	if !ok {
		return nil
	}
	return s.write(ctx, text)
}

// write must be called with saveMu held.
func (s *Saver) write(ctx context.Context, text string) error {
	if err := s.store.Save(ctx, text); err != nil {
		logger.Error("autosave failed", "err", err)
		if s.onError != nil {
			s.onError(err)
		}
		return err
	}
	s.mu.Lock()
	s.written = text
	s.mu.Unlock()
	logger.Debug("saved", "bytes", len(text))
	return nil
}

// Written returns the text of the last successful write. Change watchers
// use it to tell their own saves from edits made by other programs.
func (s *Saver) Written() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}
