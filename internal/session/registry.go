package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"transitmap.onebusaway.org/internal/logging"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrRegistryClosed = errors.New("session registry closed")
)

// Factory builds the value held by a new session.
type Factory[T any] func(id string) (T, error)

type entry[T any] struct {
	value    T
	lastSeen time.Time
}

// Registry owns every live session. All reads and writes of session values
// run on one goroutine, so values need no locking of their own.
type Registry[T any] struct {
	factory  Factory[T]
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
	sessions map[string]*entry[T]

	cmds      chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewRegistry starts the registry goroutine. Sessions idle for longer than
// ttl are evicted; a zero ttl disables eviction.
func NewRegistry[T any](factory Factory[T], ttl time.Duration, logger *slog.Logger) *Registry[T] {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry[T]{
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[string]*entry[T]),
		cmds:     make(chan func()),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *Registry[T]) loop() {
	defer close(r.done)

	var tick <-chan time.Time
	if r.ttl > 0 {
		interval := r.ttl / 2
		if interval > time.Minute {
			interval = time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case cmd := <-r.cmds:
			cmd()
		case <-tick:
			r.evict()
		case <-r.quit:
			return
		}
	}
}

func (r *Registry[T]) evict() {
	cutoff := r.now().Add(-r.ttl)
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			logging.LogOperation(r.logger, "session_evicted", slog.String("session_id", id))
		}
	}
}

// exec runs fn on the registry goroutine and waits for it. A panic in fn is
// returned as an error and leaves the registry running.
func (r *Registry[T]) exec(ctx context.Context, fn func() error) error {
	var err error
	finished := make(chan struct{})
	cmd := func() {
		defer close(finished)
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("session command panicked: %v", p)
			}
		}()
		err = fn()
	}

	select {
	case r.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-r.quit:
		return ErrRegistryClosed
	}
	<-finished
	return err
}

// Create builds a new session and returns its id.
func (r *Registry[T]) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	err := r.exec(ctx, func() error {
		value, err := r.factory(id)
		if err != nil {
			return err
		}
		r.sessions[id] = &entry[T]{value: value, lastSeen: r.now()}
		return nil
	})
	if err != nil {
		return "", err
	}
	logging.LogOperation(r.logger, "session_created", slog.String("session_id", id))
	return id, nil
}

// Do runs fn against the session value on the registry goroutine.
func (r *Registry[T]) Do(ctx context.Context, id string, fn func(T) error) error {
	return r.exec(ctx, func() error {
		e, ok := r.sessions[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSession, id)
		}
		e.lastSeen = r.now()
		return fn(e.value)
	})
}

// Delete drops a session. Deleting an unknown id is not an error.
func (r *Registry[T]) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, func() error {
		delete(r.sessions, id)
		return nil
	})
}

func (r *Registry[T]) Len(ctx context.Context) (int, error) {
	var n int
	err := r.exec(ctx, func() error {
		n = len(r.sessions)
		return nil
	})
	return n, err
}

// Close stops the registry goroutine. It is safe to call more than once.
func (r *Registry[T]) Close() {
	r.closeOnce.Do(func() { close(r.quit) })
	<-r.done
}
