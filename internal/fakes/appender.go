// Package fakes provides test doubles shared across package tests.
package fakes

import (
	"context"
	"errors"
	"sync"

	sheetqueue "github.com/ideamans/go-sheetqueue"
)

// Appender records every append request and fails on demand
type Appender struct {
	mu    sync.Mutex
	calls []sheetqueue.AppendRequest
	err   error
	fails map[string]error // sheetName -> error
	block chan struct{}
}

// NewAppender creates an Appender that succeeds on every call
func NewAppender() *Appender {
	return &Appender{
		fails: make(map[string]error),
	}
}

// FailWith makes every following call return message as an error; "" restores success
func (a *Appender) FailWith(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if message == "" {
		a.err = nil
		return
	}
	a.err = errors.New(message)
}

// FailSheet makes calls for sheetName return message as an error
func (a *Appender) FailSheet(sheetName, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.fails[sheetName] = errors.New(message)
}

// Block makes calls wait until Release is called or ctx is done
func (a *Appender) Block() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.block = make(chan struct{})
}

// Release unblocks waiting calls
func (a *Appender) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.block != nil {
		close(a.block)
		a.block = nil
	}
}

// Append implements sheetqueue.Appender
func (a *Appender) Append(ctx context.Context, req sheetqueue.AppendRequest) error {
	a.mu.Lock()
	a.calls = append(a.calls, req)
	block := a.block
	err := a.err
	if sheetErr, ok := a.fails[req.SheetName]; ok {
		err = sheetErr
	}
	a.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Calls returns a copy of the recorded requests
func (a *Appender) Calls() []sheetqueue.AppendRequest {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]sheetqueue.AppendRequest, len(a.calls))
	copy(out, a.calls)
	return out
}

// CallCount returns the number of recorded requests
func (a *Appender) CallCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.calls)
}

// Store is a sheetqueue.Store whose reads and writes can be made to fail
type Store struct {
	*sheetqueue.MemoryStore

	mu       sync.Mutex
	getErrs  []error
	putErr   error
	getCalls int
	putCalls int
}

// NewStore wraps a fresh MemoryStore
func NewStore() *Store {
	return &Store{MemoryStore: sheetqueue.NewMemoryStore()}
}

// FailGets makes the next len(errs) Get calls return errs in order
func (s *Store) FailGets(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getErrs = append(s.getErrs, errs...)
}

// FailPuts makes every Put return err; nil restores success
func (s *Store) FailPuts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.putErr = err
}

// Get implements sheetqueue.Store
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	s.getCalls++
	if len(s.getErrs) > 0 {
		err := s.getErrs[0]
		s.getErrs = s.getErrs[1:]
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	return s.MemoryStore.Get(ctx, key)
}

// Put implements sheetqueue.Store
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	s.putCalls++
	err := s.putErr
	s.mu.Unlock()

	if err != nil {
		return err
	}
	return s.MemoryStore.Put(ctx, key, data)
}

// GetCalls returns how many times Get was called
func (s *Store) GetCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getCalls
}

// PutCalls returns how many times Put was called
func (s *Store) PutCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.putCalls
}
