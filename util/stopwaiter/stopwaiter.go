// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

// Package stopwaiter owns the background threads of a component and stops
// them together.
package stopwaiter

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

const stopDelayWarningTimeout = 30 * time.Second

var (
	ErrNotStarted     = errors.New("not started")
	ErrStartedTwice   = errors.New("start after start")
	ErrAlreadyStopped = errors.New("already stopped")
)

type StopWaiter struct {
	mutex    sync.Mutex // protects started, stopped, ctx, stopFunc
	started  bool
	stopped  bool
	ctx      context.Context
	stopFunc context.CancelFunc
	name     string

	wg sync.WaitGroup
}

func (s *StopWaiter) Started() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.started
}

func (s *StopWaiter) Stopped() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.stopped
}

// Start derives the context threads run under. Starting after a stop
// yields an already cancelled context.
func (s *StopWaiter) Start(ctx context.Context, parent any) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.started {
		return ErrStartedTwice
	}
	s.started = true
	// remove asterisk in case the type is a pointer
	s.name = strings.Replace(reflect.TypeOf(parent).String(), "*", "", 1)
	s.ctx, s.stopFunc = context.WithCancel(ctx)
	if s.stopped {
		s.stopFunc()
	}
	return nil
}

func (s *StopWaiter) GetContext() (context.Context, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.ctx, nil
}

// LaunchThread runs foo until its context is cancelled by StopAndWait.
func (s *StopWaiter) LaunchThread(foo func(context.Context)) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	if s.stopped {
		return ErrAlreadyStopped
	}
	s.wg.Add(1)
	go func(ctx context.Context) {
		defer s.wg.Done()
		foo(ctx)
	}(s.ctx)
	return nil
}

// CallIteratively calls foo in a thread, waiting the duration it returns
// between calls.
func (s *StopWaiter) CallIteratively(foo func(context.Context) time.Duration) error {
	return s.LaunchThread(func(ctx context.Context) {
		for {
			interval := foo(ctx)
			if ctx.Err() != nil {
				return
			}
			if interval == 0 {
				continue
			}
			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	})
}

// StopAndWait may be called multiple times, even before start.
func (s *StopWaiter) StopAndWait() {
	s.stopAndWait(stopDelayWarningTimeout)
}

func (s *StopWaiter) stopAndWait(warningTimeout time.Duration) {
	s.mutex.Lock()
	wasRunning := s.started && !s.stopped
	s.stopped = true
	if wasRunning {
		s.stopFunc()
	}
	s.mutex.Unlock()
	if !wasRunning {
		return
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	timer := time.NewTimer(warningTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return
	case <-timer.C:
		log.Warn("taking too long to stop", "name", s.name, "delay[s]", warningTimeout.Seconds())
	}
	<-done
}
