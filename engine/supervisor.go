package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Supervisor runs one engine per ticker and stops them by cancelling
// their contexts.
type Supervisor struct {
	mu      sync.Mutex
	running map[string]*instance
	group   *errgroup.Group
	ctx     context.Context
}

type instance struct {
	eng    *Engine
	cancel context.CancelFunc
}

func NewSupervisor(ctx context.Context) *Supervisor {
	g, gctx := errgroup.WithContext(ctx)
	return &Supervisor{
		running: make(map[string]*instance),
		group:   g,
		ctx:     gctx,
	}
}

// Start launches an engine goroutine for its ticker. A ticker can run at
// most one engine at a time.
func (s *Supervisor) Start(eng *Engine) error {
	ticker := eng.cfg.Ticker

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.running[ticker]; dup {
		return fmt.Errorf("engine for %s already running", ticker)
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.running[ticker] = &instance{eng: eng, cancel: cancel}

	s.group.Go(func() error {
		defer func() {
			s.mu.Lock()
			delete(s.running, ticker)
			s.mu.Unlock()
		}()
		return eng.Run(ctx)
	})
	return nil
}

// Stop cancels a single ticker's engine. The position, if any, is left
// open; the engine reports it in its stop notification.
func (s *Supervisor) Stop(ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.running[ticker]
	if !ok {
		return fmt.Errorf("no engine running for %s", ticker)
	}
	inst.cancel()
	return nil
}

// StopAll cancels every running engine.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inst := range s.running {
		inst.cancel()
	}
}

// Wait blocks until every engine has returned and yields the first
// fatal error, if any.
func (s *Supervisor) Wait() error {
	return s.group.Wait()
}

// Status returns a snapshot per running engine, sorted by ticker.
func (s *Supervisor) Status() []Snapshot {
	s.mu.Lock()
	engines := make([]*Engine, 0, len(s.running))
	for _, inst := range s.running {
		engines = append(engines, inst.eng)
	}
	s.mu.Unlock()

	snaps := make([]Snapshot, 0, len(engines))
	for _, eng := range engines {
		snaps = append(snaps, eng.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Ticker < snaps[j].Ticker })
	return snaps
}
