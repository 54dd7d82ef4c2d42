// Package cleanup removes rooms that have gone idle so the drawing
// log store doesn't grow without bound.
package cleanup

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/andikafarhan/coretan/internal/store"
)

// Config controls how often the sweep runs and how long a room may
// sit idle before it is removed.
type Config struct {
	Interval time.Duration
	IdleTTL  time.Duration
}

// Service periodically deletes idle rooms and their drawing logs.
type Service struct {
	store  *store.Store
	config Config

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates a cleanup service. Start must be called to begin sweeping.
func New(st *store.Store, cfg Config) *Service {
	return &Service{
		store:  st,
		config: cfg,
		stop:   make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (s *Service) Start() {
	s.wg.Add(1)
	go s.run()
	log.Printf("Cleanup service started (interval=%s, idle TTL=%s)", s.config.Interval, s.config.IdleTTL)
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
func (s *Service) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Service) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepNow(context.Background())
		case <-s.stop:
			return
		}
	}
}

// SweepNow deletes every room whose last activity is older than the
// idle TTL. It returns how many rooms were removed.
func (s *Service) SweepNow(ctx context.Context) int {
	cutoff := time.Now().Add(-s.config.IdleTTL)

	removed, err := s.store.DeleteIdleRooms(ctx, cutoff)
	if err != nil {
		log.Printf("Cleanup sweep failed: %v", err)
		return 0
	}
	if removed > 0 {
		log.Printf("Cleanup removed %d idle room(s)", removed)
	}
	return removed
}
