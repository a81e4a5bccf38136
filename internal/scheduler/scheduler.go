// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const component = "scheduler"

// purgeTimeout bounds one purge run.
const purgeTimeout = time.Minute

// TokenPurger deletes refresh tokens that expired or were revoked before now.
type TokenPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// PurgeObserver is told how many tokens each run removed.
type PurgeObserver interface {
	TokensPurged(n int64)
}

// parser accepts standard five-field specs and descriptors like @daily.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type Scheduler struct {
	purger   TokenPurger
	observer PurgeObserver
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// New returns a stopped scheduler.  observer may be nil.
func New(purger TokenPurger, observer PurgeObserver) *Scheduler {
	if purger == nil {
		panic("scheduler: nil TokenPurger")
	}
	return &Scheduler{purger: purger, observer: observer, now: time.Now}
}

// Start registers the purge job on spec and starts the cron engine.  A
// second Start while running is a no-op.
func (s *Scheduler) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	logger := cron.VerbosePrintfLogger(logrus.WithField("component", component))
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, s.PurgeTokens); err != nil {
		return fmt.Errorf("invalid token purge spec %q: %w", spec, err)
	}
	c.Start()
	s.cron = c
	s.running = true

	logrus.WithFields(logrus.Fields{"component": component, "spec": spec}).Info("refresh token purge scheduled")
	return nil
}

// Stop halts the engine and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
	s.running = false
	logrus.WithField("component", component).Info("scheduler stopped")
}

// PurgeTokens runs the purge once.
func (s *Scheduler) PurgeTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	n, err := s.purger.PurgeExpired(ctx, s.now().UTC())
	log := logrus.WithField("component", component)
	if err != nil {
		log.WithError(err).Error("refresh token purge failed")
		return
	}
	if s.observer != nil {
		s.observer.TokensPurged(n)
	}
	log.WithField("purged", n).Info("refresh token purge finished")
}
