// internal/historian/historian.go
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jason-s-yu/crazyeights/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Store is where flushed batches end up.
type Store interface {
	SaveBatch(ctx context.Context, results []models.RoundResult, actions []models.ActionRecord) error
}

// Service pops round results and action records off Redis lists, accumulates them and flushes
// them to the Store in batches.
type Service struct {
	rdb         *redis.Client
	store       Store
	log         logrus.FieldLogger
	resultQueue string
	actionQueue string
	batchSize   int
	flushDelay  time.Duration
	popTimeout  time.Duration

	mu      sync.Mutex
	results []models.RoundResult
	actions []models.ActionRecord
}

// Options tune a Service. Zero values fall back to defaults.
type Options struct {
	ResultQueue string
	ActionQueue string
	BatchSize   int
	FlushDelay  time.Duration
	Logger      logrus.FieldLogger
}

// New builds a Service reading from rdb and writing to store.
func New(rdb *redis.Client, store Store, opts Options) *Service {
	if opts.BatchSize < 1 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Service{
		rdb:         rdb,
		store:       store,
		log:         opts.Logger,
		resultQueue: opts.ResultQueue,
		actionQueue: opts.ActionQueue,
		batchSize:   opts.BatchSize,
		flushDelay:  opts.FlushDelay,
		popTimeout:  3 * time.Second,
	}
}

// Run blocks until ctx is cancelled, then flushes whatever is still buffered.
func (s *Service) Run(ctx context.Context) {
	s.log.Info("historian started")
	go s.flushLoop(ctx)

	for ctx.Err() == nil {
		// A bounded BLPop lets cancellation be noticed.
		res, err := s.rdb.BLPop(ctx, s.popTimeout, s.resultQueue, s.actionQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				s.log.Errorf("BLPop: %v", err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(res) < 2 {
			continue
		}
		// res[0] is the queue name and res[1] the payload.
		s.handle(ctx, res[0], []byte(res[1]))
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(flushCtx)
	s.log.Info("historian stopped")
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.flushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.flush(ctx)
		}
	}
}

// handle decodes one popped payload and buffers it, flushing when the batch is full.
func (s *Service) handle(ctx context.Context, queue string, payload []byte) {
	s.mu.Lock()
	switch queue {
	case s.resultQueue:
		var res models.RoundResult
		if err := json.Unmarshal(payload, &res); err != nil {
			s.mu.Unlock()
			s.log.Warnf("invalid round result: %v", err)
			return
		}
		s.results = append(s.results, res)
	case s.actionQueue:
		var rec models.ActionRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			s.mu.Unlock()
			s.log.Warnf("invalid action record: %v", err)
			return
		}
		s.actions = append(s.actions, rec)
	default:
		s.mu.Unlock()
		s.log.Warnf("payload from unknown queue %q", queue)
		return
	}
	full := len(s.results)+len(s.actions) >= s.batchSize
	s.mu.Unlock()

	if full {
		s.flush(ctx)
	}
}

// flush writes the buffered batch. On failure the records are put back so the next flush retries
// them; the store ignores duplicates.
func (s *Service) flush(ctx context.Context) {
	s.mu.Lock()
	results, actions := s.results, s.actions
	s.results, s.actions = nil, nil
	s.mu.Unlock()

	if len(results) == 0 && len(actions) == 0 {
		return
	}
	if err := s.store.SaveBatch(ctx, results, actions); err != nil {
		s.log.Errorf("flush batch: %v", err)
		s.mu.Lock()
		s.results = append(results, s.results...)
		s.actions = append(actions, s.actions...)
		s.mu.Unlock()
		return
	}
	s.log.WithFields(logrus.Fields{
		"rounds":  len(results),
		"actions": len(actions),
	}).Debug("flushed batch to DB")
}

// Pending reports how many records are buffered.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results) + len(s.actions)
}
