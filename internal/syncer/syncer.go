package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"rewardhub/internal/logger"
	"rewardhub/internal/metrics"
	"rewardhub/internal/model"
	"rewardhub/internal/repository"
)

var ErrUnknownOp = errors.New("unknown sync operation")

// Publisher forwards applied events to the downstream feed.
type Publisher interface {
	Publish(key string, value []byte) error
}

// Syncer mirrors local mutations to the remote record store.
//
// Events are applied one at a time, in enqueue order, by a single worker.
// Delivery is best effort: a full queue drops the event, and a failed
// remote write is logged and counted, never retried.
type Syncer struct {
	store     repository.RecordStore
	publisher Publisher

	queue    chan model.SyncEvent
	stopCh   chan struct{}
	running  atomic.Bool
	inflight atomic.Int64

	applyTimeout time.Duration
	log          *slog.Logger
}

type Option func(*Syncer)

func WithPublisher(p Publisher) Option {
	return func(s *Syncer) { s.publisher = p }
}

func WithApplyTimeout(d time.Duration) Option {
	return func(s *Syncer) { s.applyTimeout = d }
}

func New(store repository.RecordStore, queueSize int, opts ...Option) *Syncer {
	if queueSize <= 0 {
		queueSize = 1
	}
	s := &Syncer{
		store:        store,
		queue:        make(chan model.SyncEvent, queueSize),
		stopCh:       make(chan struct{}),
		applyTimeout: 5 * time.Second,
		log:          logger.WithComponent("Syncer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue never blocks.
func (s *Syncer) Enqueue(ev model.SyncEvent) {
	s.inflight.Add(1)
	select {
	case s.queue <- ev:
		metrics.SetSyncQueueLength(len(s.queue))
	default:
		s.inflight.Add(-1)
		metrics.RecordSync(ev.Collection, ev.Op, metrics.ResultDropped)
		s.log.Error("sync queue full, event dropped",
			"collection", ev.Collection, "op", ev.Op, "key", ev.Key())
	}
}

// Start runs the worker until ctx is done or Stop is called.
func (s *Syncer) Start(ctx context.Context) {
	s.running.Store(true)
	defer s.running.Store(false)

	s.log.Info("sync worker started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info("context done, sync worker exiting", "queued", len(s.queue))
			return
		case <-s.stopCh:
			s.log.Info("sync worker stopped", "queued", len(s.queue))
			return
		case ev := <-s.queue:
			s.process(ctx, ev)
		}
	}
}

func (s *Syncer) Stop() {
	close(s.stopCh)
}

// Pending is the number of events enqueued but not yet applied.
func (s *Syncer) Pending() int64 {
	return s.inflight.Load()
}

// Drain returns once every queued event has been applied. With the worker
// running it waits for it; otherwise it applies the queue itself.
func (s *Syncer) Drain(ctx context.Context) error {
	if s.running.Load() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for s.inflight.Load() > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.queue:
			s.process(ctx, ev)
		default:
			return nil
		}
	}
}

func (s *Syncer) process(ctx context.Context, ev model.SyncEvent) {
	defer func() {
		s.inflight.Add(-1)
		metrics.SetSyncQueueLength(len(s.queue))
	}()

	applyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.applyTimeout)
	defer cancel()

	if err := s.apply(applyCtx, ev); err != nil {
		result := metrics.ResultFailed
		if errors.Is(err, repository.ErrVersionConflict) {
			result = metrics.ResultConflict
		}
		metrics.RecordSync(ev.Collection, ev.Op, result)
		s.log.Error("remote sync failed",
			"collection", ev.Collection, "op", ev.Op, "key", ev.Key(), "error", err)
		return
	}
	metrics.RecordSync(ev.Collection, ev.Op, metrics.ResultOK)
	s.publish(ev)
}

func (s *Syncer) apply(ctx context.Context, ev model.SyncEvent) error {
	switch ev.Op {
	case model.SyncOpInsert:
		return s.store.Insert(ctx, ev.Collection, ev.Record)
	case model.SyncOpUpdate:
		_, err := s.store.Update(ctx, ev.Collection, ev.Match, ev.Record)
		return err
	case model.SyncOpDelete:
		return s.store.Delete(ctx, ev.Collection, ev.Match)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, ev.Op)
	}
}

func (s *Syncer) publish(ev model.SyncEvent) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		s.log.Error("encode sync event", "key", ev.Key(), "error", err)
		return
	}
	if err := s.publisher.Publish(ev.Key(), payload); err != nil {
		s.log.Warn("publish sync event failed", "key", ev.Key(), "error", err)
	}
}
