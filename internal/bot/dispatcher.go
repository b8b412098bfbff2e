package bot

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"contract-bot/internal/common/logger"
	"contract-bot/internal/common/metrics"
)

var ErrDispatcherClosed = errors.New("dispatcher is stopped")

// Handler consumes events for one chat at a time.
type Handler interface {
	Handle(ctx context.Context, ev Event)
}

// Dispatcher fans events out to a fixed set of workers. Events of one chat always land on
// the same worker, so they are handled in arrival order while other chats run in parallel.
type Dispatcher struct {
	handler Handler
	shards  []chan Event
	logger  logger.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func NewDispatcher(handler Handler, workers, queueSize int, log logger.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	d := &Dispatcher{
		handler: handler,
		shards:  make([]chan Event, workers),
		logger:  log.With(map[string]interface{}{"component": "dispatcher"}),
	}
	for i := range d.shards {
		d.shards[i] = make(chan Event, queueSize)
	}
	return d
}

// Start launches the workers. Handlers receive ctx; cancelling it does not drop queued
// events, Stop does that by draining.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i, ch := range d.shards {
		d.wg.Add(1)
		go d.work(ctx, i, ch)
	}
	d.logger.Info("dispatcher started", map[string]interface{}{"workers": len(d.shards)})
}

func (d *Dispatcher) work(ctx context.Context, shard int, ch <-chan Event) {
	defer d.wg.Done()
	label := strconv.Itoa(shard)
	for ev := range ch {
		metrics.DispatcherQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
		d.handler.Handle(ctx, ev)
	}
}

func (d *Dispatcher) shardFor(chatID int64) int {
	return int(uint64(chatID) % uint64(len(d.shards)))
}

// Submit queues ev on its chat's worker, waiting while the queue is full.
func (d *Dispatcher) Submit(ctx context.Context, ev Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}
	shard := d.shardFor(ev.ChatID)
	select {
	case d.shards[shard] <- ev:
		metrics.DispatcherQueueDepth.WithLabelValues(strconv.Itoa(shard)).Set(float64(len(d.shards[shard])))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop refuses new events, lets the workers finish what is queued and waits for them.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.shards {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
	d.logger.Info("dispatcher stopped", nil)
}

// Sweeper periodically turns expired pending edits into KindExpire events.
type Sweeper struct {
	router     *Router
	dispatcher *Dispatcher
	interval   time.Duration
	logger     logger.Logger
}

func NewSweeper(router *Router, dispatcher *Dispatcher, interval time.Duration, log logger.Logger) *Sweeper {
	return &Sweeper{
		router:     router,
		dispatcher: dispatcher,
		interval:   interval,
		logger:     log.With(map[string]interface{}{"component": "sweeper"}),
	}
}

// Run sweeps until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce enqueues one expire event per stale edit and returns how many were queued.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	chats, err := s.router.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("pending edit sweep failed", map[string]interface{}{"error": err})
		return 0
	}
	queued := 0
	for _, chatID := range chats {
		if err := s.dispatcher.Submit(ctx, Event{ChatID: chatID, Kind: KindExpire}); err != nil {
			s.logger.Warn("could not queue edit expiry", map[string]interface{}{"chatId": chatID, "error": err})
			continue
		}
		queued++
	}
	if queued > 0 {
		s.logger.Debug("queued edit expiries", map[string]interface{}{"count": queued})
	}
	return queued
}
