package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/people-admin/console/internal/core/domain"
	"github.com/people-admin/console/internal/core/ports"
	"github.com/people-admin/console/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	insertTimeout  = 5 * time.Second
)

// Dispatcher persists console activities on a fixed set of workers. Activities
// on the same record hash to the same worker, so they are stored in the
// order they were recorded.
type Dispatcher struct {
	workers []chan domain.Activity
	repo    ports.ActivityRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.ActivityRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Activity, numWorkers),
		repo:    repo,
		log:     log.With().Str("component", "activity_dispatcher").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Activity, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their channel and stop
// when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker stopped.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Record implements ports.ActivityRecorder. It never blocks the request: an
// activity is dropped, and counted, when its worker is saturated.
func (d *Dispatcher) Record(activity domain.Activity) {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	idx := d.shardIndex(activity.Resource + ":" + activity.ResourceID)
	select {
	case d.workers[idx] <- activity:
		metrics.ActivityQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.ActivityErrorsTotal.Inc()
		d.log.Warn().
			Str("action", activity.Action).
			Str("resource", activity.Resource).
			Int("worker_id", idx).
			Msg("activity queue full, dropping")
	}
}

// shardIndex maps a record key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Activity) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case activity := <-ch:
			metrics.ActivityQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.persist(context.WithoutCancel(ctx), id, activity)
		}
	}
}

// drain flushes what is already queued so a shutdown loses nothing accepted.
func (d *Dispatcher) drain(id int, ch <-chan domain.Activity) {
	for {
		select {
		case activity := <-ch:
			d.persist(context.Background(), id, activity)
		default:
			return
		}
	}
}

func (d *Dispatcher) persist(ctx context.Context, id int, activity domain.Activity) {
	ctx, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()
	if err := d.repo.Insert(ctx, &activity); err != nil {
		metrics.ActivityErrorsTotal.Inc()
		d.log.Error().Err(err).
			Str("activity_id", activity.ID).
			Str("action", activity.Action).
			Int("worker_id", id).
			Msg("activity persistence failed")
	}
}
