// Package worker runs background consumers of domain events.
package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/reclamos-service/internal/events"
)

const defaultQueueSize = 256

// Notifier delivers one event. *service.NotificationService satisfies it.
type Notifier interface {
	EventTypes() []events.EventType
	Notify(ctx context.Context, event events.Event) error
}

// NotificationWorker moves events off the request path. Publishers only
// enqueue; a single goroutine drains the queue into the Notifier.
type NotificationWorker struct {
	notifier Notifier
	logger   *zap.Logger
	queue    chan events.Event

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
}

// StartNotificationWorker subscribes to every event the notifier handles and
// starts draining. Call Stop to flush the queue on shutdown.
func StartNotificationWorker(dispatcher events.Dispatcher, notifier Notifier, logger *zap.Logger, queueSize int) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	w := &NotificationWorker{
		notifier: notifier,
		logger:   logger,
		queue:    make(chan events.Event, queueSize),
		done:     make(chan struct{}),
	}
	types := notifier.EventTypes()
	for _, eventType := range types {
		dispatcher.Subscribe(eventType, w.enqueue)
	}
	go w.run()
	logger.Info("notification worker started", zap.Int("event_types", len(types)), zap.Int("queue_size", queueSize))
	return w
}

// enqueue never blocks the publisher. A full queue drops the event.
func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return nil
	}
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full; dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("subject_id", event.SubjectID))
	}
	return nil
}

func (w *NotificationWorker) run() {
	defer close(w.done)
	for event := range w.queue {
		if err := w.notifier.Notify(context.Background(), event); err != nil {
			w.logger.Warn("notification failed",
				zap.String("event_type", string(event.Type)),
				zap.String("subject_id", event.SubjectID),
				zap.Error(err))
		}
	}
}

// Stop rejects new events, delivers the queued ones and returns once the
// queue is empty or ctx is done.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
