package mail

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Observer is told about every delivery attempt.
type Observer interface {
	MailSent(template string)
	MailFailed(template string)
}

type nopObserver struct{}

func (nopObserver) MailSent(string)   {}
func (nopObserver) MailFailed(string) {}

// DispatcherConfig sizes the worker pool.
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// Dispatcher renders and delivers mail on a fixed pool of workers.
// Enqueued mail never blocks the caller; failures are logged only.
type Dispatcher struct {
	renderer *Renderer
	sender   Sender
	observer Observer
	logger   *slog.Logger
	config   DispatcherConfig

	queue     chan Message
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a dispatcher. observer may be nil.
func NewDispatcher(renderer *Renderer, sender Sender, observer Observer, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Dispatcher{
		renderer: renderer,
		sender:   sender,
		observer: observer,
		logger:   logger,
		config:   cfg,
		queue:    make(chan Message, cfg.QueueSize),
	}
}

// Start launches the workers.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		d.logger.Info("starting mail dispatcher", slog.Int("workers", d.config.Workers))
		for i := 0; i < d.config.Workers; i++ {
			d.wg.Add(1)
			go d.worker()
		}
	})
}

// Stop refuses new mail and waits until the queue is drained.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("shutting down mail dispatcher", slog.Int("pending", len(d.queue)))
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

// Enqueue schedules msg for delivery. It reports false when the queue is
// full or the dispatcher is stopped.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("mail dropped, dispatcher stopped", slog.String("template", msg.Template))
		d.observer.MailFailed(msg.Template)
		return false
	}
	select {
	case d.queue <- msg:
		return true
	default:
		d.logger.Warn("mail dropped, queue full", slog.String("template", msg.Template))
		d.observer.MailFailed(msg.Template)
		return false
	}
}

// Send renders and delivers msg on the caller's goroutine.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	email, err := d.renderer.Render(msg)
	if err != nil {
		d.observer.MailFailed(msg.Template)
		return err
	}
	if err := d.sender.Send(ctx, email); err != nil {
		d.observer.MailFailed(msg.Template)
		return err
	}
	d.observer.MailSent(msg.Template)
	return nil
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.config.SendTimeout)
		if err := d.Send(ctx, msg); err != nil {
			d.logger.Error("failed to send mail",
				slog.String("template", msg.Template),
				slog.String("subject", msg.Subject),
				slog.String("error", err.Error()),
			)
		}
		cancel()
	}
}
