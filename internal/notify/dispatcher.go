// Package notify entrega los codigos de verificacion y reporta el resultado
// como un valor en lugar de un error.
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"nutritrack/internal/email"
	"nutritrack/internal/metrics"
)

const ChannelEmail = "email"

// Outcome describe que paso con un envio.
type Outcome string

const (
	OutcomeSent   Outcome = "sent"
	OutcomeQueued Outcome = "queued"
	OutcomeFailed Outcome = "failed"
)

// Result es el resultado de un envio. Err solo se completa con OutcomeFailed.
type Result struct {
	Channel string
	Outcome Outcome
	Err     error
}

func (r Result) Failed() bool { return r.Outcome == OutcomeFailed }

// Dispatcher envia codigos por email con un timeout acotado. En modo async
// el envio corre en una goroutine registrada y Wait la espera al apagar.
type Dispatcher struct {
	logger  *zap.Logger
	sender  email.Sender
	metrics metrics.Recorder
	timeout time.Duration
	async   bool
	wg      sync.WaitGroup
}

func NewDispatcher(logger *zap.Logger, sender email.Sender, rec metrics.Recorder, timeout time.Duration, async bool) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		logger:  logger,
		sender:  sender,
		metrics: rec,
		timeout: timeout,
		async:   async,
	}
}

// SendVerificationCode entrega el codigo. El contexto de la request solo se
// usa en modo sincrono; en modo async el envio sobrevive a la request.
func (d *Dispatcher) SendVerificationCode(ctx context.Context, to, code string, expiresAt time.Time) Result {
	if !d.async {
		return d.deliver(ctx, to, code, expiresAt)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(context.Background(), to, code, expiresAt)
	}()
	return Result{Channel: ChannelEmail, Outcome: OutcomeQueued}
}

func (d *Dispatcher) deliver(ctx context.Context, to, code string, expiresAt time.Time) Result {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.sender.SendVerificationOTP(ctx, to, code, expiresAt); err != nil {
		d.logger.Warn("verification code delivery failed",
			zap.String("email", to),
			zap.Error(err),
		)
		d.metrics.RecordNotification(ChannelEmail, string(OutcomeFailed))
		return Result{Channel: ChannelEmail, Outcome: OutcomeFailed, Err: err}
	}
	d.metrics.RecordNotification(ChannelEmail, string(OutcomeSent))
	return Result{Channel: ChannelEmail, Outcome: OutcomeSent}
}

// Wait bloquea hasta que terminen los envios en curso o venza ctx.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
