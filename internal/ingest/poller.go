// Package ingest runs the background mailbox poller that feeds mailbox
// attachments through the same submission pipeline as interactive uploads.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"potracker/internal/classification"
	"potracker/internal/domain"
	"potracker/internal/errors"
	"potracker/internal/mailbox"
)

type Submitter interface {
	Submit(ctx context.Context, doc classification.Document) (domain.Outcome, error)
}

// PollResult summarises one pass over the mailbox.
type PollResult struct {
	PollID    string
	Listed    int
	Documents int
	Consumed  int
	Deferred  int
	Outcomes  map[domain.OutcomeKind]int
	Err       error
}

type Poller struct {
	mailbox   mailbox.Mailbox
	submitter Submitter
	filter    mailbox.SubjectFilter
	interval  time.Duration
	notify    <-chan struct{}
	logger    *zap.Logger
}

type Option func(*Poller)

// WithNotifications wakes the poller early whenever ch delivers. The fixed
// interval keeps running regardless.
func WithNotifications(ch <-chan struct{}) Option {
	return func(p *Poller) {
		p.notify = ch
	}
}

func NewPoller(mb mailbox.Mailbox, submitter Submitter, filter mailbox.SubjectFilter, interval time.Duration, logger *zap.Logger, opts ...Option) *Poller {
	p := &Poller{
		mailbox:   mb,
		submitter: submitter,
		filter:    filter,
		interval:  interval,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls once immediately and then on every tick until ctx is done. A
// document already handed to the pipeline finishes before Run returns.
func (p *Poller) Run(ctx context.Context) error {
	if p.interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", p.interval)
	}

	p.logger.Info("mailbox poller started",
		zap.Duration("interval", p.interval),
		zap.Strings("subjectKeywords", p.filter.Keywords()),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	notify := p.notify
	p.PollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("mailbox poller stopped")
			return nil
		case <-ticker.C:
		case _, ok := <-notify:
			if !ok {
				notify = nil
				continue
			}
		}
		if ctx.Err() != nil {
			p.logger.Info("mailbox poller stopped")
			return nil
		}
		p.PollOnce(ctx)
	}
}

// PollOnce makes a single pass. Failures are logged and reported in the
// result; they never stop the loop.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	result := PollResult{
		PollID:   uuid.New().String(),
		Outcomes: make(map[domain.OutcomeKind]int),
	}
	logger := p.logger.With(zap.String("pollId", result.PollID))
	start := time.Now()

	msgs, err := p.mailbox.ListUnseen(ctx, p.filter)
	if err != nil {
		logger.Warn("mailbox unavailable, retrying next interval", zap.Error(err))
		result.Err = err
		return result
	}
	result.Listed = len(msgs)

	for _, msg := range msgs {
		if ctx.Err() != nil {
			logger.Info("shutdown requested, leaving remaining messages unseen", zap.Int("remaining", len(msgs)-result.Consumed-result.Deferred))
			break
		}
		p.processMessage(ctx, logger.With(zap.String("messageId", msg.ID), zap.String("subject", msg.Subject)), msg, &result)
	}

	if result.Listed > 0 {
		logger.Info("mailbox poll finished",
			zap.Int("listed", result.Listed),
			zap.Int("documents", result.Documents),
			zap.Int("consumed", result.Consumed),
			zap.Int("deferred", result.Deferred),
			zap.Duration("elapsed", time.Since(start)),
		)
	} else {
		logger.Debug("mailbox poll finished, nothing unseen")
	}
	return result
}

func (p *Poller) processMessage(ctx context.Context, logger *zap.Logger, msg mailbox.Message, result *PollResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("message processing panicked", zap.Any("panic", r))
			result.Deferred++
		}
	}()

	pdfs := msg.PDFAttachments()
	if len(pdfs) == 0 {
		logger.Info("message skipped, no PDF attachment", zap.Int("attachments", len(msg.Attachments)))
	}

	deferred := false
	for i, att := range pdfs {
		if i > 0 && ctx.Err() != nil {
			deferred = true
			break
		}

		// the in-flight document outlives a shutdown signal
		outcome, err := p.submitter.Submit(context.WithoutCancel(ctx), classification.Document{
			Filename: att.Filename,
			MIMEType: classification.MIMETypePDF,
			Data:     att.Data,
		})
		result.Documents++
		result.Outcomes[outcome.Kind]++

		fields := []zap.Field{
			zap.String("filename", att.Filename),
			zap.String("outcome", string(outcome.Kind)),
			zap.String("poNumber", outcome.PONumber),
			zap.String("reason", outcome.Reason),
		}
		if err != nil {
			if _, ok := errors.IsTransientIOError(err); ok {
				deferred = true
			}
			logger.Warn("attachment failed", append(fields, zap.Error(err))...)
			continue
		}
		logger.Info("attachment processed", fields...)
	}

	if deferred {
		result.Deferred++
		logger.Warn("message left unseen for the next interval")
		return
	}

	if err := p.mailbox.MarkConsumed(context.WithoutCancel(ctx), msg); err != nil {
		logger.Error("failed to mark message consumed", zap.Error(err))
		return
	}
	result.Consumed++
}
