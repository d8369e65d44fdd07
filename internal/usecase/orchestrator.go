package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/deadletter"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/event"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/ledger"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/logging"
)

// RetryPolicy bounds one event's processing attempts. Backoff grows as
// base * 2^(attempt-1), capped at MaxBackoff.
type RetryPolicy struct {
	MaxAttempts    int
	BaseBackoff    time.Duration
	MaxBackoff     time.Duration
	AttemptTimeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		BaseBackoff:    time.Second,
		MaxBackoff:     30 * time.Second,
		AttemptTimeout: 30 * time.Second,
	}
}

func NormalizeRetryPolicy(p RetryPolicy) RetryPolicy {
	defaults := DefaultRetryPolicy()
	if p.MaxAttempts < 1 {
		p.MaxAttempts = defaults.MaxAttempts
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = defaults.BaseBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = defaults.MaxBackoff
	}
	if p.AttemptTimeout <= 0 {
		p.AttemptTimeout = defaults.AttemptTimeout
	}
	return p
}

// Backoff returns the wait before the next attempt. attempt is 1-based.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BaseBackoff << (attempt - 1)
	if delay > p.MaxBackoff {
		delay = p.MaxBackoff
	}
	return delay
}

// AlertFunc is the optional side channel fired on dead-letter entries. It
// must not block or fail the main path; the orchestrator calls it in a
// goroutine and ignores its outcome.
type AlertFunc func(entry deadletter.Entry)

// Orchestrator is the single place deciding retry, dead-letter or success.
// Handlers never let an error escape past it.
type Orchestrator struct {
	policy      RetryPolicy
	ledger      ledger.Ledger
	deadLetters deadletter.Store
	alert       AlertFunc
	service     string
	logger      *logging.Logger

	// sleep is swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(
	policy RetryPolicy,
	idempotency ledger.Ledger,
	deadLetters deadletter.Store,
	alert AlertFunc,
	service string,
	logger *logging.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Orchestrator{
		policy:      NormalizeRetryPolicy(policy),
		ledger:      idempotency,
		deadLetters: deadLetters,
		alert:       alert,
		service:     service,
		logger:      logger,
		sleep:       sleepContext,
	}
}

// Process runs one event through one handler: ledger check, bounded
// attempts with exponential backoff, dead-letter on exhaustion or fatal
// error. The returned error is informational; the event is terminally
// settled either way.
func (o *Orchestrator) Process(ctx context.Context, evt event.Event, handler Handler) error {
	ctx, span := startUsecaseSpan(ctx, "Orchestrator.Process")
	defer span.End()

	if evt.ID == "" {
		err := fmt.Errorf("%w: event id is required", ErrInvalidPayload)
		o.deadLetter(ctx, evt, handler, deadletter.ReasonInvalidPayload, err)
		return err
	}

	proceed, err := o.begin(ctx, evt, handler)
	if err != nil || !proceed {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= o.policy.MaxAttempts; attempt++ {
		lastErr = o.attempt(ctx, evt, handler)
		if lastErr == nil {
			o.commit(ctx, evt, handler)
			return nil
		}

		if IsFatal(lastErr) {
			o.logger.ErrorContext(ctx, "event failed with non-retryable error",
				"event_id", evt.ID,
				"event_type", evt.Type,
				"handler", handler.Name(),
				"error", lastErr,
			)
			o.release(ctx, evt, handler)
			o.deadLetter(ctx, evt, handler, deadletter.ReasonInvalidPayload, lastErr)
			return lastErr
		}

		o.logger.WarnContext(ctx, "event attempt failed",
			"event_id", evt.ID,
			"event_type", evt.Type,
			"handler", handler.Name(),
			"attempt", attempt,
			"max_attempts", o.policy.MaxAttempts,
			"error", lastErr,
		)

		if attempt == o.policy.MaxAttempts {
			break
		}
		if err := o.sleep(ctx, o.policy.Backoff(attempt)); err != nil {
			// Shutdown or a rebalance interrupted the backoff. The
			// retries were not exhausted: release the processing mark
			// and let redelivery pick the event up again.
			o.logger.InfoContext(ctx, "retry wait interrupted",
				"event_id", evt.ID,
				"event_type", evt.Type,
				"handler", handler.Name(),
				"error", err,
			)
			o.release(ctx, evt, handler)
			return err
		}
	}

	o.release(ctx, evt, handler)
	o.deadLetter(ctx, evt, handler, deadletter.ReasonMaxRetriesExceeded, lastErr)
	return lastErr
}

// ledgerKey scopes ledger records per handler. One event fans out to
// several handlers; each must run exactly once, independently of the
// others.
func ledgerKey(evt event.Event, handler Handler) string {
	return evt.ID + ":" + handler.Name()
}

func (o *Orchestrator) begin(ctx context.Context, evt event.Event, handler Handler) (bool, error) {
	state, err := o.ledger.Begin(ctx, ledgerKey(evt, handler))
	if err != nil {
		// Degraded ledger store. Never silently proceed as "new": ask the
		// handler whether the derived state already reflects this event.
		o.logger.WarnContext(ctx, "idempotency ledger unavailable, using fallback check",
			"event_id", evt.ID,
			"error", err,
		)
		applied, checkErr := handler.AlreadyApplied(ctx, evt)
		if checkErr != nil {
			return false, fmt.Errorf("%w: ledger down and fallback check failed: %v", ErrDependencyUnavailable, checkErr)
		}
		if applied {
			return false, nil
		}
		return true, nil
	}

	switch state {
	case ledger.BeginAlreadyProcessed:
		o.logger.DebugContext(ctx, "duplicate delivery ignored",
			"event_id", evt.ID,
			"event_type", evt.Type,
			"handler", handler.Name(),
		)
		return false, nil
	case ledger.BeginAlreadyProcessing:
		// A concurrent delivery owns this event right now.
		o.logger.InfoContext(ctx, "event already in flight elsewhere",
			"event_id", evt.ID,
			"event_type", evt.Type,
			"handler", handler.Name(),
		)
		return false, nil
	default:
		return true, nil
	}
}

func (o *Orchestrator) attempt(ctx context.Context, evt event.Event, handler Handler) error {
	attemptCtx, cancel := context.WithTimeout(ctx, o.policy.AttemptTimeout)
	defer cancel()
	return handler.Handle(attemptCtx, evt)
}

func (o *Orchestrator) commit(ctx context.Context, evt event.Event, handler Handler) {
	summary := "processed by " + o.service + "/" + handler.Name()
	if err := o.ledger.Commit(ctx, ledgerKey(evt, handler), summary); err != nil {
		// The work is done; a lost commit only risks one extra no-op
		// reprocessing guarded by upsert semantics.
		o.logger.WarnContext(ctx, "ledger commit failed",
			"event_id", evt.ID,
			"error", err,
		)
	}
}

func (o *Orchestrator) release(ctx context.Context, evt event.Event, handler Handler) {
	if err := o.ledger.Release(ctx, ledgerKey(evt, handler)); err != nil {
		o.logger.WarnContext(ctx, "ledger release failed",
			"event_id", evt.ID,
			"error", err,
		)
	}
}

func (o *Orchestrator) deadLetter(ctx context.Context, evt event.Event, handler Handler, reason string, cause error) {
	entry := deadletter.Entry{
		Event:    evt,
		Reason:   reason,
		FailedAt: time.Now().UTC(),
		Service:  o.service,
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	if handler != nil {
		entry.Service = o.service + "/" + handler.Name()
	}

	if err := o.deadLetters.Append(ctx, entry); err != nil {
		o.logger.ErrorContext(ctx, "dead-letter append failed",
			"event_id", evt.ID,
			"reason", reason,
			"error", err,
		)
		return
	}

	o.logger.ErrorContext(ctx, "event dead-lettered",
		"event_id", evt.ID,
		"event_type", evt.Type,
		"reason", reason,
		"error", entry.Error,
	)

	if o.alert != nil {
		go o.alert(entry)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
