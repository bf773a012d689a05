package chain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultMaxAttempts  = 30
	DefaultPollInterval = 2 * time.Second
)

type TxState int

const (
	TxPending TxState = iota
	TxConfirmed
	TxFailed
	TxTimedOut
)

func (s TxState) String() string {
	switch s {
	case TxConfirmed:
		return "confirmed"
	case TxFailed:
		return "failed"
	case TxTimedOut:
		return "timed_out"
	}
	return "pending"
}

// TrackedTransaction is the live state of a transaction being polled.
type TrackedTransaction struct {
	ID          string
	SubmittedAt time.Time
	Attempts    int
	State       TxState
}

// Verdict classifies one status lookup. Reason is reported for failures.
type Verdict struct {
	State  TxState
	Reason string
}

// WaitOptions bound a wait. Zero values fall back to DefaultMaxAttempts and
// DefaultPollInterval.
type WaitOptions struct {
	MaxAttempts int
	Interval    time.Duration
}

func (o WaitOptions) withDefaults() WaitOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	return o
}

// StatusLookup fetches the chain specific status of a transaction.
type StatusLookup[T any] func(ctx context.Context, txID string) (T, error)

// Classifier maps a status to a Verdict.
type Classifier[T any] func(status T) Verdict

func NewTracker() *Tracker {
	return &Tracker{
		active: make(map[string]*TrackedTransaction),
		now:    time.Now,
	}
}

// Tracker polls transactions until they reach a terminal state. At most one
// poller runs per transaction id; concurrent waits for the same id share the
// outcome of that poller. The poller stops once every waiter has left.
type Tracker struct {
	group sharedGroup

	active map[string]*TrackedTransaction
	// active mutex
	mu sync.RWMutex

	now func() time.Time
}

// Tracked returns a snapshot of the transaction if it is currently polled.
func (t *Tracker) Tracked(txID string) (TrackedTransaction, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tx, ok := t.active[txID]
	if !ok {
		return TrackedTransaction{}, false
	}
	return *tx, true
}

// WaitFor polls lookup every opts.Interval until classify reports a terminal
// state or opts.MaxAttempts lookups were made. Lookup errors are swallowed
// unless they happen on the final attempt. Cancelling ctx only ends this
// caller's wait; the poller keeps running for the other waiters of txID.
func WaitFor[T any](
	ctx context.Context,
	t *Tracker,
	txID string,
	lookup StatusLookup[T],
	classify Classifier[T],
	opts WaitOptions,
) (T, error) {
	var zero T
	v, err := t.group.Do(ctx, txID, func(ctx context.Context) (any, error) {
		return poll(ctx, t, txID, lookup, classify, opts.withDefaults())
	})
	if err != nil {
		return zero, err
	}
	status, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("transaction %s is already tracked with status type %T", txID, v)
	}
	return status, nil
}

func poll[T any](
	ctx context.Context,
	t *Tracker,
	txID string,
	lookup StatusLookup[T],
	classify Classifier[T],
	opts WaitOptions,
) (T, error) {
	var zero T
	tracked := &TrackedTransaction{ID: txID, SubmittedAt: t.now(), State: TxPending}
	t.mu.Lock()
	t.active[txID] = tracked
	t.mu.Unlock()

	finish := func(state TxState) {
		t.mu.Lock()
		tracked.State = state
		delete(t.active, txID)
		t.mu.Unlock()
	}

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		status, err := lookup(ctx, txID)

		t.mu.Lock()
		tracked.Attempts = attempt
		t.mu.Unlock()

		if err != nil {
			if attempt == opts.MaxAttempts {
				finish(TxTimedOut)
				return zero, fmt.Errorf("transaction %s status lookup failed: %w", txID, err)
			}
			slog.Debug("transaction status lookup failed",
				slog.String("tx_id", txID),
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
		} else {
			verdict := classify(status)
			switch verdict.State {
			case TxConfirmed:
				finish(TxConfirmed)
				return status, nil
			case TxFailed:
				finish(TxFailed)
				return zero, &TransactionFailedError{TxID: txID, Reason: verdict.Reason}
			}
		}

		if err := sleepCtx(ctx, opts.Interval); err != nil {
			finish(TxTimedOut)
			return zero, err
		}
	}

	finish(TxTimedOut)
	return zero, &TransactionTimeoutError{TxID: txID, Attempts: opts.MaxAttempts}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
