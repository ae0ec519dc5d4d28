package gps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Defaults for the acquisition loop. Production uses a fixed 1 second
// backoff; tests inject a zero-delay policy.
const (
	DefaultBackoff             = time.Second
	DefaultSingleShotAttempts  = 3
	DefaultSingleShotSentences = 100
)

// ErrNoFix is returned by ReadSingle when the retry budget is exhausted
// without a single valid fix.
var ErrNoFix = errors.New("no valid fix obtained")

// errSentenceBudget ends one streaming attempt in single-shot mode.
var errSentenceBudget = errors.New("sentence budget exhausted")

// RetryPolicy decides how long to wait between reconnect or re-read
// attempts. Wait returns early with the context error on cancellation.
type RetryPolicy interface {
	Wait(ctx context.Context) error
}

// FixedBackoffRetry waits a constant interval, no cap, no jitter.
type FixedBackoffRetry struct {
	Interval time.Duration
}

func (p FixedBackoffRetry) Wait(ctx context.Context) error {
	if p.Interval <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.Interval):
		return nil
	}
}

// Opener establishes a fresh sentence source. The acquisition loop calls
// it once per connection attempt and closes whatever it returns.
type Opener func() (Source, error)

// Sink consumes each extracted fix exactly once.
type Sink interface {
	Persist(Fix) error
}

// Acquirer drives the read/extract/persist cycle over a serial GPS
// connection and owns the reconnect behavior.
//
// One Acquirer owns its device exclusively; all calls are synchronous.
// Cancelling the context also closes the open source so a blocked read
// unblocks instead of hanging.
type Acquirer struct {
	Open  Opener
	Sink  Sink        // nil in single-shot mode
	Retry RetryPolicy // defaults to FixedBackoffRetry{DefaultBackoff}

	// Single-shot bounds. Zero values select the defaults.
	MaxConnectAttempts int
	MaxSentences       int

	Log zerolog.Logger

	now func() time.Time // test hook
}

// Run acquires and persists fixes until the context is cancelled.
// Connection failures trigger reconnects indefinitely; persist failures
// are logged and do not stop the loop. The return value is always the
// context's error.
func (a *Acquirer) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := a.Open()
		if err != nil {
			a.Log.Warn().Err(err).Msg("connect failed, retrying")
			if err := a.retry().Wait(ctx); err != nil {
				return err
			}
			continue
		}
		a.Log.Info().Msg("streaming")
		_, err = a.stream(ctx, src, false)
		_ = src.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.Log.Warn().Err(err).Msg("connection lost, reconnecting")
		if err := a.retry().Wait(ctx); err != nil {
			return err
		}
	}
}

// ReadSingle returns the first valid fix within a bounded budget of
// connection attempts and sentences per attempt. It never persists.
func (a *Acquirer) ReadSingle(ctx context.Context) (Fix, error) {
	attempts := a.MaxConnectAttempts
	if attempts <= 0 {
		attempts = DefaultSingleShotAttempts
	}
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return Fix{}, err
		}
		src, err := a.Open()
		if err != nil {
			a.Log.Warn().Err(err).Int("attempt", i+1).Int("max", attempts).Msg("connect failed")
		} else {
			fix, serr := a.stream(ctx, src, true)
			_ = src.Close()
			if serr == nil {
				return fix, nil
			}
			if ctx.Err() != nil {
				return Fix{}, ctx.Err()
			}
			a.Log.Warn().Err(serr).Int("attempt", i+1).Int("max", attempts).Msg("read failed")
		}
		if i < attempts-1 {
			if err := a.retry().Wait(ctx); err != nil {
				return Fix{}, err
			}
		}
	}
	return Fix{}, fmt.Errorf("%w after %d attempts", ErrNoFix, attempts)
}

// stream runs the inner read/extract/persist cycle on one connection.
// In single-shot mode it returns the first valid fix; otherwise it only
// returns when the connection or the context dies.
func (a *Acquirer) stream(ctx context.Context, src Source, single bool) (Fix, error) {
	// Unblock a pending read when the caller cancels.
	stop := context.AfterFunc(ctx, func() { _ = src.Close() })
	defer stop()

	maxSentences := a.MaxSentences
	if maxSentences <= 0 {
		maxSentences = DefaultSingleShotSentences
	}

	for read := 0; ; read++ {
		if err := ctx.Err(); err != nil {
			return Fix{}, err
		}
		if single && read >= maxSentences {
			return Fix{}, errSentenceBudget
		}
		sent, err := src.Next()
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				// Noisy links spew garbage; pace the re-reads.
				a.Log.Debug().Err(pe).Msg("discarding unreadable sentence")
				if err := a.retry().Wait(ctx); err != nil {
					return Fix{}, err
				}
				continue
			}
			return Fix{}, err
		}
		fix, ok := Extract(sent, a.clock()())
		if !ok {
			continue
		}
		if single {
			return fix, nil
		}
		if a.Sink != nil {
			if err := a.Sink.Persist(fix); err != nil {
				a.Log.Error().Err(err).Msg("persist failed")
			}
		}
	}
}

func (a *Acquirer) retry() RetryPolicy {
	if a.Retry != nil {
		return a.Retry
	}
	return FixedBackoffRetry{Interval: DefaultBackoff}
}

func (a *Acquirer) clock() func() time.Time {
	if a.now != nil {
		return a.now
	}
	return time.Now
}
