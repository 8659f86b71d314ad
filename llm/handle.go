package llm

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/cortexlab/discovery/errors"
	"github.com/cortexlab/discovery/message"
	"github.com/cortexlab/discovery/provider"
)

// failoverState drives the primary/fallback composition. Failure handling is
// an explicit state machine over discriminated invocation outcomes rather
// than nested error recovery: primary, one retry against the primary, then
// the fallback.
type failoverState int

const (
	statePrimary failoverState = iota
	stateRetrying
	stateFallback
)

// outcome is the discriminated result of a single backend invocation.
type outcome struct {
	msg *message.Message
	err error
}

// Handle is a composed model invocation path. Callers observe one result;
// intermediate primary failures are logged, never surfaced.
type Handle struct {
	primary  provider.Provider // nil in fallback-only mode
	fallback provider.Provider
	logger   *slog.Logger
}

// NewHandle composes a primary and fallback backend. primary may be nil, in
// which case every invocation goes straight to the fallback.
func NewHandle(primary, fallback provider.Provider, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{primary: primary, fallback: fallback, logger: logger}
}

// Name identifies the preferred backend of this handle.
func (h *Handle) Name() string {
	if h.primary != nil {
		return h.primary.Name()
	}
	return h.fallback.Name()
}

// Generate runs the failover state machine until a backend answers or the
// fallback itself fails.
func (h *Handle) Generate(ctx context.Context, messages []*message.Message) (*message.Message, error) {
	state := statePrimary
	if h.primary == nil {
		state = stateFallback
	}

	var primaryErr error
	for {
		switch state {
		case statePrimary:
			out := attempt(ctx, h.primary, messages)
			if out.err == nil {
				return out.msg, nil
			}
			primaryErr = out.err
			h.logger.Warn("primary model invocation failed, retrying",
				"backend", h.primary.Name(), "retryable", apperrors.IsRetryable(out.err), "error", out.err)
			state = stateRetrying

		case stateRetrying:
			out := attempt(ctx, h.primary, messages)
			if out.err == nil {
				return out.msg, nil
			}
			primaryErr = out.err
			h.logger.Warn("primary model retry failed, switching to fallback",
				"backend", h.primary.Name(), "fallback", h.fallback.Name(), "error", out.err)
			state = stateFallback

		case stateFallback:
			out := attempt(ctx, h.fallback, messages)
			if out.err != nil {
				if primaryErr != nil {
					return nil, fmt.Errorf("llm: fallback %s failed: %w (primary: %v)",
						h.fallback.Name(), out.err, primaryErr)
				}
				return nil, fmt.Errorf("llm: fallback %s failed: %w", h.fallback.Name(), out.err)
			}
			return out.msg, nil
		}
	}
}

func attempt(ctx context.Context, p provider.Provider, messages []*message.Message) outcome {
	msg, err := p.Generate(ctx, messages)
	if err == nil && msg == nil {
		err = fmt.Errorf("backend %s: %w", p.Name(), apperrors.ErrEmptyResponse)
	}
	return outcome{msg: msg, err: err}
}
