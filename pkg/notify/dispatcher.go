package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/finsight-hq/burnwatch/pkg/model"
)

const defaultChannelTimeout = 15 * time.Second

// Dispatcher fans an alert out to the channels its severity routes to.
type Dispatcher struct {
	notifiers map[Channel]Notifier
	policy    RoutingPolicy
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithChannelTimeout bounds each channel delivery attempt.
func WithChannelTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) { disp.timeout = d }
}

// WithDispatchClock overrides the clock used for quiet-hours checks.
func WithDispatchClock(now func() time.Time) DispatcherOption {
	return func(disp *Dispatcher) { disp.now = now }
}

// NewDispatcher creates a dispatcher over the given notifiers.
func NewDispatcher(notifiers []Notifier, policy RoutingPolicy, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		notifiers: make(map[Channel]Notifier, len(notifiers)),
		policy:    policy,
		timeout:   defaultChannelTimeout,
		logger:    logger,
		now:       time.Now,
	}
	for _, n := range notifiers {
		d.notifiers[n.Channel()] = n
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch filters one alert against the user's preferences and delivers it
// to every routed channel concurrently. Each channel attempt is independently
// timed out and produces exactly one Result; a failed or slow channel never
// blocks the others. An alert suppressed by preferences returns no results.
func (d *Dispatcher) Dispatch(ctx context.Context, prefs Preferences, alert model.ThresholdAlert, actionURL string) []Result {
	msg := MessageFromAlert(alert, actionURL)
	if !ShouldSend(prefs, msg, d.now()) {
		d.logger.Debug("alert suppressed by preferences", "type", alert.Type, "severity", alert.Severity)
		return nil
	}

	targets := TargetChannels(prefs, d.policy, msg.Severity)
	if len(targets) == 0 {
		return nil
	}

	results := make([]Result, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		notifier, ok := d.notifiers[target.Type]
		if !ok {
			results[i] = Result{
				Channel: target.Type,
				Error:   fmt.Sprintf("no %s notifier registered", target.Type),
			}
			continue
		}

		wg.Add(1)
		go func(i int, target ChannelConfig, n Notifier) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()
			results[i] = n.Send(cctx, target.Destination, msg)
		}(i, target, notifier)
	}
	wg.Wait()

	for _, r := range results {
		if r.Success {
			d.logger.Info("alert delivered", "type", alert.Type, "channel", r.Channel)
		} else {
			d.logger.Warn("alert delivery failed", "type", alert.Type, "channel", r.Channel, "error", r.Error)
		}
	}
	return results
}
