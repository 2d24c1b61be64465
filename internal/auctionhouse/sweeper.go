package auctionhouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cosmicpe/auctionhouse-backend/pkg/config"
	"github.com/cosmicpe/auctionhouse-backend/pkg/logger"
	"github.com/cosmicpe/auctionhouse-backend/pkg/metrics"
)

type sweepState int

const (
	stateExpiring sweepState = iota
	stateUnoffered
	stateWait
)

func (s sweepState) String() string {
	switch s {
	case stateExpiring:
		return "expiring"
	case stateUnoffered:
		return "unoffered"
	case stateWait:
		return "wait"
	default:
		return fmt.Sprintf("sweepState(%d)", int(s))
	}
}

// SweeperParams groups dependencies for the background sweeper.
type SweeperParams struct {
	Logger  *logger.Logger
	House   *Service
	Metrics *metrics.SweepMetrics
	Sweep   config.SweepConfig

	// Now and Sleep override the clock for tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Sweeper drives the expiry and settlement passes. It cycles through three
// states: finalize expired unbidded listings, settle expired bidded ones,
// then wait until the next expiry is due.
type Sweeper struct {
	logg    *logger.Logger
	house   *Service
	metrics *metrics.SweepMetrics
	horizon time.Duration
	ceiling time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSweeper validates the dependency set and builds the sweeper.
func NewSweeper(params SweeperParams) (*Sweeper, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.House == nil {
		return nil, errors.New("house service is required")
	}
	if params.Sweep.Horizon <= 0 || params.Sweep.Ceiling <= 0 {
		return nil, fmt.Errorf("sweep intervals must be positive: horizon %s, ceiling %s",
			params.Sweep.Horizon, params.Sweep.Ceiling)
	}

	w := &Sweeper{
		logg:    params.Logger,
		house:   params.House,
		metrics: params.Metrics,
		horizon: params.Sweep.Horizon,
		ceiling: params.Sweep.Ceiling,
		now:     params.Now,
		sleep:   params.Sleep,
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.sleep == nil {
		w.sleep = func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		}
	}
	return w, nil
}

// Run loops until the context is canceled. A failed step is retried on the
// next cycle rather than aborting the loop.
func (w *Sweeper) Run(ctx context.Context) error {
	state := stateExpiring
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var err error
		state, err = w.step(ctx, state)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			w.logg.Error(w.logg.WithSweepState(ctx, state.String()), "sweep step failed", err)
		}
	}
}

func (w *Sweeper) step(ctx context.Context, state sweepState) (sweepState, error) {
	ctx = w.logg.WithSweepState(ctx, state.String())
	started := w.now()

	switch state {
	case stateExpiring:
		finalized, err := w.house.SweepExpired(ctx)
		w.observe("expiring", started, err)
		if err != nil {
			return stateUnoffered, err
		}
		if finalized > 0 {
			w.metrics.AddSettled("expired", finalized)
			w.logg.Info(w.logg.WithField(ctx, "finalized", finalized), "expired listings finalized")
		}
		return stateUnoffered, nil

	case stateUnoffered:
		settled, err := w.house.SettleUnsettled(ctx)
		w.observe("unoffered", started, err)
		if err != nil {
			return stateWait, err
		}
		if settled > 0 {
			w.metrics.AddSettled("sold", settled)
			w.logg.Info(w.logg.WithField(ctx, "settled", settled), "auctions settled")
		}
		return stateWait, nil

	case stateWait:
		next, err := w.house.NextExpiry(ctx)
		w.observe("wait", started, err)
		if err != nil {
			return stateExpiring, err
		}
		if err := w.sleep(ctx, w.wake(next)); err != nil {
			return stateExpiring, err
		}
		return stateExpiring, nil

	default:
		panic(fmt.Sprintf("unknown sweep state %d", int(state)))
	}
}

// wake computes how long to sleep before the next pass. The extra second past
// the expiry keeps the pass from landing a hair early.
func (w *Sweeper) wake(next *time.Time) time.Duration {
	if next == nil {
		return w.horizon
	}
	d := time.Second + next.Sub(w.now().UTC())
	if d < time.Second {
		d = time.Second
	}
	if d > w.ceiling {
		d = w.ceiling
	}
	return d
}

func (w *Sweeper) observe(step string, started time.Time, err error) {
	w.metrics.ObserveDuration(step, w.now().Sub(started))
	if err != nil {
		w.metrics.IncFailure(step)
		return
	}
	w.metrics.IncSuccess(step)
}
