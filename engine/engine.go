// Package engine runs the market: it prices and executes buys, resolves and
// settles the market, and resets it for another round. All mutations pass
// through one gate so the market sees a strictly serial sequence of states.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lmsrmarket/handlers/math/probabilities/lmsr"
	"lmsrmarket/setup"
)

// Engine owns the market state. Create one per market with New and share it.
type Engine struct {
	db    *gorm.DB
	maker *lmsr.LMSR
	gate  *gate
	econ  *setup.EconomicsConfig
	log   *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New wires an engine to db using the economics in econ.
func New(db *gorm.DB, econ *setup.EconomicsConfig, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		db:    db,
		maker: lmsr.New(econ.Market.Liquidity),
		gate:  newGate(econ.Trading.LockTimeout),
		econ:  econ,
		log:   log.Named("engine"),
		now:   time.Now,
		sleep: sleepContext,
	}
}

// Maker exposes the pricing functions. They are pure and need no lock.
func (e *Engine) Maker() *lmsr.LMSR {
	return e.maker
}

// Economics returns the configuration the engine runs with.
func (e *Engine) Economics() *setup.EconomicsConfig {
	return e.econ
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Now is the engine's clock.
func (e *Engine) Now() time.Time {
	return e.now()
}
