package analytics

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"CryptoSignal/internal/domain/models"
	domsvc "CryptoSignal/internal/domain/service"
)

const (
	momentumMinPoints = 10
	momentumWindow    = 10
	volatilityWindow  = 20
)

// Momentum compares the last window's average price against the preceding window.
type Momentum struct{}

func NewMomentum() *Momentum { return &Momentum{} }

func (m *Momentum) Analyze(prices []float64) models.MomentumResult {
	n := len(prices)
	if n < momentumMinPoints {
		return models.MomentumResult{Error: models.InsufficientData(
			fmt.Sprintf("momentum needs at least %d points, got %d", momentumMinPoints, n))}
	}
	if !allFinite(prices) {
		return models.MomentumResult{Error: models.FitFailure("non-finite price in series")}
	}

	recent := prices[n-momentumWindow:]
	baseline := prices[:momentumWindow]
	if n >= 2*momentumWindow {
		baseline = prices[n-2*momentumWindow : n-momentumWindow]
	}
	recentAvg := stat.Mean(recent, nil)
	baseAvg := stat.Mean(baseline, nil)
	if baseAvg == 0 {
		return models.MomentumResult{Error: models.FitFailure("baseline average is zero")}
	}
	momentum := (recentAvg - baseAvg) / baseAvg * 100

	volWin := prices
	if n > volatilityWindow {
		volWin = prices[n-volatilityWindow:]
	}

	return models.MomentumResult{
		Momentum:   momentum,
		Volatility: stat.PopStdDev(volWin, nil),
		RecentAvg:  recentAvg,
		Signal:     MomentumSignal(momentum),
	}
}

// MomentumSignal maps a momentum percentage to a signal.
func MomentumSignal(pct float64) string {
	switch {
	case pct > 5:
		return models.ActionStrongBuy
	case pct > 2:
		return models.ActionBuy
	case pct > -2:
		return models.ActionHold
	case pct > -5:
		return models.ActionSell
	default:
		return models.ActionStrongSell
	}
}

var _ domsvc.MomentumAnalyzer = (*Momentum)(nil)
