package repository

import (
	"strings"

	"CryptoSignal/internal/domain/models"
	"CryptoSignal/pkg/util"
)

// Timeframe is a prediction horizon name from the registry.
type Timeframe string

const (
	TF1m      Timeframe = "1m"
	TF5m      Timeframe = "5m"
	TF10m     Timeframe = "10m"
	TF30m     Timeframe = "30m"
	TF1h      Timeframe = "1h"
	TFDaily   Timeframe = "daily"
	TFMonthly Timeframe = "monthly"
	TFYearly  Timeframe = "yearly"
)

// registry is fixed; order is the order bundles are built and reported in.
var registry = []models.TimeframeConfig{
	{Name: string(TF1m), Interval: "1m", Limit: 60, Horizon: 1},
	{Name: string(TF5m), Interval: "5m", Limit: 100, Horizon: 1},
	{Name: string(TF10m), Interval: "5m", Limit: 120, Horizon: 2},
	{Name: string(TF30m), Interval: "30m", Limit: 100, Horizon: 1},
	{Name: string(TF1h), Interval: "1h", Limit: 100, Horizon: 1},
	{Name: string(TFDaily), Interval: "1d", Limit: 100, Horizon: 1},
	{Name: string(TFMonthly), Interval: "1d", Limit: 365, Horizon: 30},
	{Name: string(TFYearly), Interval: "1d", Limit: 730, Horizon: 365},
}

// Timeframes returns a copy of the registry.
func Timeframes() []models.TimeframeConfig {
	out := make([]models.TimeframeConfig, len(registry))
	copy(out, registry)
	return out
}

// TimeframeNames returns registry names in order.
func TimeframeNames() []string {
	out := make([]string, len(registry))
	for i, tf := range registry {
		out[i] = tf.Name
	}
	return out
}

// LookupTimeframe returns the config registered under name.
func LookupTimeframe(name string) (models.TimeframeConfig, bool) {
	for _, tf := range registry {
		if tf.Name == name {
			return tf, true
		}
	}
	return models.TimeframeConfig{}, false
}

// IsValidTimeframe returns true if tf is registered.
func IsValidTimeframe(tf Timeframe) bool {
	_, ok := LookupTimeframe(string(tf))
	return ok
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TFDaily }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// ParseTimeframeList splits a comma separated list. Empty input means the whole registry.
// Unknown names are kept so callers can report them.
func ParseTimeframeList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return TimeframeNames()
	}
	seen := make(map[string]struct{})
	var out []string
	for _, p := range util.SplitCSV(raw) {
		p = strings.ToLower(p)
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
