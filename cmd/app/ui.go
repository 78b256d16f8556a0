package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"CryptoSignal/internal/domain/models"
	domrepo "CryptoSignal/internal/domain/repository"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3B82F6")).
		Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	buyStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	sellStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	holdStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B"))

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444"))

	mutedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))
)

func actionStyle(action string) lipgloss.Style {
	switch action {
	case models.ActionBuy, models.ActionStrongBuy:
		return buyStyle
	case models.ActionSell, models.ActionStrongSell:
		return sellStyle
	default:
		return holdStyle
	}
}

// nextPrice is the first forecast step, or the first trend step when the forecast failed.
func nextPrice(p models.TimeframePrediction) (float64, bool) {
	if p.Forecast.Error == nil && len(p.Forecast.Predictions) > 0 {
		return p.Forecast.Predictions[0], true
	}
	if p.Trend.Error == nil && len(p.Trend.Predictions) > 0 {
		return p.Trend.Predictions[0], true
	}
	return 0, false
}

func renderBundle(b *models.PredictionBundle) string {
	rows := [][]string{}
	for _, name := range domrepo.TimeframeNames() {
		p, ok := b.Predictions[name]
		if !ok {
			continue
		}
		next := "-"
		if v, ok := nextPrice(p); ok {
			next = fmt.Sprintf("%.4f", v)
		}
		trend := p.Trend.Trend
		if p.Trend.Error != nil {
			trend = "n/a"
		}
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%.4f", p.CurrentPrice),
			next,
			trend,
			p.Recommendation.Action,
			fmt.Sprintf("%.0f%%", p.Recommendation.Confidence*100),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("TIMEFRAME", "PRICE", "NEXT", "TREND", "ACTION", "CONF").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 4 && row >= 0 && row < len(rows) {
				return actionStyle(rows[row][4]).Padding(0, 1)
			}
			return cellStyle
		})

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s  %s", b.Symbol, b.GeneratedAt.Format("2006-01-02 15:04:05 MST"))))
	sb.WriteString("\n")
	sb.WriteString(t.Render())
	for _, w := range b.Warnings {
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render(fmt.Sprintf("! %s: %s", w.Timeframe, w.Reason)))
	}
	return sb.String()
}
