package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/agents"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/market"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
)

// ValuePoint is one portfolio valuation.
type ValuePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Chart is a Chart.js line chart config.
type Chart struct {
	Type    string       `json:"type"`
	Data    ChartData    `json:"data"`
	Options ChartOptions `json:"options"`
}

type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

type ChartDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BorderColor     string    `json:"borderColor"`
	BackgroundColor string    `json:"backgroundColor"`
	Fill            bool      `json:"fill"`
	Tension         float64   `json:"tension"`
}

type ChartOptions struct {
	Responsive          bool           `json:"responsive"`
	MaintainAspectRatio bool           `json:"maintainAspectRatio"`
	Plugins             map[string]any `json:"plugins"`
	Scales              map[string]any `json:"scales"`
}

// NewPerformanceChart builds the portfolio value line chart.
func NewPerformanceChart(points []ValuePoint) Chart {
	labels := make([]string, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		labels[i] = p.Date
		values[i] = p.Value
	}

	return Chart{
		Type: "line",
		Data: ChartData{
			Labels: labels,
			Datasets: []ChartDataset{{
				Label:           "Portfolio Value Over Time",
				Data:            values,
				BorderColor:     "rgb(54, 162, 235)",
				BackgroundColor: "rgba(54, 162, 235, 0.5)",
				Fill:            false,
				Tension:         0.1,
			}},
		},
		Options: ChartOptions{
			Responsive:          true,
			MaintainAspectRatio: false,
			Plugins: map[string]any{
				"legend": map[string]any{"position": "top"},
				"title":  map[string]any{"display": true, "text": "Portfolio Performance"},
			},
			Scales: map[string]any{
				"y": map[string]any{"beginAtZero": false},
			},
		},
	}
}

type chartGenerator struct{}

func (t *chartGenerator) Name() string { return agents.ToolPerformanceChart }

func (t *chartGenerator) Description() string {
	return "Generates data suitable for displaying a performance chart of a portfolio or asset over time."
}

func (t *chartGenerator) Run(_ context.Context, input string) (string, error) {
	var points []ValuePoint
	if err := json.Unmarshal([]byte(input), &points); err != nil {
		return "Error: Invalid format for portfolio_history. Expected a list of objects with 'date' and 'value'.", nil
	}

	out, err := json.Marshal(NewPerformanceChart(points))
	if err != nil {
		return "", fmt.Errorf("tools: encode chart: %w", err)
	}
	return string(out), nil
}

// HistorySource returns daily closes for a symbol.
type HistorySource interface {
	History(ctx context.Context, symbol, rangeParam string) ([]market.PricePoint, error)
}

// PortfolioSeries values the holdings on each trading day in rangeParam. A holding only
// counts from its purchase date; days missing a close reuse the last known close.
func PortfolioSeries(ctx context.Context, history HistorySource, portfolio models.Portfolio, rangeParam string) ([]ValuePoint, error) {
	closes := make(map[string]map[string]float64)
	dateSet := make(map[string]struct{})

	for _, s := range portfolio.Stocks {
		if _, seen := closes[s.Ticker]; seen {
			continue
		}
		points, err := history.History(ctx, s.Ticker, rangeParam)
		if err != nil {
			return nil, fmt.Errorf("tools: history %s: %w", s.Ticker, err)
		}
		byDate := make(map[string]float64, len(points))
		for _, p := range points {
			d := p.Date.Format(time.DateOnly)
			byDate[d] = p.Close
			dateSet[d] = struct{}{}
		}
		closes[s.Ticker] = byDate
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	last := make(map[string]float64)
	series := make([]ValuePoint, 0, len(dates))
	for _, d := range dates {
		total := portfolio.Cash
		for _, s := range portfolio.Stocks {
			if c, ok := closes[s.Ticker][d]; ok {
				last[s.Ticker] = c
			}
			if !s.PurchaseDate.IsZero() && s.PurchaseDate.Format(time.DateOnly) > d {
				continue
			}
			total += s.Shares * last[s.Ticker]
		}
		series = append(series, ValuePoint{Date: d, Value: total})
	}

	return series, nil
}
