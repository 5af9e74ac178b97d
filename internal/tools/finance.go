package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/agents"
)

type holdingInput struct {
	Ticker        string  `json:"ticker"`
	Shares        float64 `json:"shares"`
	PurchasePrice float64 `json:"purchase_price"`
}

type portfolioInput struct {
	Stocks        []holdingInput `json:"stocks"`
	Cash          float64        `json:"cash"`
	RiskTolerance string         `json:"risk_tolerance"`
}

type portfolioAnalyzer struct {
	quotes QuoteSource
}

func (t *portfolioAnalyzer) Name() string { return agents.ToolAnalyzePortfolio }

func (t *portfolioAnalyzer) Description() string {
	return "Analyzes a user's investment portfolio based on provided details (holdings, risk tolerance)."
}

func (t *portfolioAnalyzer) Run(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "To analyze your portfolio, share your holdings as JSON, for example " +
			`{"stocks":[{"ticker":"AAPL","shares":10,"purchase_price":150}],"cash":1000,"risk_tolerance":"medium"}.`, nil
	}

	var in portfolioInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "Error: Invalid JSON format for portfolio details. Please provide a valid JSON string.", nil
	}

	type line struct {
		ticker string
		cost   float64
		value  float64
	}

	lines := make([]line, 0, len(in.Stocks))
	var totalCost, totalValue float64
	for _, h := range in.Stocks {
		ticker := strings.ToUpper(strings.TrimSpace(h.Ticker))
		price := h.PurchasePrice
		if t.quotes != nil && ticker != "" {
			if q, err := t.quotes.Quote(ctx, ticker); err == nil {
				price = q.Price
			}
		}
		l := line{ticker: ticker, cost: h.Shares * h.PurchasePrice, value: h.Shares * price}
		totalCost += l.cost
		totalValue += l.value
		lines = append(lines, l)
	}

	invested := totalValue
	totalValue += in.Cash

	var b strings.Builder
	fmt.Fprintf(&b, "Portfolio analysis: %d holding(s), cash $%.2f, total value $%.2f.", len(lines), in.Cash, totalValue)
	if totalCost > 0 {
		gain := invested - totalCost
		fmt.Fprintf(&b, " Unrealized gain/loss $%.2f (%.2f%%).", gain, gain/totalCost*100)
	}

	if totalValue > 0 && len(lines) > 0 {
		sort.Slice(lines, func(i, j int) bool { return lines[i].value > lines[j].value })
		b.WriteString(" Weights:")
		for _, l := range lines {
			fmt.Fprintf(&b, " %s %.1f%%;", l.ticker, l.value/totalValue*100)
		}
		if top := lines[0]; top.value/totalValue > 0.4 {
			fmt.Fprintf(&b, " %s is more than 40%% of the portfolio, which is a concentration risk.", top.ticker)
		}
		if len(lines) < 5 {
			b.WriteString(" With fewer than five holdings the portfolio is lightly diversified.")
		}
	}

	if rt := strings.TrimSpace(in.RiskTolerance); rt != "" {
		fmt.Fprintf(&b, " Recommendations are framed for a %s risk tolerance.", rt)
	}

	return strings.TrimSpace(b.String()), nil
}

type savingsGoal struct {
	Name         string  `json:"name"`
	TargetAmount float64 `json:"target_amount"`
	Years        float64 `json:"years"`
}

type planInput struct {
	Income        float64       `json:"income"`
	Expenses      float64       `json:"expenses"`
	SavingsGoals  []savingsGoal `json:"savings_goals"`
	RiskTolerance string        `json:"risk_tolerance"`
}

type planCreator struct{}

func (t *planCreator) Name() string { return agents.ToolCreatePlan }

func (t *planCreator) Description() string {
	return "Creates a personalized financial plan based on user's income, expenses, goals, risk tolerance, and time horizon."
}

func (t *planCreator) Run(_ context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "To build a plan I need your annual income, expenses, and goals, for example " +
			`{"income":75000,"expenses":45000,"savings_goals":[{"name":"House","target_amount":50000,"years":5}]}.`, nil
	}

	var in planInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "Error: Invalid JSON format for plan details. Please provide a valid JSON string.", nil
	}

	monthlySurplus := (in.Income - in.Expenses) / 12

	var b strings.Builder
	fmt.Fprintf(&b, "Financial plan: monthly surplus $%.2f from income $%.2f and expenses $%.2f.", monthlySurplus, in.Income, in.Expenses)

	var required float64
	for _, g := range in.SavingsGoals {
		if g.Years <= 0 {
			fmt.Fprintf(&b, " %s has no timeline; set a target year.", g.Name)
			continue
		}
		monthly := g.TargetAmount / (g.Years * 12)
		required += monthly
		fmt.Fprintf(&b, " %s: save $%.2f per month for %.0f year(s) to reach $%.2f.", g.Name, monthly, g.Years, g.TargetAmount)
	}

	switch {
	case monthlySurplus <= 0:
		b.WriteString(" Expenses meet or exceed income, so start with a budget review before investing.")
	case required > monthlySurplus:
		fmt.Fprintf(&b, " Goals need $%.2f per month, more than the surplus; extend timelines or trim expenses.", required)
	default:
		fmt.Fprintf(&b, " Goals fit within the surplus, leaving $%.2f per month for an emergency fund and investing.", monthlySurplus-required)
	}

	if rt := strings.TrimSpace(in.RiskTolerance); rt != "" {
		fmt.Fprintf(&b, " Investments should match a %s risk tolerance.", rt)
	}

	return b.String(), nil
}

type riskInput struct {
	Age                    int      `json:"age"`
	InvestmentHorizonYears int      `json:"investment_horizon_years"`
	RiskToleranceScore     int      `json:"risk_tolerance_score"`
	FinancialGoals         []string `json:"financial_goals"`
}

type riskAssessor struct{}

func (t *riskAssessor) Name() string { return agents.ToolRiskAssessment }

func (t *riskAssessor) Description() string {
	return "Assesses the risk level of a portfolio or investment strategy based on user profile and market conditions."
}

// RiskLevel classifies a 0-10 composite score.
func RiskLevel(score float64) string {
	switch {
	case score < 4:
		return "conservative"
	case score < 7:
		return "moderate"
	default:
		return "aggressive"
	}
}

func (t *riskAssessor) Run(_ context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "To assess your risk profile, share your age, investment horizon, and a 1-10 risk tolerance score, for example " +
			`{"age":35,"investment_horizon_years":20,"risk_tolerance_score":7}.`, nil
	}

	var in riskInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "Error: Invalid JSON format for risk profile.", nil
	}

	score := float64(in.RiskToleranceScore)
	if score <= 0 {
		score = 5
	}
	horizon := math.Min(float64(in.InvestmentHorizonYears), 30) / 30 * 10
	composite := (score + horizon) / 2

	equity := 110 - in.Age
	if in.Age <= 0 {
		equity = 70
	}
	equity += int((composite - 5) * 4)
	equity = max(10, min(equity, 95))

	level := RiskLevel(composite)
	msg := fmt.Sprintf("Risk assessment: composite score %.1f/10 (%s). Suggested allocation: %d%% equities, %d%% bonds and cash.",
		composite, level, equity, 100-equity)
	if len(in.FinancialGoals) > 0 {
		msg += fmt.Sprintf(" Goals considered: %s.", strings.Join(in.FinancialGoals, ", "))
	}
	return msg, nil
}

type taxHolding struct {
	Ticker       string  `json:"ticker"`
	Basis        float64 `json:"basis"`
	CurrentValue float64 `json:"current_value"`
	Type         string  `json:"type"`
}

type taxInput struct {
	Holdings   []taxHolding `json:"holdings"`
	TaxBracket string       `json:"tax_bracket"`
}

type taxOptimizer struct{}

func (t *taxOptimizer) Name() string { return agents.ToolTaxOptimization }

func (t *taxOptimizer) Description() string {
	return "Provides advice on tax optimization strategies like tax-loss harvesting and asset location."
}

func (t *taxOptimizer) Run(_ context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "Tax optimization starts with your holdings' cost basis and current value, for example " +
			`{"holdings":[{"ticker":"XYZ","basis":100,"current_value":80}],"tax_bracket":"22%"}.`, nil
	}

	var in taxInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "Error: Invalid JSON format for portfolio information.", nil
	}

	var losses, gains float64
	var candidates []string
	for _, h := range in.Holdings {
		diff := h.CurrentValue - h.Basis
		if diff < 0 {
			losses += -diff
			candidates = append(candidates, fmt.Sprintf("%s ($%.2f)", strings.ToUpper(h.Ticker), -diff))
		} else {
			gains += diff
		}
	}

	var b strings.Builder
	if len(candidates) == 0 {
		b.WriteString("Tax optimization: no holdings are below cost basis, so there is nothing to harvest right now.")
	} else {
		fmt.Fprintf(&b, "Tax optimization: tax-loss harvesting candidates %s, total harvestable loss $%.2f.", strings.Join(candidates, ", "), losses)
		if gains > 0 {
			fmt.Fprintf(&b, " Harvested losses can offset $%.2f of unrealized gains.", math.Min(losses, gains))
		}
		b.WriteString(" Mind the 30-day wash-sale rule when repurchasing.")
	}
	if in.TaxBracket != "" {
		fmt.Fprintf(&b, " In the %s bracket, hold tax-inefficient assets in tax-advantaged accounts.", in.TaxBracket)
	}

	return b.String(), nil
}
