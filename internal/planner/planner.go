// Package planner builds and stores structured financial plans.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/executor"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store"
)

// Plan section keys, in the order the model is asked to produce them.
const (
	SectionSummary    = "Executive Summary"
	SectionStrategy   = "Savings and Investment Strategy"
	SectionAllocation = "Asset Allocation Recommendation"
	SectionTimeline   = "Timeline for Goals"
	SectionRisk       = "Risk Management"
	SectionNextSteps  = "Next Steps and Action Items"

	// RawResponseKey holds the model output when it could not be parsed as JSON.
	RawResponseKey = "RawResponse"
)

var Sections = []string{SectionSummary, SectionStrategy, SectionAllocation, SectionTimeline, SectionRisk, SectionNextSteps}

var errNotObject = errors.New("planner: response is not a JSON object")

const planSystemPrompt = "You are a certified financial planner. Answer only with a single valid JSON object."

// Request is the user's financial picture.
type Request struct {
	Income        float64  `json:"income" binding:"gte=0"`
	Savings       float64  `json:"savings" binding:"gte=0"`
	Expenses      float64  `json:"expenses" binding:"gte=0"`
	Goals         []string `json:"goals"`
	RiskTolerance string   `json:"risk_tolerance" binding:"omitempty,oneof=conservative moderate aggressive"`
	TimeHorizon   string   `json:"time_horizon" binding:"omitempty,oneof=short medium long"`
}

func (r Request) withDefaults() Request {
	if strings.TrimSpace(r.RiskTolerance) == "" {
		r.RiskTolerance = "moderate"
	}
	if strings.TrimSpace(r.TimeHorizon) == "" {
		r.TimeHorizon = "medium"
	}
	return r
}

func (r Request) asMap() map[string]any {
	goals := r.Goals
	if goals == nil {
		goals = []string{}
	}
	return map[string]any{
		"income":         r.Income,
		"savings":        r.Savings,
		"expenses":       r.Expenses,
		"goals":          goals,
		"risk_tolerance": r.RiskTolerance,
		"time_horizon":   r.TimeHorizon,
	}
}

type Planner struct {
	generator executor.Generator
	plans     store.PlanStore
	logger    *zap.SugaredLogger
}

// New returns a planner. A nil generator produces the structured fallback plan.
func New(generator executor.Generator, plans store.PlanStore, logger *zap.SugaredLogger) *Planner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Planner{generator: generator, plans: plans, logger: logger}
}

// Create generates a plan for the user and persists it together with the inputs.
func (p *Planner) Create(ctx context.Context, userID string, req Request) (*models.FinancialPlan, error) {
	req = req.withDefaults()

	plan := p.generate(ctx, req)
	record := &models.FinancialPlan{
		UserID: userID,
		Plan:   plan,
		Input:  req.asMap(),
	}
	if err := p.plans.SavePlan(ctx, record); err != nil {
		return nil, fmt.Errorf("planner: save plan: %w", err)
	}
	return record, nil
}

func (p *Planner) List(ctx context.Context, userID string) ([]models.FinancialPlan, error) {
	plans, err := p.plans.ListPlans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("planner: list plans: %w", err)
	}
	return plans, nil
}

func (p *Planner) generate(ctx context.Context, req Request) map[string]any {
	if p.generator == nil {
		return FallbackPlan(req, "")
	}

	text, err := p.generator.Generate(ctx, executor.Prompt{
		System:      planSystemPrompt,
		Message:     buildPlanPrompt(req),
		Temperature: 0.2,
		MaxTokens:   2048,
	})
	if err != nil {
		p.logger.Warnw("plan generation failed, using fallback plan", "generator", p.generator.Name(), "error", err)
		return FallbackPlan(req, "")
	}

	plan, err := ParsePlan(text)
	if err != nil {
		p.logger.Warnw("plan response was not valid JSON", "error", err)
		return FallbackPlan(req, text)
	}
	return plan
}

func buildPlanPrompt(req Request) string {
	goals := "none stated"
	if len(req.Goals) > 0 {
		goals = strings.Join(req.Goals, ", ")
	}

	var b strings.Builder
	b.WriteString("Generate a detailed financial plan based on the following information:\n\n")
	fmt.Fprintf(&b, "Income: $%.2f per year\n", req.Income)
	fmt.Fprintf(&b, "Current Savings: $%.2f\n", req.Savings)
	fmt.Fprintf(&b, "Monthly Expenses: $%.2f\n", req.Expenses)
	fmt.Fprintf(&b, "Financial Goals: %s\n", goals)
	fmt.Fprintf(&b, "Risk Tolerance: %s\n", req.RiskTolerance)
	fmt.Fprintf(&b, "Time Horizon: %s\n\n", req.TimeHorizon)
	b.WriteString("Include the following sections in your plan:\n")
	for i, section := range Sections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, section)
	}
	b.WriteString("\nFormat the response as a structured JSON object with these sections as keys. Ensure the output is valid JSON.")
	return b.String()
}

// ParsePlan decodes a model response into a plan, tolerating a surrounding markdown code fence.
func ParsePlan(text string) (map[string]any, error) {
	body := StripCodeFence(text)

	var plan map[string]any
	if err := json.Unmarshal([]byte(body), &plan); err != nil {
		return nil, fmt.Errorf("planner: decode plan: %w", err)
	}
	if plan == nil {
		return nil, errNotObject
	}
	return plan, nil
}

// StripCodeFence removes a leading ``` or ```json line and the closing fence.
func StripCodeFence(text string) string {
	body := strings.TrimSpace(text)
	if !strings.HasPrefix(body, "```") {
		return body
	}

	body = strings.TrimPrefix(body, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	} else {
		body = strings.TrimPrefix(body, "json")
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

// FallbackPlan is the structured plan returned when no model output is usable. raw, when set,
// is kept under RawResponseKey.
func FallbackPlan(req Request, raw string) map[string]any {
	req = req.withDefaults()
	monthlyIncome := req.Income / 12
	surplus := monthlyIncome - req.Expenses

	strategy := "Build a budget first: monthly expenses meet or exceed monthly income."
	if surplus > 0 {
		strategy = fmt.Sprintf("Set aside about $%.2f per month: keep 3-6 months of expenses ($%.2f-$%.2f) as an emergency fund, then invest the rest.",
			surplus, req.Expenses*3, req.Expenses*6)
	}

	timeline := "Custom timeline based on your financial goals."
	if len(req.Goals) > 0 {
		timeline = fmt.Sprintf("Prioritise in order: %s.", strings.Join(req.Goals, ", "))
	}

	plan := map[string]any{
		SectionSummary:    "Generated financial plan based on your inputs.",
		SectionStrategy:   strategy,
		SectionAllocation: allocationFor(req.RiskTolerance),
		SectionTimeline:   timeline,
		SectionRisk:       fmt.Sprintf("Recommendations aligned with your %s risk tolerance.", req.RiskTolerance),
		SectionNextSteps:  "Follow the personalized investment strategy.",
	}
	if raw != "" {
		plan[RawResponseKey] = raw
	}
	return plan
}

func allocationFor(riskTolerance string) string {
	switch riskTolerance {
	case "conservative":
		return "30% equities, 60% bonds, 10% cash."
	case "aggressive":
		return "85% equities, 10% bonds, 5% cash."
	default:
		return "60% equities, 35% bonds, 5% cash."
	}
}
