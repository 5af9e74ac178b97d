// Package agents holds the catalogue of advisory personas the chat router can hand a
// message to. The catalogue is fixed at process start and only ever read afterwards.
package agents

import (
	"fmt"
	"slices"
)

const (
	MarketAnalyst     = "market_analyst"
	PortfolioManager  = "portfolio_manager"
	FinancialAdvisor  = "financial_advisor"
	TaxPlanner        = "tax_planner"
	RetirementPlanner = "retirement_planner"
	General           = "general"

	// ErrorID is the sentinel identifier for the agent that reports failures.
	ErrorID = "error"
	// DefaultID names the catch-all agent returned for unknown identifiers.
	DefaultID = "default"
)

// Tool names an agent may use.
const (
	ToolNewsSearch       = "NewsSearch"
	ToolPriceCheck       = "PriceCheck"
	ToolAnalyzePortfolio = "AnalyzePortfolio"
	ToolRiskAssessment   = "RiskAssessment"
	ToolPerformanceChart = "PerformanceChart"
	ToolCreatePlan       = "CreatePlan"
	ToolTaxOptimization  = "TaxOptimization"
)

// Definition describes one agent persona.
type Definition struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"display_name"`
	Description  string   `json:"description"`
	Tools        []string `json:"tools"`
	Icon         string   `json:"icon"`
	Color        string   `json:"color"`
	Instructions string   `json:"instructions"`
}

// HasTool reports whether the agent is allowed to use the named tool.
func (d Definition) HasTool(name string) bool {
	for _, tool := range d.Tools {
		if tool == name {
			return true
		}
	}
	return false
}

var order = []string{MarketAnalyst, PortfolioManager, FinancialAdvisor, TaxPlanner, RetirementPlanner, General}

var definitions = map[string]Definition{
	MarketAnalyst: {
		Name:        MarketAnalyst,
		DisplayName: "Market Analyst",
		Description: "Provides market trends, financial news, and stock performance analysis",
		Tools:       []string{ToolNewsSearch, ToolPriceCheck},
		Icon:        "chart-bar",
		Color:       "#10b981",
		Instructions: "You are a Market Analyst specializing in financial markets and economic trends. " +
			"Use data from financial news and stock prices to provide insightful analysis. " +
			"Focus on explaining market movements, industry trends, and how economic events " +
			"might impact investments. Be precise with data but explain concepts clearly.",
	},
	PortfolioManager: {
		Name:        PortfolioManager,
		DisplayName: "Portfolio Manager",
		Description: "Analyzes investment portfolios, asset allocation, and risk management",
		Tools:       []string{ToolAnalyzePortfolio, ToolRiskAssessment, ToolPerformanceChart, ToolPriceCheck},
		Icon:        "trending-up",
		Color:       "#3b82f6",
		Instructions: "You are a Portfolio Manager with expertise in investment allocation and risk management. " +
			"Analyze portfolio performance, suggest rebalancing strategies, and provide guidance on " +
			"diversification. Use portfolio analysis tools to give data-driven recommendations while " +
			"considering the user's risk tolerance and investment goals.",
	},
	FinancialAdvisor: {
		Name:        FinancialAdvisor,
		DisplayName: "Financial Advisor",
		Description: "Provides personalized financial planning and investment advice",
		Tools:       []string{ToolCreatePlan, ToolAnalyzePortfolio, ToolRiskAssessment},
		Icon:        "piggy-bank",
		Color:       "#8b5cf6",
		Instructions: "You are a Financial Advisor who provides holistic financial guidance. " +
			"Help users create comprehensive financial plans, taking into account their " +
			"goals, current financial situation, and risk tolerance. Provide actionable advice " +
			"on savings, investments, debt management, and long-term financial planning.",
	},
	TaxPlanner: {
		Name:        TaxPlanner,
		DisplayName: "Tax Strategist",
		Description: "Advises on tax-efficient investment strategies and planning",
		Tools:       []string{ToolTaxOptimization, ToolAnalyzePortfolio, ToolCreatePlan},
		Icon:        "landmark",
		Color:       "#f59e0b",
		Instructions: "You are a Tax Strategist specializing in tax-efficient investment and financial planning. " +
			"Help users understand tax implications of various investment choices, suggest tax-advantaged " +
			"accounts, and discuss tax minimization strategies. Focus on legal tax optimization while " +
			"being clear that you're providing educational information, not official tax advice.",
	},
	RetirementPlanner: {
		Name:        RetirementPlanner,
		DisplayName: "Retirement Planning",
		Description: "Specializes in retirement planning and long-term financial security",
		Tools:       []string{ToolCreatePlan, ToolAnalyzePortfolio},
		Icon:        "hourglass",
		Color:       "#ec4899",
		Instructions: "You are a Retirement Planning Specialist focused on helping users prepare for retirement. " +
			"Discuss retirement savings strategies, pension options, withdrawal strategies, and how to " +
			"create sustainable income in retirement. Consider factors like life expectancy, inflation, " +
			"healthcare costs, and desired retirement lifestyle in your recommendations.",
	},
	General: {
		Name:        General,
		DisplayName: "Financial Assistant",
		Description: "General financial information and guidance on various topics",
		Tools:       []string{ToolNewsSearch, ToolPriceCheck, ToolAnalyzePortfolio, ToolCreatePlan},
		Icon:        "brain",
		Color:       "#6b7280",
		Instructions: "You are a General Financial Assistant who can provide broad information on various " +
			"financial topics. Answer questions about basic financial concepts, current events, " +
			"and provide general guidance. When questions require specialized expertise, indicate " +
			"which type of financial professional would be best suited to provide detailed advice.",
	},
}

var errorAgent = Definition{
	Name:        ErrorID,
	DisplayName: "Error Recovery",
	Description: "Handles error situations and provides guidance on next steps",
	Tools:       []string{},
	Icon:        "alert-circle",
	Color:       "#ef4444",
	Instructions: "You are an Error Recovery assistant. Explain the error that occurred in simple terms, " +
		"suggest possible solutions or workarounds, and guide the user on what to try next.",
}

var defaultAgent = Definition{
	Name:        DefaultID,
	DisplayName: "AI Advisor",
	Description: "General AI assistant for financial topics",
	Tools:       []string{},
	Icon:        "bot",
	Color:       "#64748b",
	Instructions: "You are an AI Financial Assistant. Provide helpful, accurate information on financial topics. " +
		"Direct users to appropriate specialized agents for more detailed assistance.",
}

// Get returns a copy of the definition registered under id. The "error" sentinel resolves
// to the error agent and every other unknown id resolves to the default agent.
func Get(id string) Definition {
	def, ok := definitions[id]
	switch {
	case ok:
	case id == ErrorID:
		def = errorAgent
	default:
		def = defaultAgent
	}
	def.Tools = slices.Clone(def.Tools)
	return def
}

// Known reports whether id names one of the routable agents.
func Known(id string) bool {
	_, ok := definitions[id]
	return ok
}

// IDs returns the routable agent identifiers in catalogue order.
func IDs() []string {
	return append([]string(nil), order...)
}

// RoutingDescriptions maps each routable agent to "Display Name: description".
func RoutingDescriptions() map[string]string {
	out := make(map[string]string, len(definitions))
	for id, def := range definitions {
		out[id] = fmt.Sprintf("%s: %s", def.DisplayName, def.Description)
	}
	return out
}
