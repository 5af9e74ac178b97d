package tools

import (
	"regexp"
	"strings"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/agents"
)

// Intent is a tool the message asks for and the input to give it.
type Intent struct {
	Tool  string
	Input string
}

type intentRule struct {
	tool     string
	keywords []string
	needs    []string
}

// Rules are checked in order; the first whose keywords and extra requirements match wins.
var intentRules = []intentRule{
	{tool: agents.ToolPerformanceChart, keywords: []string{"chart", "graph", "plot", "visuali"}},
	{tool: agents.ToolTaxOptimization, keywords: []string{"tax-loss", "tax loss", "harvest", "tax optimi", "tax efficien", "asset location"}},
	{tool: agents.ToolPriceCheck, keywords: []string{"price of", "price for", "stock price", "share price", "quote", "trading at", "how much is"}},
	{tool: agents.ToolNewsSearch, keywords: []string{"news", "headline", "latest on", "what's happening", "what is happening"}},
	{tool: agents.ToolRiskAssessment, keywords: []string{"risk profile", "risk tolerance", "assess my risk", "risk assessment", "how risky", "risk level"}},
	{tool: agents.ToolAnalyzePortfolio, keywords: []string{"analy", "review", "evaluate", "breakdown"}, needs: []string{"portfolio", "holdings"}},
	{tool: agents.ToolCreatePlan, keywords: []string{"financial plan", "create a plan", "make a plan", "build a plan", "savings plan", "plan for my"}},
}

var (
	dollarTicker = regexp.MustCompile(`\$([A-Za-z]{1,5})\b`)
	upperTicker  = regexp.MustCompile(`\b[A-Z]{1,5}(?:\.[A-Z])?\b`)
)

var notTickers = map[string]struct{}{
	"I": {}, "A": {}, "AM": {}, "AN": {}, "AND": {}, "ARE": {}, "AT": {}, "BE": {}, "CAN": {},
	"DO": {}, "FOR": {}, "HOW": {}, "IF": {}, "IN": {}, "IS": {}, "IT": {}, "ME": {}, "MY": {},
	"OF": {}, "ON": {}, "OR": {}, "SO": {}, "THE": {}, "TO": {}, "US": {}, "WE": {}, "WHAT": {},
	"IRA": {}, "IRS": {}, "ETF": {}, "ETFS": {}, "USD": {}, "CEO": {}, "CFO": {}, "AI": {},
	"OK": {}, "GDP": {}, "CPI": {}, "FED": {}, "SEC": {}, "ROTH": {}, "NEWS": {}, "USA": {}, "EPS": {},
}

// ExtractTicker finds the first ticker-looking token: "$abc" anywhere, or an upper-case word
// of at most five letters that is not a common acronym.
func ExtractTicker(message string) string {
	if m := dollarTicker.FindStringSubmatch(message); m != nil {
		return strings.ToUpper(m[1])
	}
	for _, tok := range upperTicker.FindAllString(message, -1) {
		if _, skip := notTickers[tok]; skip {
			continue
		}
		return tok
	}
	return ""
}

// ExtractJSON returns the outermost {...} or [...] span in message, or "".
func ExtractJSON(message string) string {
	obj := span(message, '{', '}')
	arr := span(message, '[', ']')
	switch {
	case obj == "":
		return arr
	case arr == "":
		return obj
	case strings.Index(message, arr) < strings.Index(message, obj):
		return arr
	default:
		return obj
	}
}

func span(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// DetectIntent picks the tool a message asks for, limited to the tools in allowed.
// A nil allowed list permits every tool.
func DetectIntent(message string, allowed []string) (Intent, bool) {
	lower := strings.ToLower(message)

	for _, rule := range intentRules {
		if allowed != nil && !contains(allowed, rule.tool) {
			continue
		}
		if !containsAny(lower, rule.keywords) {
			continue
		}
		if len(rule.needs) > 0 && !containsAny(lower, rule.needs) {
			continue
		}

		input := ExtractJSON(message)
		switch rule.tool {
		case agents.ToolPriceCheck:
			input = ExtractTicker(message)
			if input == "" {
				continue
			}
		case agents.ToolNewsSearch:
			if ticker := ExtractTicker(message); ticker != "" {
				input = ticker
			} else {
				input = strings.TrimSpace(message)
			}
		}

		return Intent{Tool: rule.tool, Input: input}, true
	}

	return Intent{}, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
