// Package router picks the agent persona that should answer a chat message.
//
// Routing is plain keyword matching. Topics are tested in a fixed order and the first
// topic with a matching keyword wins:
//  1. investment  -> portfolio_manager
//  2. retirement  -> retirement_planner
//  3. tax         -> tax_planner
//  4. market      -> market_analyst
//  5. planning    -> financial_advisor
//  6. no match    -> general
//
// A message that mentions several topics goes to whichever comes first in that list.
package router

import (
	"regexp"
	"strings"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/agents"
)

// Topic names a keyword group.
type Topic string

const (
	TopicInvestment Topic = "investment"
	TopicRetirement Topic = "retirement"
	TopicTax        Topic = "tax"
	TopicMarket     Topic = "market"
	TopicPlanning   Topic = "planning"
	TopicNone       Topic = "none"
)

// TopicKeywords is one entry of the routing table. Prefixes match anywhere in the text
// ("invest" matches "reinvesting", "tax" matches "pretax"); Words must match a whole word
// ("ira" does not match "miracle").
type TopicKeywords struct {
	Topic    Topic
	AgentID  string
	Prefixes []string
	Words    []string
}

// DefaultTopics is the routing table in priority order.
var DefaultTopics = []TopicKeywords{
	{
		Topic:    TopicInvestment,
		AgentID:  agents.PortfolioManager,
		Prefixes: []string{"invest", "portfolio", "stock", "asset", "allocation", "diversif", "rebalanc", "mutual fund", "index fund", "dividend"},
		Words:    []string{"etf", "etfs", "bond", "bonds", "shares", "equities"},
	},
	{
		Topic:    TopicRetirement,
		AgentID:  agents.RetirementPlanner,
		Prefixes: []string{"retire", "pension", "401k", "401(k)", "social security", "annuit", "roth"},
		Words:    []string{"ira", "iras"},
	},
	{
		Topic:    TopicTax,
		AgentID:  agents.TaxPlanner,
		Prefixes: []string{"tax", "deduct", "capital gain", "write-off", "harvest"},
		Words:    []string{"irs"},
	},
	{
		Topic:    TopicMarket,
		AgentID:  agents.MarketAnalyst,
		Prefixes: []string{"market", "news", "price", "trend", "econom", "ticker", "earnings", "inflation", "interest rate", "s&p", "nasdaq", "recession"},
		Words:    []string{"dow", "fed"},
	},
	{
		Topic:    TopicPlanning,
		AgentID:  agents.FinancialAdvisor,
		Prefixes: []string{"budget", "saving", "planning", "emergency fund", "mortgage", "financial plan"},
		Words:    []string{"plan", "plans", "debt", "debts", "goal", "goals", "save"},
	},
}

// Decision is the outcome of routing one message. It is never persisted.
type Decision struct {
	AgentID string `json:"agent_id"`
	Topic   Topic  `json:"topic"`
	Keyword string `json:"keyword,omitempty"`
	Input   string `json:"input"`
}

type compiledTopic struct {
	topic    Topic
	agentID  string
	prefixes []string
	words    []string
	patterns []*regexp.Regexp
}

// Router matches messages against an ordered keyword table. It holds no mutable state
// and is safe for concurrent use.
type Router struct {
	topics []compiledTopic
}

// New compiles the default routing table.
func New() *Router {
	return NewWithTopics(DefaultTopics)
}

// NewWithTopics compiles a custom routing table, preserving its order.
func NewWithTopics(topics []TopicKeywords) *Router {
	r := &Router{topics: make([]compiledTopic, 0, len(topics))}
	for _, t := range topics {
		ct := compiledTopic{topic: t.Topic, agentID: t.AgentID}
		for _, kw := range t.Prefixes {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				ct.prefixes = append(ct.prefixes, kw)
			}
		}
		for _, kw := range t.Words {
			ct.addWord(kw)
		}
		r.topics = append(r.topics, ct)
	}
	return r
}

func (c *compiledTopic) addWord(keyword string) {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(strings.ToLower(keyword)) + `\b`)
	if err != nil {
		return
	}
	c.words = append(c.words, keyword)
	c.patterns = append(c.patterns, re)
}

// match returns the first keyword of the topic found in query, which must be lower-cased.
func (c *compiledTopic) match(query string) (string, bool) {
	for _, kw := range c.prefixes {
		if strings.Contains(query, kw) {
			return kw, true
		}
	}
	for i, p := range c.patterns {
		if p.MatchString(query) {
			return c.words[i], true
		}
	}
	return "", false
}

// Route returns the agent id that should handle text.
func (r *Router) Route(text string) string {
	return r.Decide(text).AgentID
}

// Decide routes text and reports which topic and keyword decided it.
func (r *Router) Decide(text string) Decision {
	decision := Decision{AgentID: agents.General, Topic: TopicNone, Input: text}

	query := strings.ToLower(strings.TrimSpace(text))
	if query == "" {
		return decision
	}

	for _, t := range r.topics {
		if kw, ok := t.match(query); ok {
			decision.AgentID = t.agentID
			decision.Topic = t.topic
			decision.Keyword = kw
			return decision
		}
	}

	return decision
}

var defaultRouter = New()

// Route routes text with the default table.
func Route(text string) string {
	return defaultRouter.Route(text)
}
