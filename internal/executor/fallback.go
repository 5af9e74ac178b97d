package executor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/agents"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/tools"
)

var cannedReplies = map[string]string{
	agents.MarketAnalyst: "Markets move on earnings, interest-rate expectations, and economic data such as inflation and employment. " +
		"Rather than reacting to daily swings, look at trends over several months and compare a company's valuation with its sector. " +
		"Ask me for the price of a ticker or the latest news on a company and I will look it up.",
	agents.PortfolioManager: "A sound portfolio starts with an emergency fund and a clear time horizon. " +
		"Diversify across asset classes with broad, low-cost index funds or ETFs, set a stock and bond mix that matches your risk tolerance, " +
		"and rebalance once or twice a year so no single holding dominates. " +
		"Share your holdings and I can analyze concentration, gains, and allocation.",
	agents.FinancialAdvisor: "Good financial planning begins with knowing where your money goes. " +
		"Build a budget, keep three to six months of expenses in an emergency fund, pay down high-interest debt first, " +
		"and then automate saving toward goals with specific amounts and deadlines. " +
		"Tell me your income, expenses, and goals and I can outline a plan.",
	agents.TaxPlanner: "Common ways to reduce taxes include maximizing contributions to tax-advantaged accounts such as 401(k)s, IRAs, and HSAs, " +
		"holding investments longer than a year for lower long-term capital gains rates, harvesting losses to offset gains, " +
		"and placing tax-inefficient assets in tax-deferred accounts. Rules vary by jurisdiction, so confirm details with a tax professional.",
	agents.RetirementPlanner: "For retirement, start early and let compounding work. " +
		"Capture any employer 401(k) match, consider a Roth or traditional IRA depending on your current and expected tax bracket, " +
		"and shift gradually toward more conservative investments as retirement approaches. " +
		"A common rule of thumb is to aim to replace 70 to 80 percent of pre-retirement income.",
	agents.General: "I can help with budgeting, saving, investing, taxes, retirement, and market questions. " +
		"Ask about a specific stock, share your portfolio for an analysis, or describe a goal and I will point you in the right direction.",
}

const defaultCannedReply = "I'm here to help with your financial questions. " +
	"Could you tell me a little more about what you would like to know?"

// CannedReply returns the fixed answer for an agent id, or the default answer.
func CannedReply(agentID string) string {
	if reply, ok := cannedReplies[agentID]; ok {
		return reply
	}
	return defaultCannedReply
}

// Fallback answers without a language model: it runs a tool when the message asks for one
// the agent has, and otherwise returns the agent's canned paragraph.
type Fallback struct {
	tools  *tools.Set
	logger *zap.SugaredLogger
}

func NewFallback(toolSet *tools.Set, logger *zap.SugaredLogger) *Fallback {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Fallback{tools: toolSet, logger: logger}
}

func (f *Fallback) Invoke(ctx context.Context, inv Invocation) (Result, error) {
	message := strings.TrimSpace(inv.Message)
	if message == "" {
		return Result{}, ErrEmptyMessage
	}

	agent := agents.Get(inv.AgentID)
	result := Result{AgentID: agent.Name, Strategy: StrategyFallback}

	if f.tools != nil {
		if intent, ok := tools.DetectIntent(message, agent.Tools); ok {
			out, err := f.tools.Run(ctx, intent.Tool, intent.Input)
			if err != nil {
				return Result{}, fmt.Errorf("executor: fallback tool %s: %w", intent.Tool, err)
			}
			result.Text = out
			result.Tool = intent.Tool
			return result, nil
		}
	}

	result.Text = CannedReply(inv.AgentID)
	return result, nil
}
