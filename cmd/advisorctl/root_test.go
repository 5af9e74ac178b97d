package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/agents"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/router"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	outputJSON = false

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestRouteCommand(t *testing.T) {
	out := run(t, "route", "When", "should", "I", "rebalance?")
	assert.Contains(t, out, "agent:   "+agents.PortfolioManager)
	assert.Contains(t, out, "topic:   investment")
	assert.Contains(t, out, "keyword: rebalanc")
}

func TestRouteCommandJSON(t *testing.T) {
	out := run(t, "--json", "route", "what about my roth ira")

	var decision router.Decision
	require.NoError(t, json.Unmarshal([]byte(out), &decision))
	assert.Equal(t, agents.RetirementPlanner, decision.AgentID)
	assert.Equal(t, router.TopicRetirement, decision.Topic)
}

func TestRouteCommandNeedsMessage(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"route"})
	require.Error(t, root.Execute())
}

func TestAgentsCommand(t *testing.T) {
	out := run(t, "agents")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(agents.IDs())+1)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, out, agents.TaxPlanner)
	assert.Contains(t, out, agents.ToolTaxOptimization)
}
