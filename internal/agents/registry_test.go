package agents

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetKnownAgent(t *testing.T) {
	def := Get(TaxPlanner)
	assert.Equal(t, TaxPlanner, def.Name)
	assert.Equal(t, "Tax Strategist", def.DisplayName)
	assert.True(t, def.HasTool(ToolTaxOptimization))
	assert.False(t, def.HasTool(ToolNewsSearch))
}

func TestGetReturnsIndependentTools(t *testing.T) {
	def := Get(MarketAnalyst)
	require.NotEmpty(t, def.Tools)
	original := def.Tools[0]

	def.Tools[0] = "tampered"
	def.Tools = append(def.Tools, "extra")

	again := Get(MarketAnalyst)
	assert.Equal(t, original, again.Tools[0])
	assert.NotContains(t, again.Tools, "extra")
	assert.NotContains(t, again.Tools, "tampered")
}

func TestGetUnknownFallsBackToDefault(t *testing.T) {
	def := Get("nonexistent")
	assert.Equal(t, DefaultID, def.Name)
	assert.NotEmpty(t, def.DisplayName)
	assert.NotEmpty(t, def.Instructions)

	assert.Equal(t, DefaultID, Get("").Name)
}

func TestGetErrorSentinel(t *testing.T) {
	def := Get(ErrorID)
	assert.Equal(t, ErrorID, def.Name)
	assert.Equal(t, "alert-circle", def.Icon)
	assert.Empty(t, def.Tools)
}

func TestRoutingDescriptions(t *testing.T) {
	descriptions := RoutingDescriptions()
	require.Len(t, descriptions, len(IDs()))

	for _, id := range IDs() {
		desc, ok := descriptions[id]
		require.True(t, ok, "missing routing description for %s", id)
		def := Get(id)
		assert.True(t, strings.HasPrefix(desc, def.DisplayName+": "))
		assert.True(t, strings.HasSuffix(desc, def.Description))
	}

	_, hasError := descriptions[ErrorID]
	assert.False(t, hasError)
}

func TestIDsReturnsCopy(t *testing.T) {
	ids := IDs()
	ids[0] = "mutated"
	assert.Equal(t, MarketAnalyst, IDs()[0])
}

func TestConcurrentReads(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, id := range IDs() {
				_ = Get(id)
			}
			_ = RoutingDescriptions()
		}()
	}
	wg.Wait()
}

func TestGenerateConversationTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: "New Financial Conversation"},
		{name: "short", input: "How should I invest?", want: "How should I invest?"},
		{name: "exactly fifty", input: strings.Repeat("a", 50), want: strings.Repeat("a", 50)},
		{name: "fifty one", input: strings.Repeat("b", 51), want: strings.Repeat("b", 47) + "..."},
		{name: "long", input: strings.Repeat("c", 200), want: strings.Repeat("c", 47) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateConversationTitle(tt.input)
			assert.Equal(t, tt.want, got)
			if len(tt.input) > 50 {
				assert.Len(t, got, 50)
			}
		})
	}
}

func TestGenerateConversationTitleMultibyte(t *testing.T) {
	input := strings.Repeat("€", 60)
	got := GenerateConversationTitle(input)
	assert.Equal(t, 50, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
}
