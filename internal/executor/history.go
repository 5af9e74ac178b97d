package executor

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	defaultSummaryThreshold = 12
	defaultRecentKeep       = 6
	maxSummaryRuneLength    = 120
)

// splitHistory drops empty turns and, once more than threshold remain, condenses all but
// the last recentKeep turns into a numbered summary.
func splitHistory(history []Turn, threshold, recentKeep int, assistantName string) (string, []Turn) {
	cleaned := make([]Turn, 0, len(history))
	for _, msg := range history {
		content := strings.TrimSpace(msg.Content)
		role := strings.TrimSpace(msg.Role)
		if content == "" {
			continue
		}
		if role == "" {
			role = RoleUser
		}
		cleaned = append(cleaned, Turn{Role: role, Content: content})
	}

	if threshold <= 0 || len(cleaned) <= threshold {
		return "", cleaned
	}

	if recentKeep <= 0 {
		recentKeep = defaultRecentKeep
	}
	if recentKeep > len(cleaned) {
		recentKeep = len(cleaned)
	}

	cutoff := len(cleaned) - recentKeep
	summary := summariseTurns(cleaned[:cutoff], assistantName)
	preserved := append([]Turn(nil), cleaned[cutoff:]...)

	return summary, preserved
}

func summariseTurns(turns []Turn, assistantName string) string {
	if len(turns) == 0 {
		return ""
	}

	var builder strings.Builder
	index := 1
	for _, t := range turns {
		builder.WriteString(fmt.Sprintf("%d. %s: %s\n", index, labelForRole(t.Role, assistantName), truncateRunes(t.Content, maxSummaryRuneLength)))
		index++
	}

	return strings.TrimSpace(builder.String())
}

func labelForRole(role, assistantName string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleAssistant, "model":
		if strings.TrimSpace(assistantName) != "" {
			return assistantName
		}
		return "Assistant"
	case "system":
		return "System"
	case "tool":
		return "Tool"
	default:
		return "User"
	}
}

func truncateRunes(input string, max int) string {
	if max <= 0 || utf8.RuneCountInString(input) <= max {
		return input
	}

	var builder strings.Builder
	count := 0
	for _, r := range input {
		if count >= max {
			builder.WriteRune('…')
			break
		}
		builder.WriteRune(r)
		count++
	}
	return builder.String()
}
