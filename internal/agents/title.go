package agents

const (
	maxTitleRunes  = 50
	titleKeepRunes = 47
	defaultTitle   = "New Financial Conversation"
	titleEllipsis  = "..."
)

// GenerateConversationTitle derives a conversation title from its first message.
// Messages of at most 50 characters are used as-is; longer ones keep the first 47
// characters followed by "...".
func GenerateConversationTitle(message string) string {
	if message == "" {
		return defaultTitle
	}

	runes := []rune(message)
	if len(runes) <= maxTitleRunes {
		return message
	}

	return string(runes[:titleKeepRunes]) + titleEllipsis
}
