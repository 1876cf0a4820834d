package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

// Format renders conversation as the prompt injected into the destination.
// The output depends only on its arguments.
func Format(conversation domain.Conversation, source, destination domain.SiteID) string {
	lines := make([]string, len(conversation))
	for i, msg := range conversation {
		lines[i] = fmt.Sprintf("%s (%d): %s", msg.Role.Label(), i+1, msg.Content)
	}

	from := strings.ToUpper(source.String())
	n := len(conversation)

	var b strings.Builder
	fmt.Fprintf(&b, "I'm transferring a conversation from %s to you on %s. ", from, destination.DisplayName())
	b.WriteString("Please store this conversation in your memory, including all code snippets and formatting. ")
	fmt.Fprintf(&b, "The conversation consists of %d messages.\n\n", n)
	b.WriteString("CONVERSATION HISTORY:\n---\n")
	b.WriteString(strings.Join(lines, "\n\n"))
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "Please respond with: \"I've received and stored the conversation history from %s. ", from)
	fmt.Fprintf(&b, "I now have access to all %d messages including any code snippets and context. How would you like to proceed?\"", n)
	return b.String()
}
