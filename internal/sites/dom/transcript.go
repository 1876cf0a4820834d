package dom

import (
	"strings"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

// fragmentSeparator joins coalesced fragments of one message.
const fragmentSeparator = "\n"

// Transcript accumulates messages in document order.
type Transcript struct {
	messages domain.Conversation
}

// Append adds a message. Blank content is dropped.
func (t *Transcript) Append(role domain.Role, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	t.messages = append(t.messages, domain.Message{Role: role, Content: content})
}

// AppendFragment adds content to the previous message when it has the same
// role, otherwise starts a new one. Sites without explicit message
// boundaries render one reply as several sibling nodes.
func (t *Transcript) AppendFragment(role domain.Role, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	if n := len(t.messages); n > 0 && t.messages[n-1].Role == role {
		t.messages[n-1].Content += fragmentSeparator + content
		return
	}
	t.messages = append(t.messages, domain.Message{Role: role, Content: content})
}

// Len returns the number of messages so far.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Conversation returns the assembled messages.
// Returns domain.ErrNoConversationFound if nothing was appended.
func (t *Transcript) Conversation() (domain.Conversation, error) {
	if len(t.messages) == 0 {
		return nil, domain.ErrNoConversationFound
	}
	return t.messages.Clone(), nil
}
