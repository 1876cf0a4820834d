package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Role identifies who authored a message.
type Role string

// Valid roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is one of the two recognised roles.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Label returns the label used in transfer prompts.
func (r Role) Label() string {
	if r == RoleUser {
		return "Human"
	}
	return "AI"
}

// Message is one turn of a conversation.
// Content is plain text or a cleaned HTML fragment, depending on the site.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is an ordered sequence of messages in chat order.
type Conversation []Message

// Len returns the number of messages.
func (c Conversation) Len() int {
	return len(c)
}

// Clone returns a copy that shares no backing array with c.
func (c Conversation) Clone() Conversation {
	if c == nil {
		return nil
	}
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}

// InvalidReason classifies a conversation validation failure.
type InvalidReason string

// Validation failure reasons.
const (
	ReasonNotAnArray   InvalidReason = "not_an_array"
	ReasonEmpty        InvalidReason = "empty"
	ReasonMissingField InvalidReason = "missing_field"
	ReasonInvalidRole  InvalidReason = "invalid_role"
)

// ConversationError describes why a conversation failed validation.
type ConversationError struct {
	Reason InvalidReason
	// Index is the offending message, or -1 for whole-conversation failures.
	Index int
	Role  Role
}

func (e *ConversationError) Error() string {
	switch e.Reason {
	case ReasonNotAnArray:
		return "conversation data must be an array"
	case ReasonEmpty:
		return "conversation is empty"
	case ReasonMissingField:
		return fmt.Sprintf("message at index %d is missing required properties", e.Index)
	case ReasonInvalidRole:
		return fmt.Sprintf("invalid role %q at message index %d", e.Role, e.Index)
	default:
		return "invalid conversation"
	}
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidInput).
func (e *ConversationError) Unwrap() error {
	return ErrInvalidInput
}

// ValidateConversation checks c is non-empty and every message carries a
// valid role and non-empty content.
func ValidateConversation(c Conversation) error {
	if len(c) == 0 {
		return &ConversationError{Reason: ReasonEmpty, Index: -1}
	}
	for i, m := range c {
		if m.Role == "" || m.Content == "" {
			return &ConversationError{Reason: ReasonMissingField, Index: i}
		}
		if !m.Role.IsValid() {
			return &ConversationError{Reason: ReasonInvalidRole, Index: i, Role: m.Role}
		}
	}
	return nil
}

// DecodeConversation parses JSON conversation data and validates it.
// Data that is not a JSON array is reported as ReasonNotAnArray.
func DecodeConversation(data []byte) (Conversation, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &ConversationError{Reason: ReasonNotAnArray, Index: -1}
	}

	var c Conversation
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return nil, fmt.Errorf("%w: decode conversation: %w", ErrInvalidInput, err)
	}
	if err := ValidateConversation(c); err != nil {
		return nil, err
	}
	return c, nil
}

// PreviewItem is one truncated message shown before a transfer.
type PreviewItem struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

// ConversationPreview is a short summary of a conversation.
type ConversationPreview struct {
	Items     []PreviewItem `json:"items"`
	Remaining int           `json:"remaining"`
	Total     int           `json:"total"`
}

// Preview limits and defaults.
const (
	PreviewMessages = 3
	PreviewRunes    = 100
)

// Preview returns the first PreviewMessages messages, each cut to
// PreviewRunes characters, and how many messages were left out.
func Preview(c Conversation) ConversationPreview {
	n := len(c)
	if n > PreviewMessages {
		n = PreviewMessages
	}

	p := ConversationPreview{
		Items: make([]PreviewItem, 0, n),
		Total: len(c),
	}
	for _, m := range c[:n] {
		label := "AI"
		if m.Role == RoleUser {
			label = "You"
		}
		p.Items = append(p.Items, PreviewItem{Label: label, Content: truncateRunes(m.Content, PreviewRunes)})
	}
	p.Remaining = len(c) - n
	return p
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}

// MoreText returns the "+ N more messages" line, or "" when every message
// is shown.
func (p ConversationPreview) MoreText() string {
	if p.Remaining <= 0 {
		return ""
	}
	return fmt.Sprintf("+ %d more messages", p.Remaining)
}
