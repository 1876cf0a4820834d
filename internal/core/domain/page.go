package domain

// PageInfo describes one browser tab.
type PageInfo struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Action names the request sent to a page agent or the message router.
type Action string

// Recognised actions.
const (
	ActionPreview  Action = "previewConversation"
	ActionScrape   Action = "scrapeConversation"
	ActionInject   Action = "injectConversation"
	ActionTransfer Action = "transferConversation"
)

// IsValid returns true if the action is recognised.
func (a Action) IsValid() bool {
	switch a {
	case ActionPreview, ActionScrape, ActionInject, ActionTransfer:
		return true
	default:
		return false
	}
}

// PageRequest is a message keyed by Action.
type PageRequest struct {
	Action      Action `json:"action"`
	Source      SiteID `json:"source,omitempty"`
	Destination SiteID `json:"destination,omitempty"`
}

// PageResponse carries either a conversation (scrape, preview) or a
// success flag (inject, transfer), plus an error message on failure.
type PageResponse struct {
	Conversation Conversation `json:"conversation,omitempty"`
	Success      bool         `json:"success,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// Failed builds a response for err.
func Failed(err error) PageResponse {
	return PageResponse{Success: false, Error: err.Error()}
}
