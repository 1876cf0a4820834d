package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

// VersionInfo is the /json/version document of a DevTools endpoint.
type VersionInfo struct {
	Browser              string `json:"Browser"`
	ProtocolVersion      string `json:"Protocol-Version"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// Discover reads /json/version from browserURL. A ws:// or wss:// URL is
// taken as the browser websocket itself.
func Discover(ctx context.Context, client *http.Client, browserURL string) (VersionInfo, error) {
	if strings.HasPrefix(browserURL, "ws://") || strings.HasPrefix(browserURL, "wss://") {
		return VersionInfo{WebSocketDebuggerURL: browserURL}, nil
	}
	if client == nil {
		client = http.DefaultClient
	}

	endpoint := strings.TrimRight(browserURL, "/") + "/json/version"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return VersionInfo{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return VersionInfo{}, fmt.Errorf("%w: is it running with --remote-debugging-port? %v", domain.ErrBrowserUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return VersionInfo{}, fmt.Errorf("%w: %s returned %s", domain.ErrBrowserUnavailable, endpoint, resp.Status)
	}

	var info VersionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return VersionInfo{}, fmt.Errorf("%w: invalid version document: %v", domain.ErrBrowserUnavailable, err)
	}
	if info.WebSocketDebuggerURL == "" {
		return VersionInfo{}, fmt.Errorf("%w: no webSocketDebuggerUrl at %s", domain.ErrBrowserUnavailable, endpoint)
	}
	return info, nil
}
