package cdp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// fakeBrowser speaks enough of the DevTools protocol for the adapter.
type fakeBrowser struct {
	t      *testing.T
	server *httptest.Server

	upgrader websocket.Upgrader
	writeMu  sync.Mutex
	ws       *websocket.Conn
	ready    chan struct{}

	mu       sync.Mutex
	targets  []targetInfo
	nextID   int
	methods  []string
	evaluate func(sessionID, expression string) any
	override map[string]func(req message) (any, *Error)
}

func newFakeBrowser(t *testing.T) *fakeBrowser {
	t.Helper()
	f := &fakeBrowser{
		t:        t,
		ready:    make(chan struct{}),
		override: make(map[string]func(message) (any, *Error)),
		evaluate: func(string, string) any { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/json/version", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(VersionInfo{
			Browser:              "FakeChrome/1.0",
			WebSocketDebuggerURL: "ws://" + r.Host + "/devtools/browser/fake",
		})
	})
	mux.HandleFunc("/devtools/browser/fake", f.serveWS)

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeBrowser) URL() string {
	return f.server.URL
}

func (f *fakeBrowser) addTarget(kind, url string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("T%d", f.nextID)
	f.targets = append(f.targets, targetInfo{TargetID: id, Type: kind, URL: url, Title: url})
	return id
}

func (f *fakeBrowser) setEvaluate(fn func(sessionID, expression string) any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evaluate = fn
}

func (f *fakeBrowser) handle(method string, fn func(req message) (any, *Error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.override[method] = fn
}

func (f *fakeBrowser) called(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.methods {
		if m == method {
			n++
		}
	}
	return n
}

// emit pushes an event to the client.
func (f *fakeBrowser) emit(sessionID, method string, params any) {
	<-f.ready
	raw, err := json.Marshal(params)
	require.NoError(f.t, err)
	f.write(message{SessionID: sessionID, Method: method, Params: raw})
}

func (f *fakeBrowser) write(msg message) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_ = f.ws.WriteJSON(msg)
}

func (f *fakeBrowser) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	f.ws = ws
	close(f.ready)
	defer ws.Close()

	for {
		var req message
		if err := ws.ReadJSON(&req); err != nil {
			return
		}
		result, rpcErr := f.dispatch(req)
		resp := message{ID: req.ID, SessionID: req.SessionID, Error: rpcErr}
		if rpcErr == nil {
			resp.Result, _ = json.Marshal(result)
		}
		f.write(resp)
	}
}

func (f *fakeBrowser) dispatch(req message) (any, *Error) {
	f.mu.Lock()
	f.methods = append(f.methods, req.Method)
	fn, ok := f.override[req.Method]
	f.mu.Unlock()
	if ok {
		return fn(req)
	}

	var params map[string]any
	_ = json.Unmarshal(req.Params, &params)

	switch req.Method {
	case "Target.setDiscoverTargets", "Page.enable":
		return map[string]any{}, nil

	case "Target.getTargets":
		f.mu.Lock()
		defer f.mu.Unlock()
		return map[string]any{"targetInfos": append([]targetInfo(nil), f.targets...)}, nil

	case "Target.activateTarget", "Target.attachToTarget":
		id, _ := params["targetId"].(string)
		if !f.hasTarget(id) {
			return nil, &Error{Code: -32602, Message: "No target with given id found"}
		}
		if req.Method == "Target.attachToTarget" {
			return map[string]any{"sessionId": "S-" + id}, nil
		}
		return map[string]any{}, nil

	case "Target.createTarget":
		url, _ := params["url"].(string)
		return map[string]any{"targetId": f.addTarget("page", url)}, nil

	case "Runtime.evaluate":
		expr, _ := params["expression"].(string)
		f.mu.Lock()
		eval := f.evaluate
		f.mu.Unlock()
		return map[string]any{"result": map[string]any{"type": "object", "value": eval(req.SessionID, expr)}}, nil
	}

	return nil, &Error{Code: -32601, Message: "'" + req.Method + "' wasn't found"}
}

func (f *fakeBrowser) hasTarget(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.targets {
		if t.TargetID == id {
			return true
		}
	}
	return false
}

// wsURL converts an httptest URL to its websocket form.
func wsURL(httpURL, path string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + path
}
