package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// FakePortal is an in-process stand-in for the taskAdmin servlet
type FakePortal struct {
	Server *httptest.Server

	mu           sync.Mutex
	identity     string
	secret       string
	report       []byte
	exportStatus int
	loginBody    string
	logoutStatus int
	sessions     map[string]bool
	requests     []url.Values
	nextID       int
}

// NewFakePortal starts a portal that accepts identity/secret. It is shut
// down when the test ends.
func NewFakePortal(t *testing.T, identity, secret string) *FakePortal {
	t.Helper()
	p := &FakePortal{
		identity:     identity,
		secret:       secret,
		exportStatus: http.StatusOK,
		logoutStatus: http.StatusOK,
		sessions:     make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/tg/servlet/taskAdmin", p.handle)
	p.Server = httptest.NewTLSServer(mux)
	t.Cleanup(p.Server.Close)
	return p
}

// URL returns the portal base URL
func (p *FakePortal) URL() string {
	return p.Server.URL + "/"
}

// SetReport sets the body served for every export
func (p *FakePortal) SetReport(body []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.report = body
}

// SetExportStatus makes exports answer with status
func (p *FakePortal) SetExportStatus(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exportStatus = status
}

// SetLoginBody replaces the login response body
func (p *FakePortal) SetLoginBody(body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loginBody = body
}

// SetLogoutStatus makes logouts answer with status
func (p *FakePortal) SetLogoutStatus(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logoutStatus = status
}

// ActiveSessions returns how many sessions were opened and not closed
func (p *FakePortal) ActiveSessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// Requests returns the query of every request with the given task id
func (p *FakePortal) Requests(taskID string) []url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []url.Values
	for _, q := range p.requests {
		if q.Get("taskId") == taskID {
			out = append(out, q)
		}
	}
	return out
}

func (p *FakePortal) handle(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q := r.URL.Query()
	p.requests = append(p.requests, q)

	switch q.Get("taskId") {
	case "senhaMstrSSOTask":
		w.Header().Set("Content-Type", "application/json")
		if p.loginBody != "" {
			_, _ = w.Write([]byte(p.loginBody))
			return
		}
		if q.Get("cpf") != p.identity || q.Get("senha") != p.secret {
			_ = json.NewEncoder(w).Encode(map[string]string{"errorMsg": "Usuário ou senha inválidos"})
			return
		}
		p.nextID++
		token := fmt.Sprintf("session-%d", p.nextID)
		p.sessions[token] = true
		_ = json.NewEncoder(w).Encode(map[string]string{"sessionState": token})

	case "logout":
		delete(p.sessions, q.Get("sessionState"))
		w.WriteHeader(p.logoutStatus)

	case "exportReport":
		if !p.sessions[q.Get("sessionState")] {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if p.exportStatus != http.StatusOK {
			w.WriteHeader(p.exportStatus)
			return
		}
		_, _ = w.Write(p.report)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
