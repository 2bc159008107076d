package internal

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
)

// Credentials identify a portal user
type Credentials struct {
	Identity string `yaml:"cpf"`
	Secret   string `yaml:"senha"`
}

// Session is a server-issued token authorizing report exports until logout
type Session struct {
	Token       string
	Credentials Credentials
}

// Valid reports whether the session carries a token
func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}

// SessionProvider acquires and releases portal sessions
type SessionProvider interface {
	Login(ctx context.Context, creds Credentials) (*Session, error)
	Logout(ctx context.Context, session *Session)
}

// SessionManager logs in and out of the portal
type SessionManager struct {
	portal *Portal
}

// NewSessionManager creates a SessionManager bound to portal
func NewSessionManager(portal *Portal) *SessionManager {
	return &SessionManager{portal: portal}
}

func (m *SessionManager) loginParams(creds Credentials) url.Values {
	return url.Values{
		"taskId":          {TaskLogin},
		"taskEnv":         {"xhr"},
		"taskContentType": {"json"},
		"cpf":             {creds.Identity},
		"token":           {""},
		"server":          {""},
		"project":         {m.portal.project},
		"senha":           {creds.Secret},
		"novaSenha":       {""},
	}
}

// Login requests a new session. A response without a sessionState field
// fails with *AuthenticationError carrying the raw body.
func (m *SessionManager) Login(ctx context.Context, creds Credentials) (*Session, error) {
	params := m.loginParams(creds)
	LogDebug("Login request: %s", m.portal.redactedURL(params))

	resp, err := m.portal.do(ctx, params)
	if err != nil {
		return nil, &AuthenticationError{Err: err}
	}

	var payload struct {
		SessionState *string `json:"sessionState"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, &AuthenticationError{Status: resp.Status, Body: string(resp.Body), Err: err}
	}
	if payload.SessionState == nil || *payload.SessionState == "" {
		return nil, &AuthenticationError{Status: resp.Status, Body: string(resp.Body)}
	}

	LogInfo("Session started for %s", maskIdentity(creds.Identity))
	return &Session{Token: *payload.SessionState, Credentials: creds}, nil
}

// Logout invalidates the session. Failures are logged and otherwise ignored;
// the portal reaps stale sessions on its own.
func (m *SessionManager) Logout(ctx context.Context, session *Session) {
	if !session.Valid() {
		return
	}

	params := url.Values{
		"taskId":       {TaskLogout},
		"sessionState": {session.Token},
	}
	resp, err := m.portal.do(ctx, params)
	if err != nil {
		LogWarn("Failed to end session: %v", err)
		return
	}
	if !resp.ok() {
		LogWarn("Failed to end session: %s", resp.Status)
		return
	}
	LogDebug("Session ended")
}

// WithSession logs in, runs fn with the session and always logs out
// afterwards, including when fn fails or panics. fn's error is returned as is.
func WithSession(ctx context.Context, provider SessionProvider, creds Credentials, fn func(*Session) error) error {
	if provider == nil {
		return errors.New("nil session provider")
	}

	session, err := provider.Login(ctx, creds)
	if err != nil {
		return err
	}
	// logout must run even when ctx is already done
	defer provider.Logout(context.WithoutCancel(ctx), session)

	return fn(session)
}

// maskIdentity keeps the last three characters of a CPF for logs
func maskIdentity(identity string) string {
	if len(identity) <= 3 {
		return "***"
	}
	return "***" + identity[len(identity)-3:]
}
