package internal

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// TaskAdminPath is the servlet every portal task is dispatched through
const TaskAdminPath = "tg/servlet/taskAdmin"

// Portal task identifiers
const (
	TaskLogin  = "senhaMstrSSOTask"
	TaskLogout = "logout"
	TaskExport = "exportReport"
)

// portalResponse is a fully read task response
type portalResponse struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (r *portalResponse) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Portal issues task requests against the taskAdmin servlet. All parameters
// travel in the query string; no request has a body.
type Portal struct {
	endpoint *url.URL
	project  string
	client   *http.Client
}

// NewPortal builds a Portal from cfg. When cfg.VerifyTLS is false the
// server certificate is not checked.
func NewPortal(cfg Config) (*Portal, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !cfg.VerifyTLS} //nolint:gosec

	project := cfg.Project
	if project == "" {
		project = DefaultProject
	}

	return &Portal{
		endpoint: base.ResolveReference(&url.URL{Path: TaskAdminPath}),
		project:  project,
		client:   &http.Client{Timeout: cfg.Timeout, Transport: transport},
	}, nil
}

// Endpoint returns the taskAdmin URL
func (p *Portal) Endpoint() string {
	return p.endpoint.String()
}

// TaskURL returns the full request URL for the given parameters
func (p *Portal) TaskURL(params url.Values) string {
	u := *p.endpoint
	u.RawQuery = params.Encode()
	return u.String()
}

func (p *Portal) do(ctx context.Context, params url.Values) (*portalResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.TaskURL(params), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &portalResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}, nil
}

// redactedURL hides session tokens and passwords before a URL is logged
func (p *Portal) redactedURL(params url.Values) string {
	clean := url.Values{}
	for k, v := range params {
		switch k {
		case "sessionState", "senha":
			clean[k] = []string{"REDACTED"}
		default:
			clean[k] = v
		}
	}
	return p.TaskURL(clean)
}
