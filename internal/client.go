package internal

import "context"

// Client bundles the session and report components for one portal
type Client struct {
	Sessions *SessionManager
	Reports  *ReportFetcher
}

// NewClient builds a Client from cfg
func NewClient(cfg Config) (*Client, error) {
	portal, err := NewPortal(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		Sessions: NewSessionManager(portal),
		Reports:  NewReportFetcher(portal),
	}, nil
}

// FetchReport logs in, exports the report and logs out
func (c *Client) FetchReport(ctx context.Context, creds Credentials, req *ReportRequest) (*ReportPayload, error) {
	var payload *ReportPayload
	err := WithSession(ctx, c.Sessions, creds, func(s *Session) error {
		var err error
		payload, err = c.Reports.Fetch(ctx, s, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchTable fetches a csv or excel report and normalizes it
func (c *Client) FetchTable(ctx context.Context, creds Credentials, req *ReportRequest) (*NormalizedTable, error) {
	payload, err := c.FetchReport(ctx, creds, req)
	if err != nil {
		return nil, err
	}
	return Normalize(payload)
}
