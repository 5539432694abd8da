// Package session talks to the external browser-session service that hosts
// remote pages for manual listing work.
package session

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/lukman83/dealdesk/internal/apperr"
	"github.com/lukman83/dealdesk/internal/httputil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

const openPath = "/api/tools/browser/open"

type Client struct {
	baseURL  string
	tenantID string
	http     *http.Client
}

func NewClient(baseURL, tenantID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		tenantID: tenantID,
		http:     httputil.NewHTTPClient(timeout),
	}
}

type openRequest struct {
	TenantID   string `json:"tenant_id"`
	URL        string `json:"url"`
	Persistent bool   `json:"persistent"`
}

type openResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	Error     string `json:"error"`
}

// Open asks the service for a persistent session on url and returns its id.
func (c *Client) Open(ctx context.Context, url string) (string, error) {
	if c.tenantID == "" {
		return "", apperr.New(apperr.DownstreamFailure, "session service: TENANT_ID not set")
	}

	body, err := json.Marshal(openRequest{TenantID: c.tenantID, URL: url, Persistent: true})
	if err != nil {
		return "", apperr.Wrap(err, apperr.Internal, "encode session request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+openPath, bytes.NewReader(body))
	if err != nil {
		return "", apperr.Wrap(err, apperr.Internal, "build session request")
	}
	req.Header = httputil.JSONHeaders()

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.Wrap(err, apperr.DownstreamFailure, "session service unreachable")
	}
	defer resp.Body.Close()

	data, err := httputil.ReadBody(resp)
	if err != nil {
		return "", apperr.Wrap(err, apperr.DownstreamFailure, "read session response")
	}

	var out openResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", apperr.Wrap(fmt.Errorf("status %d: %w", resp.StatusCode, err), apperr.DownstreamFailure, "decode session response")
	}
	if !out.Success || out.SessionID == "" {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", apperr.Newf(apperr.DownstreamFailure, "failed to open browser session: %s", msg)
	}
	return out.SessionID, nil
}
