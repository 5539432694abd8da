package session_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lukman83/dealdesk/internal/apperr"
	"github.com/lukman83/dealdesk/internal/session"
)

func TestOpen(t *testing.T) {
	rq := require.New(t)

	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rq.Equal(http.MethodPost, r.Method)
		rq.Equal("/api/tools/browser/open", r.URL.Path)
		rq.Equal("application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"session_id":"sess_42","title":"Sell"}`)
	}))
	defer srv.Close()

	c := session.NewClient(srv.URL+"/", "tenant-a", time.Second)
	id, err := c.Open(context.Background(), "https://www.ebay.com/sl/sell")
	rq.NoError(err)
	rq.Equal("sess_42", id)
	rq.JSONEq(`{"tenant_id":"tenant-a","url":"https://www.ebay.com/sl/sell","persistent":true}`, gotBody)
}

func TestOpenFailures(t *testing.T) {
	tests := []struct {
		name    string
		tenant  string
		status  int
		body    string
		wantMsg string
	}{
		{"service error", "t", http.StatusOK, `{"success":false,"error":"no capacity"}`, "no capacity"},
		{"bad gateway", "t", http.StatusBadGateway, `{}`, "status 502"},
		{"not json", "t", http.StatusOK, `<html>`, "decode session response"},
		{"no tenant", "", http.StatusOK, `{"success":true,"session_id":"x"}`, "TENANT_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rq := require.New(t)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := session.NewClient(srv.URL, tt.tenant, time.Second).Open(context.Background(), "https://x")
			rq.True(apperr.HasCode(err, apperr.DownstreamFailure))
			rq.Contains(err.Error(), tt.wantMsg)
		})
	}
}

func TestOpenHonoursTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := session.NewClient(srv.URL, "t", 50*time.Millisecond).Open(context.Background(), "https://x")
	require.True(t, apperr.HasCode(err, apperr.DownstreamFailure))
}
