package httputil_test

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/require"

	"github.com/lukman83/dealdesk/internal/httputil"
)

func response(encoding string, body []byte) *http.Response {
	resp := &http.Response{Header: http.Header{}, Body: io.NopCloser(bytes.NewReader(body))}
	if encoding != "" {
		resp.Header.Set("Content-Encoding", encoding)
	}
	return resp
}

func TestReadBody(t *testing.T) {
	payload := []byte(`{"success":true,"session_id":"sess_1"}`)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, err = bw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, bw.Close())

	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{"identity", "", payload},
		{"gzip", "gzip", gz.Bytes()},
		{"brotli", "br", br.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rq := require.New(t)
			got, err := httputil.ReadBody(response(tt.encoding, tt.body))
			rq.NoError(err)
			rq.Equal(payload, got)
		})
	}
}

func TestReadBodyBadGzip(t *testing.T) {
	_, err := httputil.ReadBody(response("gzip", []byte("plain")))
	require.Error(t, err)
}

func TestNewHTTPClientTimeout(t *testing.T) {
	rq := require.New(t)
	rq.Equal(httputil.DefaultTimeout, httputil.NewHTTPClient(0).Timeout)
	rq.Equal(5*time.Second, httputil.NewHTTPClient(5*time.Second).Timeout)
	rq.Equal("application/json", httputil.JSONHeaders().Get("Content-Type"))
}
