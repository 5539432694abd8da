package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lukman83/dealdesk/config"
)

func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestDefaults(t *testing.T) {
	rq := require.New(t)
	unset(t, "DEALDESK_STATE_DIR", "DEALDESK_STRICT_TRANSITIONS", "DEALDESK_LOCK_TIMEOUT",
		"SMTP_HOST", "SMTP_PORT", "GMAIL_USER", "GMAIL_APP_PASSWORD", "DEALDESK_NOTIFY_TIMEOUT",
		"DEALDESK_NOTIFY_RATE", "DEALDESK_NOTIFY_BURST", "API_BASE_URL", "DEALDESK_SESSION_TIMEOUT")

	cfg, err := config.FromEnv()
	rq.NoError(err)
	rq.Equal("state", cfg.StateDir)
	rq.False(cfg.StrictTransitions)
	rq.Equal(5*time.Second, cfg.LockTimeout)
	rq.Equal("smtp.gmail.com", cfg.SMTPHost)
	rq.Equal(465, cfg.SMTPPort)
	rq.Equal(30*time.Second, cfg.NotifyTimeout)
	rq.Equal(2.0, cfg.NotifyRate)
	rq.Equal(3, cfg.NotifyBurst)
	rq.Equal("http://localhost:3000", cfg.APIBaseURL)
	rq.Equal(60*time.Second, cfg.SessionTimeout)
	rq.False(cfg.EmailConfigured())
}

func TestOverrides(t *testing.T) {
	rq := require.New(t)
	t.Setenv("DEALDESK_STATE_DIR", "/var/lib/dealdesk")
	t.Setenv("DEALDESK_STRICT_TRANSITIONS", "true")
	t.Setenv("DEALDESK_NOTIFY_TIMEOUT", "2s")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("GMAIL_USER", "me@example.org")
	t.Setenv("GMAIL_APP_PASSWORD", "secret")

	cfg, err := config.FromEnv()
	rq.NoError(err)
	rq.Equal("/var/lib/dealdesk", cfg.StateDir)
	rq.True(cfg.StrictTransitions)
	rq.Equal(2*time.Second, cfg.NotifyTimeout)
	rq.Equal(587, cfg.SMTPPort)
	rq.True(cfg.EmailConfigured())
}

func TestInvalid(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unparsable port", key: "SMTP_PORT", val: "smtp"},
		{name: "port out of range", key: "SMTP_PORT", val: "70000"},
		{name: "zero concurrency", key: "DEALDESK_NOTIFY_CONCURRENCY", val: "0"},
		{name: "bad duration", key: "DEALDESK_LOCK_TIMEOUT", val: "soon"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := config.FromEnv()
			require.Error(t, err)
		})
	}
}
