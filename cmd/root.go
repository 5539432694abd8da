package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lukman83/dealdesk/config"
	"github.com/lukman83/dealdesk/internal/buyers"
	"github.com/lukman83/dealdesk/internal/deals"
	"github.com/lukman83/dealdesk/internal/listings"
	"github.com/lukman83/dealdesk/internal/logx"
	"github.com/lukman83/dealdesk/internal/matching"
	"github.com/lukman83/dealdesk/internal/metrics"
	"github.com/lukman83/dealdesk/internal/models"
	"github.com/lukman83/dealdesk/internal/notify"
	"github.com/lukman83/dealdesk/internal/session"
	"github.com/lukman83/dealdesk/internal/store"
	"github.com/lukman83/dealdesk/internal/tools"
)

// errReported marks a failure whose error response is already on stdout.
var errReported = errors.New("reported")

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dealdesk",
	Short: "dealdesk - resale deal tracking and buyer notification CLI & MCP server",
	Long: "Track second-hand deals from discovery to sale, price them per marketplace, " +
		"and alert a network of buyers. Every tool reads one JSON request and writes one JSON response.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("state-dir", "", "Directory holding deals.json, listings.json and buyers.json (default $DEALDESK_STATE_DIR or ./state)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("strict-transitions", false, "Reject status changes outside the deal lifecycle")
}

func initConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load()
	if err != nil {
		return err
	}

	// Override from flags
	flags := cmd.Flags()
	if v, _ := flags.GetString("state-dir"); v != "" {
		c.StateDir = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		c.LogLevel = v
	}
	if flags.Changed("strict-transitions") {
		c.StrictTransitions, _ = flags.GetBool("strict-transitions")
	}

	cfg = c
	logger = logx.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)
	return nil
}

// newService wires the store, the domain components and their outbound
// channels from cfg.
func newService(c *config.Config, m *metrics.Metrics) *tools.Service {
	s := store.New(c.StateDir, store.WithLockTimeout(c.LockTimeout))

	book := listings.NewBook(s, session.NewClient(c.APIBaseURL, c.TenantID, c.SessionTimeout))
	registry := buyers.NewRegistry(s)

	email := notify.NewEmailSender(notify.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUser,
		Password: c.SMTPPassword,
	})
	engine := matching.NewEngine(registry,
		matching.WithSender(models.ContactEmail, email),
		matching.WithRateLimit(c.NotifyRate, c.NotifyBurst),
		matching.WithConcurrency(c.NotifyConcurrency),
		matching.WithSendTimeout(c.NotifyTimeout),
		matching.WithObserver(m.ObserveNotification),
	)

	return tools.NewService(tools.Deps{
		Store:    s,
		Deals:    deals.NewManager(s, book, deals.WithStrictTransitions(c.StrictTransitions)),
		Listings: book,
		Buyers:   registry,
		Engine:   engine,
		Metrics:  m,
	})
}
