package matching

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/lukman83/dealdesk/internal/apperr"
	"github.com/lukman83/dealdesk/internal/logx"
	"github.com/lukman83/dealdesk/internal/models"
	"github.com/lukman83/dealdesk/internal/notify"
)

const (
	DefaultMaxNotifications = 3
	defaultSendTimeout      = 30 * time.Second
	defaultConcurrency      = 3
)

// BuyerSource lists the buyer network.
type BuyerSource interface {
	List(ctx context.Context) ([]models.Buyer, error)
}

type Alert struct {
	Item             Item
	Category         string
	NotifyAll        bool
	MaxNotifications int
}

type Result struct {
	Buyer   string               `json:"buyer"`
	Success bool                 `json:"success"`
	Method  models.ContactMethod `json:"method"`
	To      string               `json:"to,omitempty"`
	Message string               `json:"message,omitempty"`
	Error   string               `json:"error,omitempty"`
}

type Report struct {
	NotificationsSent int      `json:"notifications_sent"`
	MatchedBuyers     []string `json:"matched_buyers"`
	TotalMatches      int      `json:"total_matches"`
	CategoryDetected  string   `json:"category_detected"`
	Results           []Result `json:"results"`
	Message           string   `json:"message,omitempty"`
}

// Engine matches an item to the buyer network and notifies the selection.
// Contact methods without a registered Sender are acknowledged without
// transmission.
type Engine struct {
	buyers      BuyerSource
	classifier  Classifier
	senders     map[models.ContactMethod]notify.Sender
	limiter     *rate.Limiter
	concurrency int
	timeout     time.Duration
	observe     func(method models.ContactMethod, ok bool)
}

type Option func(*Engine)

func WithClassifier(c Classifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

func WithSender(method models.ContactMethod, s notify.Sender) Option {
	return func(e *Engine) {
		e.senders[method] = s
	}
}

// WithRateLimit paces sends to perSecond with the given burst. A
// non-positive rate disables pacing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(e *Engine) {
		if perSecond <= 0 {
			e.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		e.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithSendTimeout bounds each individual send.
func WithSendTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithObserver is called once per dispatched notification.
func WithObserver(fn func(method models.ContactMethod, ok bool)) Option {
	return func(e *Engine) {
		e.observe = fn
	}
}

func NewEngine(buyers BuyerSource, opts ...Option) *Engine {
	e := &Engine{
		buyers:      buyers,
		classifier:  NewKeywordClassifier(),
		senders:     make(map[models.ContactMethod]notify.Sender),
		limiter:     rate.NewLimiter(rate.Inf, 0),
		concurrency: defaultConcurrency,
		timeout:     defaultSendTimeout,
		observe:     func(models.ContactMethod, bool) {},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Notify sends one best-effort notification to each selected buyer. A failed
// send is recorded in its Result and never aborts the batch.
func (e *Engine) Notify(ctx context.Context, a Alert) (Report, error) {
	if strings.TrimSpace(a.Item.Title) == "" {
		return Report{}, apperr.New(apperr.ValidationError, "item.title is required")
	}
	if a.Item.Price < 0 {
		return Report{}, apperr.New(apperr.ValidationError, "item.price must not be negative")
	}

	category := strings.ToLower(strings.TrimSpace(a.Category))
	if category == "" {
		category = e.classifier.Classify(a.Item.Title)
	}

	report := Report{
		MatchedBuyers:    []string{},
		CategoryDetected: category,
		Results:          []Result{},
	}

	all, err := e.buyers.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load buyers: %w", err)
	}
	if len(all) == 0 {
		report.Message = "No buyers in database. Add buyers with manage_buyer"
		return report, nil
	}

	matched := Match(all, a.Item, category)
	report.TotalMatches = len(matched)
	if len(matched) == 0 {
		report.Message = fmt.Sprintf("No buyers match category '%s' in price range", category)
		return report, nil
	}

	if !a.NotifyAll {
		limit := a.MaxNotifications
		if limit <= 0 {
			limit = DefaultMaxNotifications
		}
		matched = lo.Slice(matched, 0, limit)
	}
	report.MatchedBuyers = lo.Map(matched, func(b models.Buyer, _ int) string { return b.Name })

	results := make([]Result, len(matched))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, b := range matched {
		g.Go(func() error {
			results[i] = e.dispatch(ctx, b, a.Item)
			return nil
		})
	}
	_ = g.Wait()

	report.Results = results
	report.NotificationsSent = lo.CountBy(results, func(r Result) bool { return r.Success })

	logx.FromContext(ctx).Info("buyers notified",
		slog.String("category", category),
		slog.Int("matched", report.TotalMatches),
		slog.Int("sent", report.NotificationsSent),
	)
	return report, nil
}

func (e *Engine) dispatch(ctx context.Context, b models.Buyer, item Item) Result {
	method := lo.Ternary(b.ContactMethod == "", models.ContactEmail, b.ContactMethod)
	res := Result{Buyer: b.Name, Method: method}

	sender, ok := e.senders[method]
	if !ok {
		res.Success = true
		res.Message = fmt.Sprintf("Would notify %s via %s", b.Name, method)
		e.observe(method, true)
		return res
	}

	if err := e.limiter.Wait(ctx); err != nil {
		res.Error = fmt.Sprintf("rate limiter: %v", err)
		e.observe(method, false)
		return res
	}

	sendCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res.To = b.ContactInfo
	if err := sender.Send(sendCtx, Compose(b, item)); err != nil {
		logx.FromContext(ctx).Warn("notification failed", slog.String(logx.FieldBuyer, b.Name), logx.Error(err))
		res.Error = err.Error()
		e.observe(method, false)
		return res
	}

	res.Success = true
	e.observe(method, true)
	ReportProgress(ctx, fmt.Sprintf("Notified %s via %s", b.Name, method))
	return res
}

// Compose builds the alert for one buyer.
func Compose(b models.Buyer, item Item) notify.Message {
	name := lo.Ternary(b.Name == "", "there", b.Name)
	margin := "N/A"
	if item.MarginPct != nil {
		margin = fmt.Sprintf("%g", *item.MarginPct)
	}
	link := lo.Ternary(item.URL == "", "Contact for details", item.URL)

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", name)
	body.WriteString("Found a deal that matches your interests!\n\n")
	fmt.Fprintf(&body, "%s\n", item.Title)
	fmt.Fprintf(&body, "Price: $%.2f\n", item.Price)
	fmt.Fprintf(&body, "Profit Margin: %s%%\n\n", margin)
	fmt.Fprintf(&body, "Link: %s\n\n", link)
	body.WriteString("Reply if interested!\n\n---\nSent by dealdesk\n")

	return notify.Message{
		To:      b.ContactInfo,
		Subject: "Deal Alert: " + item.Title,
		Body:    body.String(),
	}
}
