package console

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"backoffice-republisher/internal/config"
	"backoffice-republisher/internal/module"
	"backoffice-republisher/internal/pool"
	"backoffice-republisher/internal/retry"
)

// completionPollInterval is how often the bounded completion wait re-checks
// the module's status flags after the publish action fires.
const completionPollInterval = 2 * time.Second

// dialogTimeout bounds the wait for the publish confirmation dialog.
const dialogTimeout = 10 * time.Second

// itemPage is one module's administration page, opened and ready. It is
// the slice of browser behavior the per-item procedure needs; the rod
// binding lives in rodPage.
type itemPage interface {
	// HasWarning reports whether the page still shows the outdated flag.
	HasWarning() (bool, error)
	// TriggerPublish clicks the publish action and accepts the
	// confirmation dialog.
	TriggerPublish() error
	// AwaitCompletion waits, bounded, for the status to flip to current.
	AwaitCompletion(ctx context.Context) bool
	Close()
}

// openFunc navigates to a module's administration page and returns it
// loaded. Failures are retried under the navigation policy.
type openFunc func(ctx context.Context, url string) (itemPage, error)

// Publisher performs the per-item procedure on one endpoint: open the
// module's administration page, check its status, and trigger the publish
// action when the warning flag is present. Each item gets its own tab so
// concurrent workers never share mutable UI state.
type Publisher struct {
	retry  retry.Policy
	dryRun bool
	log    *slog.Logger
	open   openFunc
}

// NewPublisher wires a publisher to an established session.
func NewPublisher(s *Session, cfg *config.Config, dryRun bool, log *slog.Logger) *Publisher {
	scoped := log.With(slog.String("endpoint", s.Endpoint.Node))
	return &Publisher{
		retry:  retry.Policy{MaxAttempts: cfg.RetryMax, Delay: cfg.RetryDelay, Log: scoped},
		dryRun: dryRun,
		log:    scoped,
		open: func(ctx context.Context, url string) (itemPage, error) {
			return openModulePage(ctx, s, url, cfg.NavTimeout, cfg.PublishWait)
		},
	}
}

// EndpointPublisher bundles a session with its publisher so the pipeline
// can tear both down with one Close.
type EndpointPublisher struct {
	*Publisher
	session *Session
}

// ConnectPublisher establishes a session against endpoint and returns a
// ready publisher. Connection failures are group-level: the caller skips
// this endpoint and leaves the others alone.
func ConnectPublisher(ctx context.Context, cfg *config.Config, endpoint config.Endpoint, dryRun bool, log *slog.Logger) (*EndpointPublisher, error) {
	session, err := Connect(ctx, cfg, endpoint, log)
	if err != nil {
		return nil, err
	}
	return &EndpointPublisher{
		Publisher: NewPublisher(session, cfg, dryRun, log),
		session:   session,
	}, nil
}

// Close shuts the endpoint's browser session down.
func (e *EndpointPublisher) Close() {
	e.session.Close()
}

// Process runs one record to a terminal outcome. Navigation failures are
// retried under the policy; exhaustion is a local failure and the worker
// moves on to its next claim. A module whose page no longer shows the
// warning flag is skipped before any publish trigger, so skipped items
// never consume retry attempts.
func (p *Publisher) Process(ctx context.Context, rec module.Record) pool.Outcome {
	log := p.log.With(slog.String("module", rec.Name))

	var page itemPage
	err := p.retry.Do(ctx, "navigate "+rec.URL, func(ctx context.Context) error {
		pg, err := p.open(ctx, rec.URL)
		if err != nil {
			return err
		}
		page = pg
		return nil
	})
	if err != nil {
		log.Error("giving up on module", slog.String("error", err.Error()))
		return pool.OutcomeFailed
	}
	defer page.Close()

	flagged, err := page.HasWarning()
	if err != nil {
		log.Error("status check failed", slog.String("error", err.Error()))
		return pool.OutcomeFailed
	}
	if !flagged {
		log.Info("module already current, skipping")
		return pool.OutcomeSkipped
	}

	if p.dryRun {
		log.Info("dry-run: would trigger publish")
		return pool.OutcomeSkipped
	}

	err = p.retry.Do(ctx, "trigger publish "+rec.Name, func(ctx context.Context) error {
		return page.TriggerPublish()
	})
	if err != nil {
		log.Error("publish trigger failed", slog.String("error", err.Error()))
		return pool.OutcomeFailed
	}

	if page.AwaitCompletion(ctx) {
		log.Info("publish completed")
		return pool.OutcomeCompleted
	}
	log.Warn("publish triggered but completion not observed")
	return pool.OutcomeUnconfirmed
}

// rodPage is the rod-backed itemPage.
type rodPage struct {
	page        *rod.Page
	navTimeout  time.Duration
	publishWait time.Duration
}

// openModulePage opens a fresh tab and navigates it to the module's
// administration page. The tab is closed on any failure.
func openModulePage(ctx context.Context, s *Session, url string, navTimeout, publishWait time.Duration) (itemPage, error) {
	tab, err := s.NewTab(ctx)
	if err != nil {
		return nil, err
	}
	nav := tab.Timeout(navTimeout)
	if err := nav.Navigate(url); err != nil {
		tab.Close()
		return nil, fmt.Errorf("navigate: %w", err)
	}
	if err := nav.WaitLoad(); err != nil {
		tab.Close()
		return nil, fmt.Errorf("wait load: %w", err)
	}
	return &rodPage{page: tab, navTimeout: navTimeout, publishWait: publishWait}, nil
}

func (r *rodPage) HasWarning() (bool, error) {
	flagged, _, err := r.page.Timeout(r.navTimeout).Has(selStatusWarning)
	return flagged, err
}

// TriggerPublish clicks the publish button and accepts the confirmation
// dialog. The dialog subscription is scoped to this call: it is created
// just before the click and its page clone carries a deadline, so the
// handler is released on every exit path.
func (r *rodPage) TriggerPublish() error {
	btn, err := r.page.Timeout(r.navTimeout).Element(selPublishButton)
	if err != nil {
		return fmt.Errorf("find publish button: %w", err)
	}

	scoped := r.page.Timeout(dialogTimeout)
	wait, handle := scoped.HandleDialog()

	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		scoped.CancelTimeout()
		return fmt.Errorf("click publish: %w", err)
	}

	wait()
	if err := handle(&proto.PageHandleJavaScriptDialog{Accept: true}); err != nil {
		scoped.CancelTimeout()
		return fmt.Errorf("confirm publish dialog: %w", err)
	}
	scoped.CancelTimeout()
	return nil
}

// AwaitCompletion polls for the module's status to flip to current within
// the bounded publish wait. The console only exposes a spinner while the
// republish job runs, so this is best-effort: a true result means the
// completion signal was observed, a false result only means the wait
// elapsed first.
func (r *rodPage) AwaitCompletion(ctx context.Context) bool {
	deadline := time.Now().Add(r.publishWait)

	for {
		if ctx.Err() != nil {
			return false
		}

		current, _, err := r.page.Has(selStatusCurrent)
		if err == nil && current {
			return true
		}
		spinning, _, err := r.page.Has(selPublishSpinner)
		if err == nil && !spinning {
			// Spinner gone without the current flag: re-check once in case
			// the flag rendered between the two lookups.
			current, _, err = r.page.Has(selStatusCurrent)
			if err == nil && current {
				return true
			}
		}

		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(completionPollInterval):
		}
	}
}

func (r *rodPage) Close() {
	r.page.Close()
}
