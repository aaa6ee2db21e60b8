// Package console drives the vendor's backoffice web console. Listing
// pages are plain rendered HTML and are walked with colly using the
// logged-in session's cookies; the interactive publish action needs a
// real browser and goes through rod.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"backoffice-republisher/internal/config"
)

const userAgent = "Mozilla/5.0 (compatible; backoffice-republisher/1.0)"

// Session is one authenticated browser session against one endpoint.
// Workers open their own tabs off the shared browser; the session cookie
// jar is shared by all of them.
type Session struct {
	Endpoint config.Endpoint

	cfg      *config.Config
	log      *slog.Logger
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// Connect probes the endpoint, launches a headless browser, and logs in.
// Any failure here is a group-level failure: the caller abandons this
// endpoint and leaves the others running.
func Connect(ctx context.Context, cfg *config.Config, endpoint config.Endpoint, log *slog.Logger) (*Session, error) {
	if err := ping(ctx, endpoint.BaseURL); err != nil {
		return nil, fmt.Errorf("endpoint %s unreachable: %w", endpoint.Node, err)
	}

	l := launcher.New().
		NoSandbox(true).
		Headless(cfg.Headless).
		Set("disable-gpu", "").
		Set("disable-dev-shm-usage", "")
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().Context(ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	s := &Session{
		Endpoint: endpoint,
		cfg:      cfg,
		log:      log.With(slog.String("endpoint", endpoint.Node)),
		launcher: l,
		browser:  browser,
	}

	if err := s.login(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("login to %s: %w", endpoint.Node, err)
	}

	s.log.Info("session established", slog.String("base_url", endpoint.BaseURL))
	return s, nil
}

// ping is a cheap reachability probe so we don't pay browser startup for
// an endpoint that is down.
func ping(ctx context.Context, baseURL string) error {
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetHeader("User-Agent", userAgent)

	resp, err := client.R().SetContext(ctx).Get(baseURL + loginPath)
	if err != nil {
		return err
	}
	if resp.StatusCode() >= 500 {
		return fmt.Errorf("login page returned HTTP %d", resp.StatusCode())
	}
	return nil
}

// login submits the console's form login and verifies the form is gone
// afterwards. The console redirects back to the login page with the form
// re-rendered on bad credentials.
func (s *Session) login(ctx context.Context) error {
	page, err := s.NewTab(ctx)
	if err != nil {
		return err
	}
	defer page.Close()
	page = page.Timeout(s.cfg.NavTimeout)

	if err := page.Navigate(s.Endpoint.BaseURL + loginPath); err != nil {
		return fmt.Errorf("navigate login page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("load login page: %w", err)
	}

	userEl, err := page.Element(selLoginUser)
	if err != nil {
		return fmt.Errorf("find username field: %w", err)
	}
	if err := userEl.Input(s.cfg.User); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}

	passEl, err := page.Element(selLoginPass)
	if err != nil {
		return fmt.Errorf("find password field: %w", err)
	}
	if err := passEl.Input(s.cfg.Password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}

	submitEl, err := page.Element(selLoginSubmit)
	if err != nil {
		return fmt.Errorf("find submit button: %w", err)
	}
	if err := submitEl.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click submit: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("load post-login page: %w", err)
	}

	stillOnLogin, _, err := page.Has(selLoginUser)
	if err != nil {
		return fmt.Errorf("check login form: %w", err)
	}
	if stillOnLogin {
		return fmt.Errorf("credentials rejected for %s", s.cfg.User)
	}
	return nil
}

// NewTab opens a fresh page bound to ctx. Callers apply their own
// per-operation timeouts via page.Timeout.
func (s *Session) NewTab(ctx context.Context) (*rod.Page, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return page.Context(ctx), nil
}

// Cookies exports the session's cookies for the non-browser listing
// walker. The login cookie is all colly needs to see the same listing the
// browser sees.
func (s *Session) Cookies() ([]*http.Cookie, error) {
	raw, err := s.browser.GetCookies()
	if err != nil {
		return nil, fmt.Errorf("read session cookies: %w", err)
	}
	cookies := make([]*http.Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	return cookies, nil
}

// Close shuts the browser down and reaps the launched process.
func (s *Session) Close() {
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.log.Warn("close browser", slog.String("error", err.Error()))
		}
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
}
