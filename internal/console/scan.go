package console

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"backoffice-republisher/internal/config"
	"backoffice-republisher/internal/module"
)

// ListWalker pages through the module listing and yields the rows flagged
// as outdated. Listing pages are server-rendered HTML, so they are fetched
// with colly on the session's cookies instead of holding a browser tab.
//
// The listing mutates in place as modules get republished, so pagination
// is strictly sequential: a page must be fetched and confirmed different
// from the previous one before the walker moves on.
type ListWalker struct {
	endpoint  config.Endpoint
	cookies   []*http.Cookie
	pageDelay time.Duration
	maxPages  int
	log       *slog.Logger

	page         int
	prevFirstRow string
	done         bool
}

// NewListWalker builds a walker over the endpoint's listing using the
// authenticated session cookies. maxPages 0 means walk everything.
func NewListWalker(endpoint config.Endpoint, cookies []*http.Cookie, pageDelay time.Duration, maxPages int, log *slog.Logger) (*ListWalker, error) {
	return &ListWalker{
		endpoint:  endpoint,
		cookies:   cookies,
		pageDelay: pageDelay,
		maxPages:  maxPages,
		log:       log.With(slog.String("endpoint", endpoint.Node)),
	}, nil
}

// newPageCollector builds a one-shot collector carrying the session
// cookies. Each page gets its own so callbacks never leak across fetches.
func (w *ListWalker) newPageCollector() (*colly.Collector, error) {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(30 * time.Second)
	if err := c.SetCookies(w.endpoint.BaseURL, w.cookies); err != nil {
		return nil, fmt.Errorf("set session cookies: %w", err)
	}
	return c, nil
}

// NextPage fetches the next listing page and returns its flagged records.
// more is false once the listing is exhausted: no next-page link, an empty
// page, or a page identical to the previous one (the in-place listing has
// stopped changing).
func (w *ListWalker) NextPage(ctx context.Context) (records []module.Record, more bool, err error) {
	if w.done {
		return nil, false, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if w.page > 0 && w.pageDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(w.pageDelay):
		}
	}

	w.page++
	if w.maxPages > 0 && w.page > w.maxPages {
		w.done = true
		return nil, false, nil
	}

	var (
		firstRow string
		rows     int
		hasNext  bool
		fetchErr error
	)

	c, err := w.newPageCollector()
	if err != nil {
		return nil, false, err
	}
	c.OnHTML(selModuleRow, func(e *colly.HTMLElement) {
		rows++
		name := strings.TrimSpace(e.ChildText(selModuleName))
		href := e.ChildAttr(selModuleName, "href")
		status := strings.TrimSpace(e.ChildText(selModuleStatus))

		url := e.Request.AbsoluteURL(href)
		if firstRow == "" {
			firstRow = url
		}
		if name == "" || url == "" {
			return
		}
		if !strings.EqualFold(status, statusWarningText) {
			return
		}
		records = append(records, module.Record{
			URL:    url,
			Name:   name,
			Suffix: module.SuffixOf(name),
		})
	})
	c.OnHTML(selListNextPage, func(e *colly.HTMLElement) {
		hasNext = true
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			fetchErr = fmt.Errorf("listing page %d: HTTP %d: %w", w.page, r.StatusCode, err)
		} else {
			fetchErr = fmt.Errorf("listing page %d: %w", w.page, err)
		}
	})

	pageURL := w.endpoint.BaseURL + fmt.Sprintf(listPath, w.page)
	if err := c.Visit(pageURL); err != nil && fetchErr == nil {
		fetchErr = fmt.Errorf("visit listing page %d: %w", w.page, err)
	}
	if fetchErr != nil {
		return nil, false, fetchErr
	}

	w.log.Debug("listing page walked",
		slog.Int("page", w.page),
		slog.Int("rows", rows),
		slog.Int("flagged", len(records)))

	if rows == 0 {
		w.done = true
		return records, false, nil
	}
	// The listing re-renders in place; an unchanged first row means the
	// requested page does not exist and the console served the same view.
	if firstRow != "" && firstRow == w.prevFirstRow {
		w.done = true
		return nil, false, nil
	}
	w.prevFirstRow = firstRow

	if !hasNext {
		w.done = true
		return records, false, nil
	}
	return records, true, nil
}
