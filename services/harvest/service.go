package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"rentscout/lib/render"
	"rentscout/lib/scrapers/zillow"
	"time"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("rentscout.services.harvest")

type Options struct {
	SearchURL string
	// UseClicks opens detail pages by clicking cards on the search
	// page instead of navigating to their URLs. Positions address the
	// first results page, so clicks pair with single-page runs.
	UseClicks bool
	// SummaryOnly skips detail pages entirely.
	SummaryOnly bool
	// MaxListings caps how many listings get detail fetches, 0 means
	// all of them.
	MaxListings int
	// MaxPages caps result-page pagination, 0 means first page only.
	MaxPages int
	// MinExpectedCards triggers the rescue scroll and a debug dump
	// when a page renders fewer cards.
	MinExpectedCards int
	// DelayMin/DelayMax bound the randomized pause before each detail
	// fetch.
	DelayMin time.Duration
	DelayMax time.Duration
	// MinRequestInterval is the floor between any two renders,
	// whatever else the jitter does.
	MinRequestInterval time.Duration
	RenderTimeout      time.Duration
	// DebugDir receives page snapshots when a render looks short,
	// empty disables the dumps.
	DebugDir string
}

func (o Options) withDefaults() Options {
	if o.MinExpectedCards <= 0 {
		o.MinExpectedCards = 9
	}
	if o.DelayMin <= 0 && o.DelayMax <= 0 {
		o.DelayMin = 3 * time.Second
		o.DelayMax = 5 * time.Second
	}
	if o.DelayMax < o.DelayMin {
		o.DelayMax = o.DelayMin
	}
	return o
}

type Stats struct {
	PagesFetched    int
	CardsSeen       int
	Summaries       int
	Dropped         int
	DetailFetched   int
	DetailFailed    int
	ClickMismatches int
	// Source is where the first page's summaries came from.
	Source string
}

type Result struct {
	Records []Record
	Stats   Stats
}

type Service struct {
	renderer render.Renderer
	opts     Options
	limiter  *rate.Limiter
}

func NewService(renderer render.Renderer, opts Options) Service {
	opts = opts.withDefaults()
	limit := rate.Inf
	if opts.MinRequestInterval > 0 {
		limit = rate.Every(opts.MinRequestInterval)
	}
	return Service{
		renderer: renderer,
		opts:     opts,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Run executes one harvest: render the search page(s), collect unique
// summaries, then walk them one at a time fetching details. Only a
// failed first search page is fatal, everything after degrades per
// listing.
func (s Service) Run(ctx context.Context) (*Result, error) {
	ctx, span := tracer.Start(ctx, "harvest:Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("search_url", s.opts.SearchURL),
		attribute.String("renderer", s.renderer.Name()),
	)

	result := &Result{}
	summaries, err := s.collectSummaries(ctx, result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search fetch failed")
		return nil, err
	}

	if len(summaries) == 0 {
		slog.WarnContext(ctx, "no properties found", "url", s.opts.SearchURL)
		result.Records = []Record{}
		return result, nil
	}

	unique, dropped := dedupeSummaries(summaries)
	result.Stats.Summaries = len(unique)
	result.Stats.Dropped = dropped
	if dropped > 0 {
		slog.WarnContext(ctx, "dropped summaries with no url and no zpid", "count", dropped)
	}
	if s.opts.MaxListings > 0 && len(unique) > s.opts.MaxListings {
		unique = unique[:s.opts.MaxListings]
	}

	for i, summary := range unique {
		record := recordFromSummary(summary)
		if !s.opts.SummaryOnly && (summary.URL != "" || s.opts.UseClicks) {
			s.fetchDetail(ctx, i, summary, &record, &result.Stats)
		}
		result.Records = append(result.Records, record)
	}

	span.SetAttributes(
		attribute.Int("records", len(result.Records)),
		attribute.Int("detail_failed", result.Stats.DetailFailed),
	)
	return result, nil
}

// collectSummaries renders result pages until the pagination or the
// page cap runs out. A failed first page is the run's only fatal
// error, later pages just end pagination early.
func (s Service) collectSummaries(ctx context.Context, result *Result) ([]zillow.Summary, error) {
	var summaries []zillow.Summary

	pageURL := s.opts.SearchURL
	for pageNum := 1; ; pageNum++ {
		html, err := s.render(ctx, pageURL, zillow.SearchFlow())
		if err != nil {
			if pageNum == 1 {
				return nil, fmt.Errorf("could not fetch search page: %w", err)
			}
			slog.WarnContext(ctx, "could not fetch results page, stopping pagination",
				"page", pageNum, "err", err)
			break
		}

		page, err := zillow.ParseSearchPage(ctx, html)
		if err != nil {
			if pageNum == 1 {
				return nil, err
			}
			slog.WarnContext(ctx, "could not parse results page, stopping pagination",
				"page", pageNum, "err", err)
			break
		}

		if page.CardCount < s.opts.MinExpectedCards {
			page = s.rescuePage(ctx, pageURL, pageNum, html, page)
		}

		result.Stats.PagesFetched++
		result.Stats.CardsSeen += page.CardCount
		if result.Stats.Source == "" {
			result.Stats.Source = page.Source
		}
		summaries = append(summaries, page.Summaries...)
		slog.InfoContext(ctx, "parsed results page",
			"page", pageNum, "cards", page.CardCount,
			"summaries", len(page.Summaries), "source", page.Source)

		if page.NextURL == "" || pageNum >= s.maxPages() {
			break
		}
		pageURL = page.NextURL
	}

	return summaries, nil
}

func (s Service) maxPages() int {
	if s.opts.MaxPages <= 0 {
		return 1
	}
	return s.opts.MaxPages
}

// rescuePage gives a short page one more, much more aggressive scroll
// pass and keeps whichever render yielded more. The short render is
// dumped for offline selector tuning either way.
func (s Service) rescuePage(ctx context.Context, pageURL string, pageNum int, html string, page *zillow.SearchPage) *zillow.SearchPage {
	slog.WarnContext(ctx, "fewer cards than expected, retrying with rescue scroll",
		"page", pageNum, "cards", page.CardCount, "expected", s.opts.MinExpectedCards)
	s.dumpArtifact(ctx, fmt.Sprintf("search_page_%d_debug.html", pageNum), html)

	retryHTML, err := s.render(ctx, pageURL, zillow.RescueScrollFlow())
	if err != nil {
		slog.WarnContext(ctx, "rescue scroll render failed", "page", pageNum, "err", err)
		return page
	}
	retryPage, err := zillow.ParseSearchPage(ctx, retryHTML)
	if err != nil {
		slog.WarnContext(ctx, "rescue scroll parse failed", "page", pageNum, "err", err)
		return page
	}
	if len(retryPage.Summaries) <= len(page.Summaries) {
		return page
	}
	slog.InfoContext(ctx, "rescue scroll found more listings",
		"page", pageNum, "before", len(page.Summaries), "after", len(retryPage.Summaries))
	return retryPage
}

func (s Service) fetchDetail(ctx context.Context, index int, summary zillow.Summary, record *Record, stats *Stats) {
	if err := s.pause(ctx); err != nil {
		return
	}

	var html string
	var err error
	if s.opts.UseClicks {
		// cards are addressed by position, so the page that comes
		// back has to be checked against the card's address
		html, err = s.render(ctx, s.opts.SearchURL, zillow.CardClickFlow(index+1))
	} else {
		html, err = s.render(ctx, summary.URL, zillow.DetailFlow())
	}
	if err != nil {
		stats.DetailFailed++
		slog.WarnContext(ctx, "detail fetch failed, keeping summary only",
			"url", summary.URL, "err", err)
		return
	}

	detail, err := zillow.ParseDetailPage(ctx, summary.URL, html)
	if err != nil {
		stats.DetailFailed++
		slog.WarnContext(ctx, "detail parse failed, keeping summary only",
			"url", summary.URL, "err", err)
		return
	}
	if s.opts.UseClicks && !zillow.VerifyAddress(summary.Address, detail.Address) {
		stats.ClickMismatches++
		slog.WarnContext(ctx, "clicked card landed on a different listing",
			"expected", summary.Address, "got", detail.Address)
		s.dumpArtifact(ctx, fmt.Sprintf("card_%d_mismatch.html", index+1), html)
		if summary.URL == "" {
			return
		}

		// recover the mis-click by navigating to the card's own url
		html, err = s.render(ctx, summary.URL, zillow.DetailFlow())
		if err != nil {
			stats.DetailFailed++
			slog.WarnContext(ctx, "direct detail fetch failed, keeping summary only",
				"url", summary.URL, "err", err)
			return
		}
		detail, err = zillow.ParseDetailPage(ctx, summary.URL, html)
		if err != nil {
			stats.DetailFailed++
			slog.WarnContext(ctx, "direct detail parse failed, keeping summary only",
				"url", summary.URL, "err", err)
			return
		}
	}

	record.mergeDetail(detail)
	stats.DetailFetched++
}

func (s Service) render(ctx context.Context, url string, flow []render.Step) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return s.renderer.Render(ctx, render.Request{
		URL:     url,
		Flow:    flow,
		Timeout: s.opts.RenderTimeout,
	})
}

// pause sleeps a uniformly random delay inside the configured window.
// The randomness is deliberate, fixed intervals are an easy signature
// for the target's rate limiting to key on.
func (s Service) pause(ctx context.Context) error {
	if s.opts.DelayMax <= 0 {
		return nil
	}
	ms, err := random.IntRange(int(s.opts.DelayMin.Milliseconds()), int(s.opts.DelayMax.Milliseconds())+1)
	if err != nil {
		ms = int(s.opts.DelayMin.Milliseconds())
	}

	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s Service) dumpArtifact(ctx context.Context, name string, html string) {
	if s.opts.DebugDir == "" {
		return
	}
	err := os.MkdirAll(s.opts.DebugDir, 0777)
	if err != nil {
		slog.WarnContext(ctx, "could not create debug directory", "err", err)
		return
	}
	path := filepath.Join(s.opts.DebugDir, name)
	err = os.WriteFile(path, []byte(html), 0600)
	if err != nil {
		slog.WarnContext(ctx, "could not write debug artifact", "path", path, "err", err)
		return
	}
	slog.InfoContext(ctx, "wrote debug artifact", "path", path)
}
