package extractor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
)

// Service renders pages in a headless browser and parses the final DOM into
// structured content. One browser process is shared across extractions; each
// call runs in its own tab so page state never leaks between jobs.
type Service struct {
	config *common.ExtractorConfig
	logger arbor.ILogger

	browserCtx      context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc

	initialized bool
	mu          sync.Mutex
}

var _ interfaces.Extractor = (*Service)(nil)

// New creates an extraction service. Start must be called before the first
// ExtractContent.
func New(cfg *common.ExtractorConfig, logger arbor.ILogger) *Service {
	return &Service{
		config: cfg,
		logger: logger,
	}
}

// Start launches the browser process and verifies it responds.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return fmt.Errorf("extractor already started")
	}

	s.logger.Info().
		Bool("headless", s.config.Headless).
		Dur("browser_timeout", s.config.BrowserTimeout).
		Dur("render_wait", s.config.RenderWait).
		Msg("Starting extraction browser")

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, s.buildAllocatorOptions()...)
	s.allocatorCancel = allocatorCancel

	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			s.logger.Debug().Msgf("chromedp: "+format, args...)
		}),
	)
	s.browserCtx = browserCtx
	s.browserCancel = browserCancel

	testCtx, testCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer testCancel()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		s.shutdownLocked()
		return fmt.Errorf("browser failed startup test: %w", err)
	}

	s.initialized = true
	s.logger.Info().Msg("Extraction browser started")

	return nil
}

func (s *Service) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.UserAgent(s.config.UserAgent),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
	}

	if s.config.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}

	return opts
}

// ExtractContent navigates to the URL, waits for JavaScript rendering, and
// parses the resulting document. Failures come back as *models.ExtractionError
// so the caller records them on the job.
func (s *Service) ExtractContent(ctx context.Context, url string) (*models.PageContent, error) {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return nil, &models.ExtractionError{URL: url, Message: "extractor not started"}
	}
	browserCtx := s.browserCtx
	s.mu.Unlock()

	start := time.Now()

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	defer tabCancel()

	pageCtx, pageCancel := context.WithTimeout(tabCtx, s.config.BrowserTimeout)
	defer pageCancel()

	// Tab contexts descend from the browser, not from the caller's ctx, so
	// cancellation has to be forwarded explicitly.
	stop := context.AfterFunc(ctx, pageCancel)
	defer stop()

	s.logger.Debug().Str("url", url).Msg("Navigating to URL")

	var html string
	err := chromedp.Run(pageCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.config.RenderWait),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		s.logger.Warn().Str("url", url).Err(err).Msg("Page render failed")
		return nil, &models.ExtractionError{URL: url, Message: fmt.Sprintf("page render failed: %v", err)}
	}

	content, mainHTML, err := parsePage(html, url)
	if err != nil {
		return nil, &models.ExtractionError{URL: url, Message: err.Error()}
	}

	content.Markdown = htmlToMarkdown(mainHTML, url, s.logger)
	if content.Markdown == "" {
		content.Markdown = content.MainText
	}
	content.FetchedAt = time.Now()

	s.logger.Info().
		Str("url", url).
		Str("title", content.Title).
		Int("main_text_length", len(content.MainText)).
		Int("cta_count", len(content.CTAElements)).
		Dur("duration", time.Since(start)).
		Msg("Page content extracted")

	return content, nil
}

// Close shuts the browser down and releases its resources.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		s.logger.Info().Msg("Shutting down extraction browser")
	}
	s.shutdownLocked()

	return nil
}

func (s *Service) shutdownLocked() {
	if s.browserCancel != nil {
		s.browserCancel()
		s.browserCancel = nil
	}
	if s.allocatorCancel != nil {
		s.allocatorCancel()
		s.allocatorCancel = nil
	}
	s.initialized = false
}
