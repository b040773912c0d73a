package decode

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/ukgov/org-registry/internal/errs"
)

// CrawlConfig configures a bounded, polite, paginated list crawl.
// Grounded directly on the teacher's CollyScraperConfig and per-domain
// colly.LimitRule in strategy_html_generic.go's runWithColly.
type CrawlConfig struct {
	ContainerSelector string
	NextPageSelector  string
	MaxPages          int
	Delay             time.Duration
	Timeout           time.Duration
	UserAgent         string
}

// CrawlItem is one container element encountered on a list page, handed
// to the caller's visit function for field extraction.
type CrawlItem struct {
	Element *colly.HTMLElement
	PageURL string
}

// Crawl visits startURL and, while NextPageSelector matches and the page
// count stays under MaxPages, follows pagination links, invoking visit
// once per ContainerSelector match. It fails with errs.StructureChanged
// if the container selector never matches on the first page — the same
// fail-fast-on-structural-mismatch discipline as the plain HTML decoder.
func Crawl(source, startURL string, cfg CrawlConfig, visit func(CrawlItem)) error {
	if cfg.ContainerSelector == "" {
		return &errs.StructureChanged{Source: source, Detail: "container selector is required"}
	}
	if cfg.MaxPages == 0 {
		cfg.MaxPages = 1
	}
	if cfg.Delay == 0 {
		cfg.Delay = time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (compatible; org-registry-aggregator/1.0)"
	}

	parsed, err := url.Parse(startURL)
	if err != nil {
		return &errs.LinkDiscovery{Source: source, Detail: fmt.Sprintf("invalid start URL: %v", err)}
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.DetectCharset(),
	)
	collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       cfg.Delay,
		RandomDelay: cfg.Delay / 2,
	})
	collector.SetRequestTimeout(cfg.Timeout)

	var matched int
	var nextPageURL string
	var crawlErr error

	collector.OnHTML(cfg.ContainerSelector, func(e *colly.HTMLElement) {
		matched++
		visit(CrawlItem{Element: e, PageURL: e.Request.URL.String()})
	})

	if cfg.NextPageSelector != "" {
		collector.OnHTML(cfg.NextPageSelector, func(e *colly.HTMLElement) {
			href := strings.TrimSpace(e.Attr("href"))
			if href != "" {
				nextPageURL = e.Request.AbsoluteURL(href)
			}
		})
	}

	collector.OnError(func(r *colly.Response, err error) {
		crawlErr = &errs.Transport{URL: r.Request.URL.String(), Err: err}
	})

	visited := map[string]bool{}
	current := startURL
	for page := 0; page < cfg.MaxPages; page++ {
		if visited[current] {
			break
		}
		visited[current] = true
		nextPageURL = ""

		if err := collector.Visit(current); err != nil {
			return &errs.Transport{URL: current, Err: err}
		}
		collector.Wait()

		if crawlErr != nil {
			return crawlErr
		}
		if page == 0 && matched == 0 {
			return &errs.StructureChanged{Source: source, Detail: fmt.Sprintf("no elements matched selector %q", cfg.ContainerSelector)}
		}
		if nextPageURL == "" {
			break
		}
		current = nextPageURL
	}

	return nil
}
