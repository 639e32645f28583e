package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"kickstarter-scraper/config"
	"kickstarter-scraper/models"
	"kickstarter-scraper/utils"
)

// Client fetches pages over plain HTTP. Profile sub-pages and archived-style
// server-rendered pages do not need a browser, and an HTTP round trip is an
// order of magnitude cheaper than a Chrome render.
type Client struct {
	cfg    *config.Config
	logger *utils.Logger
	http   *resty.Client
}

// NewClient builds an HTTP fetcher with a shared cookie jar so the session
// survives across sub-page requests.
func NewClient(cfg *config.Config, logger *utils.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	c := resty.New().
		SetCookieJar(jar).
		SetTimeout(time.Duration(cfg.HTTPTimeoutSec)*time.Second).
		SetHeader("User-Agent", browserUserAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	return &Client{cfg: cfg, logger: logger, http: c}
}

func (c *Client) Fetch(ctx context.Context, pageURL string, kind PageKind) (*Document, error) {
	var body []byte
	var notFound bool

	err := utils.RetryWithBackoff(ctx, c.cfg.MaxRetries, func() error {
		resp, err := c.http.R().SetContext(ctx).Get(pageURL)
		if err != nil {
			return fmt.Errorf("get %s: %w", pageURL, err)
		}
		switch {
		case resp.StatusCode() == http.StatusNotFound:
			notFound = true
			return nil
		case resp.StatusCode() == http.StatusForbidden && bytes.Contains(resp.Body(), []byte("px-captcha")):
			c.logger.Warn("CAPTCHA served for %s, waiting %ds before retry", pageURL, c.cfg.CaptchaWaitSec)
			time.Sleep(time.Duration(c.cfg.CaptchaWaitSec) * time.Second)
			return errCaptcha
		case resp.StatusCode() != http.StatusOK:
			return fmt.Errorf("get %s: status %d", pageURL, resp.StatusCode())
		}
		body = resp.Body()
		return nil
	}, c.logger)
	if err != nil {
		return nil, err
	}
	if notFound {
		return nil, models.ErrDeletedOrHidden
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	if pageAbsent(doc, kind) {
		return nil, models.ErrDeletedOrHidden
	}
	return &Document{Document: doc, AccessedAt: time.Now()}, nil
}
