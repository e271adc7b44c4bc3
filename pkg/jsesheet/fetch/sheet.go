package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/komsit37/jsesheet/pkg/jsesheet/document"
)

var (
	// ErrNoPDFLink is returned when an HTML page links no PDF.
	ErrNoPDFLink = errors.New("no pdf link in quote page")
	// ErrNotPDF is returned when a linked document is not a PDF.
	ErrNotPDF = errors.New("fetched content is not a pdf")
	// ErrTooLarge is returned when a response exceeds the client's body limit.
	ErrTooLarge = errors.New("sheet too large")
)

// StatusError is a non-200 response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.Code, e.URL)
}

// Temporary reports whether retrying may help.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// SheetURL returns the quote page URL for a session date and market id.
func (c *Client) SheetURL(date time.Time, market int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("base url: %w", err)
	}
	q := u.Query()
	q.Set("date", date.Format(time.DateOnly))
	q.Set("market", strconv.Itoa(market))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Sheet downloads the quote sheet PDF for a session date and market id.
// The page either serves the PDF directly or wraps it in HTML, in which
// case the first linked PDF is followed. It returns the PDF bytes and the
// URL they came from.
func (c *Client) Sheet(ctx context.Context, date time.Time, market int) ([]byte, string, error) {
	page, err := c.SheetURL(date, market)
	if err != nil {
		return nil, "", err
	}
	body, ctype, err := c.get(ctx, page)
	if err != nil {
		return nil, page, err
	}
	if strings.Contains(strings.ToLower(ctype), "pdf") || document.IsPDF(body) {
		return body, page, nil
	}

	link, err := pdfLink(page, body)
	if err != nil {
		return nil, page, err
	}
	c.log.Debug("following pdf link", zap.String("page", page), zap.String("link", link))
	pdf, _, err := c.get(ctx, link)
	if err != nil {
		return nil, link, err
	}
	if !document.IsPDF(pdf) {
		return nil, link, ErrNotPDF
	}
	return pdf, link, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	var (
		body  []byte
		ctype string
	)
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		for key, values := range c.header {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			serr := &StatusError{URL: rawURL, Code: resp.StatusCode}
			if serr.Temporary() {
				return serr
			}
			return backoff.Permanent(serr)
		}
		b, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
		if err != nil {
			return err
		}
		if int64(len(b)) > c.maxBody {
			return backoff.Permanent(fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, rawURL, c.maxBody))
		}
		body, ctype = b, resp.Header.Get("Content-Type")
		return nil
	}
	notify := func(err error, d time.Duration) {
		c.log.Warn("retrying quote sheet request", zap.String("url", rawURL), zap.Duration("after", d), zap.Error(err))
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(c.newBackOff(), ctx), notify); err != nil {
		return nil, "", err
	}
	return body, ctype, nil
}

// pdfLink finds the first anchor, iframe, embed or object pointing at a PDF
// and resolves it against the page URL.
func pdfLink(pageURL string, html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse quote page: %w", err)
	}
	var link string
	doc.Find("a[href], iframe[src], embed[src], object[data]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, attr := range []string{"href", "src", "data"} {
			if v, ok := s.Attr(attr); ok && strings.Contains(strings.ToLower(v), ".pdf") {
				link = strings.TrimSpace(v)
				return false
			}
		}
		return true
	})
	if link == "" {
		return "", ErrNoPDFLink
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("pdf link %q: %w", link, err)
	}
	return base.ResolveReference(ref).String(), nil
}
