package knowledge

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/pkg/conv"
	"github.com/sandevgo/tuskctx/pkg/log"
	"github.com/sandevgo/tuskctx/pkg/retry"
)

const maxFetchBytes = 4 << 20

// Fetcher downloads reference pages for the index. HTML is reduced to text.
type Fetcher struct {
	client  *http.Client
	retrier *retry.Retrier
}

func NewFetcher(timeout time.Duration, retrier *retry.Retrier) *Fetcher {
	if retrier == nil {
		retrier = retry.NoRetry()
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		retrier: retrier,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var text string
	err := f.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("User-Agent", core.TuskUserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch url: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("fetch url: status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return retry.Permanent(fmt.Errorf("fetch url: status %d", resp.StatusCode))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}

		text, err = bodyText(resp.Header.Get("Content-Type"), body)
		if err != nil {
			return retry.Permanent(err)
		}
		return nil
	})
	return text, err
}

func bodyText(contentType string, body []byte) (string, error) {
	mt, _, _ := mime.ParseMediaType(contentType)
	switch {
	case mt == "text/html" || mt == "application/xhtml+xml":
		return conv.HTMLToText(body)
	case mt == "text/markdown":
		return conv.MarkdownToText(body)
	case strings.HasPrefix(mt, "text/") || mt == "":
		return string(body), nil
	default:
		return "", fmt.Errorf("unsupported content type %q", mt)
	}
}

// LoadURLs fetches each url and indexes it under its address. Failures are
// logged and skipped; the number of snippets added is returned.
func (x *Index) LoadURLs(ctx context.Context, f *Fetcher, urls []string) int {
	logger := log.FromCtx(ctx)
	total := 0
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		text, err := f.Fetch(ctx, u)
		if err != nil {
			logger.Warn().Err(err).Str("url", u).Msg("skip knowledge url")
			continue
		}
		total += x.Add(u, u, text)
	}
	return total
}
