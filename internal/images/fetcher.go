package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mwhitfield/wishlist-backend/pkg/config"
	"github.com/mwhitfield/wishlist-backend/pkg/logger"
	"github.com/mwhitfield/wishlist-backend/pkg/metrics"
)

// Result describes a successfully validated remote image.
type Result struct {
	ContentType string
	Size        int64
}

// Fetcher downloads and validates external item images. Retailer sites often
// refuse direct hotlinking, so after a direct attempt it retries through the
// configured proxy templates ("%s" is replaced by the encoded source URL).
type Fetcher struct {
	client  *http.Client
	cfg     config.ImagesConfig
	logg    *logger.Logger
	metrics *metrics.APIMetrics
}

// NewFetcher builds an image fetcher with the configured timeout and size cap.
func NewFetcher(cfg config.ImagesConfig, logg *logger.Logger, m *metrics.APIMetrics) (*Fetcher, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Fetcher{
		client:  &http.Client{Timeout: cfg.FetchTimeout},
		cfg:     cfg,
		logg:    logg,
		metrics: m,
	}, nil
}

// Fetch validates the remote image behind rawURL, trying proxies when the
// direct request fails. It never stores the bytes; callers keep the source
// URL plus the sniffed content type.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	started := time.Now()
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		f.observe("invalid_url", started)
		return nil, fmt.Errorf("invalid image url %q", rawURL)
	}

	var lastErr error
	for _, candidate := range f.candidates(rawURL) {
		result, err := f.fetchOne(ctx, candidate)
		if err == nil {
			f.observe("success", started)
			return result, nil
		}
		lastErr = err
	}

	f.observe("failure", started)
	f.logg.Warn(f.logg.WithField(ctx, "image_url", rawURL), "images.fetch_failed")
	return nil, fmt.Errorf("fetching image: %w", lastErr)
}

func (f *Fetcher) candidates(rawURL string) []string {
	list := []string{rawURL}
	encoded := url.QueryEscape(rawURL)
	for _, template := range f.cfg.ProxyURLs {
		if !strings.Contains(template, "%s") {
			continue
		}
		list = append(list, fmt.Sprintf(template, encoded))
	}
	return list
}

func (f *Fetcher) fetchOne(ctx context.Context, fetchURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	limit := f.cfg.MaxBytes
	if limit <= 0 {
		limit = 5242880
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("image exceeds %d bytes", limit)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	kind := mimetype.Detect(body)
	if !strings.HasPrefix(kind.String(), "image/") {
		return nil, fmt.Errorf("unsupported content type %s", kind.String())
	}

	return &Result{
		ContentType: kind.String(),
		Size:        int64(len(body)),
	}, nil
}

func (f *Fetcher) observe(outcome string, started time.Time) {
	f.metrics.ObserveImageFetch(outcome, time.Since(started))
}
