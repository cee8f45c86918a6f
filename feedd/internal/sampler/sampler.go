package sampler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/Kush2408/dredger-swiper-v4/feedd/internal/config"
	"github.com/Kush2408/dredger-swiper-v4/pkg/feedkey"
)

const defaultScrapeTimeout = 10 * time.Second

// Sampler produces the current payload for a single feed.
type Sampler interface {
	Sample(ctx context.Context) (json.RawMessage, error)
}

// New returns the Sampler for the given feed source configuration.
// It builds the HTTP client once and reuses it across sample calls.
func New(src config.FeedSource) (Sampler, error) {
	key, err := feedkey.Parse(src.Key)
	if err != nil {
		return nil, fmt.Errorf("sampler: %w", err)
	}
	switch src.Sampler {
	case "synthetic", "":
		return newSynthetic(key), nil
	case "prometheus":
		return newPromSampler(key, src.Endpoint, &http.Client{Timeout: defaultScrapeTimeout})
	default:
		return nil, fmt.Errorf("sampler: unsupported type %q", src.Sampler)
	}
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	// Non-empty result with a non-nil err means partial parse (trailing lines,
	// format warnings). Treat as success.
	return mfs, nil
}

// familyValue returns the first counter, gauge, or untyped value in a
// MetricFamily. Returns 0 if mf is nil or empty (metric not exported).
func familyValue(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	for _, m := range mf.GetMetric() {
		switch {
		case m.Gauge != nil:
			return m.Gauge.GetValue()
		case m.Counter != nil:
			return m.Counter.GetValue()
		case m.Untyped != nil:
			return m.Untyped.GetValue()
		}
	}
	return 0
}
