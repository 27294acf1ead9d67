package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// YahooProvider reads quote snapshots from the Yahoo Finance chart API.
// The response has no schema guarantee, so it is navigated with gjson paths
// instead of being unmarshaled into structs.
type YahooProvider struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewYahooProvider creates a provider rooted at baseURL (https://query1.finance.yahoo.com).
func NewYahooProvider(baseURL, userAgent string, timeout time.Duration) *YahooProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YahooProvider{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

// infoPaths maps Info keys to gjson paths relative to chart.result.0, in
// priority order. The chart endpoint carries no market capitalization, so
// marketCap is always reported as Unavailable by this provider.
var infoPaths = map[string][]string{
	"longName":           {"meta.longName", "meta.shortName"},
	"currency":           {"meta.currency"},
	"exchange":           {"meta.exchangeName"},
	"regularMarketPrice": {"meta.regularMarketPrice"},
	"previousClose":      {"meta.previousClose", "meta.chartPreviousClose"},
	"open":               {"indicators.quote.0.open.0"},
	"dayHigh":            {"meta.regularMarketDayHigh", "indicators.quote.0.high.0"},
	"dayLow":             {"meta.regularMarketDayLow", "indicators.quote.0.low.0"},
	"volume":             {"meta.regularMarketVolume", "indicators.quote.0.volume.0"},
}

// Info fetches one day of chart data and flattens it. A 404 or an empty
// result set means the symbol is unknown and yields an empty Info.
func (p *YahooProvider) Info(ctx context.Context, ticker string) (Info, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d",
		p.baseURL, url.PathEscape(strings.ToUpper(ticker)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Info{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, p.Name())
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20)) // 5MB limit
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON from %s", p.Name())
	}

	return flattenChart(body), nil
}

// flattenChart copies the fields listed in infoPaths out of a chart response.
func flattenChart(body []byte) Info {
	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() || result.Type == gjson.Null {
		return Info{}
	}

	info := Info{}
	for key, paths := range infoPaths {
		for _, path := range paths {
			v := result.Get(path)
			if v.Exists() && v.Type != gjson.Null {
				info[key] = v.Value()
				break
			}
		}
	}
	return info
}
