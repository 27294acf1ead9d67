package tool

import (
	"context"

	"github.com/fleveque/stock-assistant/internal/llm"
	"github.com/fleveque/stock-assistant/internal/market"
)

// StockInfoName is the function name the model uses to request a quote.
const StockInfoName = "get_stock_info"

// QuoteFetcher is the part of market.Client the stock tool depends on.
type QuoteFetcher interface {
	Fetch(ctx context.Context, ticker string) market.Result
}

type stockInfoTool struct {
	fetcher QuoteFetcher
}

// NewStockInfoTool returns the get_stock_info tool backed by fetcher.
func NewStockInfoTool(fetcher QuoteFetcher) Tool {
	return &stockInfoTool{fetcher: fetcher}
}

func (t *stockInfoTool) Declaration() llm.FunctionDeclaration {
	return llm.FunctionDeclaration{
		Name:        StockInfoName,
		Description: "Fetches real-time stock information for a given ticker symbol. Returns current price, previous close, open, high, low, and volume.",
		Parameters: &llm.Schema{
			Type: llm.TypeObject,
			Properties: map[string]*llm.Schema{
				"ticker": {
					Type:        llm.TypeString,
					Description: "The stock ticker symbol (e.g., 'AAPL', 'GOOGL', 'MSFT').",
				},
			},
			Required: []string{"ticker"},
		},
	}
}

func (t *stockInfoTool) Call(ctx context.Context, args map[string]any) map[string]any {
	ticker, _ := args["ticker"].(string)
	return t.fetcher.Fetch(ctx, ticker).Payload()
}

// Ticker extracts the ticker argument from a get_stock_info call, or "".
func Ticker(args map[string]any) string {
	ticker, _ := args["ticker"].(string)
	return ticker
}
