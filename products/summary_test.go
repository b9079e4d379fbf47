package products_test

import (
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-pricetracker-client/internal/utils"
	"github.com/jrsteele09/go-pricetracker-client/products"
	"github.com/stretchr/testify/require"
)

func sample(price float64, at time.Time) products.PriceHistory {
	return products.PriceHistory{Price: price, Currency: "USD", ScrapedAt: products.Timestamp{Time: at}, InStock: true}
}

func TestSummarize(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	// Newest first, as the backend returns the full history
	history := []products.PriceHistory{
		sample(180, base.Add(48*time.Hour)),
		sample(210, base.Add(24*time.Hour)),
		sample(220, base),
	}
	product := products.Product{URL: "https://www.example.com/item/123", Name: "Headphones", TargetPrice: utils.Ptr(199.99)}
	stats := products.Stats{LowestPrice: utils.Ptr(180.0), HighestPrice: utils.Ptr(220.0), AveragePrice: utils.Ptr(203.33)}

	summary := products.Summarize(product, history, stats)
	require.Equal(t, "Headphones", summary.DisplayName)
	require.Equal(t, "Other", summary.Retailer)
	require.Equal(t, 180.0, utils.Value(summary.CurrentPrice))
	require.True(t, summary.AtOrBelowTarget)
	require.Equal(t, 220.0, utils.Value(summary.HighestPrice))

	ordered := products.Chronological(history)
	require.Equal(t, []float64{220, 210, 180}, []float64{ordered[0].Price, ordered[1].Price, ordered[2].Price})
	require.Equal(t, 180.0, history[0].Price, "input is not reordered")

	t.Run("no samples", func(t *testing.T) {
		summary := products.Summarize(product, nil, products.Stats{})
		require.Nil(t, summary.CurrentPrice)
		require.False(t, summary.AtOrBelowTarget)
	})

	t.Run("above target", func(t *testing.T) {
		summary := products.Summarize(product, history[1:2], stats)
		require.Equal(t, 210.0, utils.Value(summary.CurrentPrice))
		require.False(t, summary.AtOrBelowTarget)
	})
}

func TestDisplayName(t *testing.T) {
	longPath := "/" + strings.Repeat("a", 40)

	tests := []struct {
		name    string
		product products.Product
		want    string
	}{
		{name: "named", product: products.Product{Name: "Kettle", URL: "https://example.com/k"}, want: "Kettle"},
		{name: "short url", product: products.Product{URL: "https://example.com/item/1"}, want: "example.com/item/1"},
		{name: "long path", product: products.Product{URL: "https://example.com" + longPath}, want: "example.com" + longPath[:30] + "..."},
		{name: "not a url", product: products.Product{URL: strings.Repeat("x", 60)}, want: strings.Repeat("x", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, products.DisplayName(tt.product))
		})
	}
}

func TestRetailerLabel(t *testing.T) {
	require.Equal(t, "Amazon", products.RetailerLabel(products.Product{Retailer: "Amazon"}))
	require.Equal(t, "Other", products.RetailerLabel(products.Product{}))
}

func TestHistoryRanges(t *testing.T) {
	days := make([]int, 0, len(products.HistoryRanges))
	for _, r := range products.HistoryRanges {
		days = append(days, r.Days)
	}
	require.Equal(t, []int{7, 30, 90, 0}, days)
}
