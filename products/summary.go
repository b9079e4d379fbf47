package products

import (
	"net/url"
	"sort"

	"github.com/jrsteele09/go-pricetracker-client/internal/utils"
)

const (
	displayPathLength = 30
	displayRawLength  = 50
	unknownRetailer   = "Other"
)

// Range is a history window offered by the detail view. Days == 0 means all time.
type Range struct {
	Label string
	Days  int
}

var HistoryRanges = []Range{
	{Label: "7 days", Days: 7},
	{Label: "30 days", Days: 30},
	{Label: "90 days", Days: 90},
	{Label: "All time", Days: 0},
}

// Summary is what the detail view shows above the chart
type Summary struct {
	DisplayName     string
	Retailer        string
	CurrentPrice    *float64
	TargetPrice     *float64
	LowestPrice     *float64
	HighestPrice    *float64
	AveragePrice    *float64
	AtOrBelowTarget bool
}

func Summarize(p Product, history []PriceHistory, stats Stats) Summary {
	s := Summary{
		DisplayName:  DisplayName(p),
		Retailer:     RetailerLabel(p),
		TargetPrice:  p.TargetPrice,
		LowestPrice:  stats.LowestPrice,
		HighestPrice: stats.HighestPrice,
		AveragePrice: stats.AveragePrice,
	}
	if latest, ok := Latest(history); ok {
		s.CurrentPrice = utils.Ptr(latest.Price)
		s.AtOrBelowTarget = p.TargetPrice != nil && latest.Price <= utils.Value(p.TargetPrice)
	}
	return s
}

// Chronological returns a copy of history ordered oldest first.
// The backend orders ascending when a window is requested and descending otherwise.
func Chronological(history []PriceHistory) []PriceHistory {
	out := make([]PriceHistory, len(history))
	copy(out, history)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScrapedAt.Before(out[j].ScrapedAt.Time)
	})
	return out
}

// Latest returns the most recent sample
func Latest(history []PriceHistory) (PriceHistory, bool) {
	if len(history) == 0 {
		return PriceHistory{}, false
	}
	latest := history[0]
	for _, h := range history[1:] {
		if h.ScrapedAt.After(latest.ScrapedAt.Time) {
			latest = h
		}
	}
	return latest, true
}

// DisplayName is the product name, or a shortened URL when the scraper found none
func DisplayName(p Product) string {
	if p.Name != "" {
		return p.Name
	}
	u, err := url.Parse(p.URL)
	if err != nil || u.Host == "" {
		if len(p.URL) > displayRawLength {
			return p.URL[:displayRawLength]
		}
		return p.URL
	}
	path := u.Path
	if len(path) > displayPathLength {
		return u.Host + path[:displayPathLength] + "..."
	}
	return u.Host + path
}

func RetailerLabel(p Product) string {
	if p.Retailer == "" {
		return unknownRetailer
	}
	return p.Retailer
}
