package products_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/go-pricetracker-client/products"
	"github.com/stretchr/testify/require"
)

func TestStats_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []*float64
		wantErr bool
	}{
		{
			name: "numbers",
			raw:  `{"lowestPrice":10.5,"highestPrice":20,"averagePrice":15.25}`,
			want: []*float64{ptr(10.5), ptr(20), ptr(15.25)},
		},
		{
			name: "not available",
			raw:  `{"lowestPrice":"N/A","highestPrice":"N/A","averagePrice":"N/A"}`,
			want: []*float64{nil, nil, nil},
		},
		{
			name: "numeric strings and nulls",
			raw:  `{"lowestPrice":"9.99","highestPrice":null}`,
			want: []*float64{ptr(9.99), nil, nil},
		},
		{
			name:    "garbage",
			raw:     `{"lowestPrice":"cheap"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stats products.Stats
			err := json.Unmarshal([]byte(tt.raw), &stats)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, []*float64{stats.LowestPrice, stats.HighestPrice, stats.AveragePrice})
		})
	}
}

func TestTimestamp(t *testing.T) {
	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{name: "rfc3339", raw: `"2026-03-01T10:00:00Z"`, want: want},
		{name: "rfc3339 with offset", raw: `"2026-03-01T11:00:00+01:00"`, want: want},
		{name: "epoch seconds", raw: `1772359200`, want: want},
		{name: "null", raw: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts products.Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &ts))
			require.True(t, tt.want.Equal(ts.Time), "got %s", ts.Time)
		})
	}

	t.Run("marshal", func(t *testing.T) {
		raw, err := json.Marshal(products.Timestamp{Time: want})
		require.NoError(t, err)
		require.Equal(t, `"2026-03-01T10:00:00Z"`, string(raw))

		raw, err = json.Marshal(products.Timestamp{})
		require.NoError(t, err)
		require.Equal(t, `null`, string(raw))
	})

	t.Run("invalid", func(t *testing.T) {
		var ts products.Timestamp
		require.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	})
}

func ptr(f float64) *float64 {
	return &f
}
