package products

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-pricetracker-client/internal/errors"
)

const minTargetPrice = 0.01

// Product is a tracked product as the backend returns it
type Product struct {
	ID          uuid.UUID `json:"id"`
	URL         string    `json:"url"`
	Name        string    `json:"name,omitempty"`
	Retailer    string    `json:"retailer,omitempty"`
	TargetPrice *float64  `json:"targetPrice,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// ProductRequest creates or updates a product. A nil TargetPrice tracks the price without a target.
type ProductRequest struct {
	URL         string   `json:"url"`
	TargetPrice *float64 `json:"targetPrice,omitempty"`
}

// Validate applies the backend's rules locally: an absolute URL and, when set, a target price of at least 0.01
func (r ProductRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.URL, validation.Required, is.RequestURL),
		validation.Field(&r.TargetPrice, validation.NilOrNotEmpty, validation.Min(minTargetPrice)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidProduct, err)
	}
	return nil
}

// PriceHistory is one scraped price sample
type PriceHistory struct {
	ID        uuid.UUID `json:"id"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	ScrapedAt Timestamp `json:"scrapedAt"`
	InStock   bool      `json:"inStock"`
}

// Stats are the all-time aggregates of a product's history. A nil field means no samples yet.
type Stats struct {
	LowestPrice  *float64
	HighestPrice *float64
	AveragePrice *float64
}

// UnmarshalJSON accepts numbers, numeric strings and the backend's "N/A" placeholder
func (s *Stats) UnmarshalJSON(data []byte) error {
	var raw struct {
		LowestPrice  json.RawMessage `json:"lowestPrice"`
		HighestPrice json.RawMessage `json:"highestPrice"`
		AveragePrice json.RawMessage `json:"averagePrice"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var err error
	if s.LowestPrice, err = parseStat(raw.LowestPrice); err != nil {
		return fmt.Errorf("lowestPrice: %w", err)
	}
	if s.HighestPrice, err = parseStat(raw.HighestPrice); err != nil {
		return fmt.Errorf("highestPrice: %w", err)
	}
	if s.AveragePrice, err = parseStat(raw.AveragePrice); err != nil {
		return fmt.Errorf("averagePrice: %w", err)
	}
	return nil
}

func parseStat(raw json.RawMessage) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s == "" || s == "N/A" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		return &f, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Alert records a price drop that reached the target
type Alert struct {
	ID               uuid.UUID `json:"id"`
	TriggeredPrice   float64   `json:"triggeredPrice"`
	TriggeredAt      Timestamp `json:"triggeredAt"`
	NotificationSent bool      `json:"notificationSent"`
	AlertType        string    `json:"alertType"`
}

// Timestamp decodes either an RFC 3339 string or epoch seconds (with optional fraction),
// the two shapes a Java Instant takes on the wire.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}
	secs, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("timestamp %s: %w", data, err)
	}
	whole := int64(secs)
	t.Time = time.Unix(whole, int64((secs-float64(whole))*1e9)).UTC()
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
