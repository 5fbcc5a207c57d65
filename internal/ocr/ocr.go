package ocr

import (
	"context"

	"github.com/shopspring/decimal"
)

// Result is what could be read off a receipt. Every field is optional.
type Result struct {
	Merchant   *string          `json:"merchant"`
	Amount     *decimal.Decimal `json:"amount"`
	Date       *string          `json:"date"`
	Confidence int              `json:"confidence"`
	RawText    string           `json:"raw_text"`
	Mock       bool             `json:"mock,omitempty"`
}

// Extractor reads receipt data from an image.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (*Result, error)
}

// Empty is the degraded result used when extraction fails.
func Empty() *Result {
	return &Result{}
}
