package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/merchforge/merchforge-backend/pkg/config"
)

// Totals are the order-level additions computed on top of the line totals.
type Totals struct {
	SubtotalCents int64
	TaxCents      int64
	ShippingCents int64
	TotalCents    int64
}

var tenThousand = decimal.NewFromInt(10000)

// ComputeTotals applies tax in basis points (rounded half-up) and the flat
// shipping fee. A zero threshold disables free shipping.
func ComputeTotals(subtotal int64, cfg config.PricingConfig) Totals {
	tax := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(cfg.TaxBasisPoints)).
		Div(tenThousand).
		Round(0).
		IntPart()

	shipping := cfg.ShippingFlatCents
	if cfg.FreeShippingThresholdCents > 0 && subtotal >= cfg.FreeShippingThresholdCents {
		shipping = 0
	}

	return Totals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		ShippingCents: shipping,
		TotalCents:    subtotal + tax + shipping,
	}
}

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var alphabetSize = big.NewInt(int64(len(orderNumberAlphabet)))

// NewOrderNumber returns ORD followed by the unix millisecond timestamp and
// five random base36 characters.
func NewOrderNumber(now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString("ORD")
	fmt.Fprintf(&b, "%d", now.UnixMilli())
	for i := 0; i < 5; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b.WriteByte(orderNumberAlphabet[n.Int64()])
	}
	return b.String(), nil
}
