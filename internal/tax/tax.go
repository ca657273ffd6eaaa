// Package tax is the pluggable tax computation seam for invoice aggregation.
// The default implementation charges no tax; a real engine can be swapped in
// through the fx graph without touching the invoice code.
package tax

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// Line is the taxable surface of one invoice line.
type Line struct {
	Taxable bool
	Amount  decimal.Decimal
}

type Calculator interface {
	ComputeTax(ctx context.Context, lines []Line) (decimal.Decimal, error)
}

type zeroCalculator struct{}

func (zeroCalculator) ComputeTax(_ context.Context, _ []Line) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func NewZeroCalculator() Calculator {
	return zeroCalculator{}
}

var Module = fx.Module("tax",
	fx.Provide(NewZeroCalculator),
)
