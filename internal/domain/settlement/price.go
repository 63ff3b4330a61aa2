package settlement

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ReferencePrice is one whole token expressed in atto units.
var ReferencePrice = decimal.New(1, 18)

// Overlay holds the externally owned fields merged into an approved loan on
// read. It is never persisted.
type Overlay struct {
	Phase              Phase            `json:"phase"`
	FundedValue        decimal.Decimal  `json:"funded_value"`
	TokenAddress       string           `json:"token_address"`
	CurrentMarketPrice *decimal.Decimal `json:"current_market_price"`
}

// WeightedMedianPrice returns the median of the sell position prices with
// each price counted once per token on offer. When the tokens split exactly
// in half between two prices the result is their mean. ok is false when there
// is nothing to weigh.
func WeightedMedianPrice(positions []SellPosition) (price decimal.Decimal, ok bool) {
	ps := make([]SellPosition, 0, len(positions))
	total := decimal.Zero
	for _, p := range positions {
		if !p.AmountTokens.IsPositive() {
			continue
		}
		ps = append(ps, p)
		total = total.Add(p.AmountTokens)
	}
	if len(ps) == 0 {
		return decimal.Zero, false
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Price.LessThan(ps[j].Price) })

	two := decimal.NewFromInt(2)
	half := total.Div(two)
	acc := decimal.Zero
	for i, p := range ps {
		acc = acc.Add(p.AmountTokens)
		if acc.Equal(half) && i+1 < len(ps) {
			return p.Price.Add(ps[i+1].Price).Div(two), true
		}
		if acc.GreaterThan(half) {
			return p.Price, true
		}
	}
	return ps[len(ps)-1].Price, true
}

// MarketPrice derives the current token price for a loan in the given state.
// A nil result means no price can be quoted.
func MarketPrice(st LoanState, positions []SellPosition) *decimal.Decimal {
	switch st.Phase {
	case PhaseFunding, PhaseCanceled, PhaseExpired:
		p := ReferencePrice
		return &p
	case PhaseActive:
		if p, ok := WeightedMedianPrice(positions); ok {
			return &p
		}
		return nil
	case PhaseFinalized:
		p := st.RedemptionValue
		return &p
	default:
		return nil
	}
}
