package settlement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Phase is the settlement backend's lifecycle for an approved loan.
type Phase string

const (
	PhaseFunding   Phase = "FUNDING"
	PhaseActive    Phase = "ACTIVE"
	PhaseFinalized Phase = "FINALIZED"
	PhaseCanceled  Phase = "CANCELED"
	PhaseExpired   Phase = "EXPIRED"
)

var phases = []Phase{PhaseFunding, PhaseActive, PhaseFinalized, PhaseCanceled, PhaseExpired}

func ParsePhase(name string) (Phase, bool) {
	p := Phase(strings.ToUpper(strings.TrimSpace(name)))
	for _, known := range phases {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// Operating reports whether loans in this phase are still listed as
// operating.
func (p Phase) Operating() bool { return p != PhaseCanceled && p != PhaseExpired }

type CreateLoanParams struct {
	RecipientAddress string
	ExpirationPeriod time.Duration
	FundingFeeRate   decimal.Decimal
	PaymentFeeRate   decimal.Decimal
	RequestedValue   decimal.Decimal
}

// LoanHandle references a loan object owned by the settlement backend.
type LoanHandle struct {
	Identifier   string `json:"identifier"`
	TokenAddress string `json:"token_address"`
}

type LoanState struct {
	Phase           Phase           `json:"phase"`
	FundedValue     decimal.Decimal `json:"funded_value"`
	RedemptionValue decimal.Decimal `json:"redemption_value"`
}

type SellPosition struct {
	Seller       string          `json:"seller"`
	AmountTokens decimal.Decimal `json:"amount_tokens"`
	Price        decimal.Decimal `json:"price"`
}

// Transaction is an unsigned payload for the caller's own wallet.
type Transaction struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

type ChainInfo struct {
	ChainID            int64  `json:"chain_id"`
	DaiContractAddress string `json:"dai_contract_address"`
}

type LoanTxKind string

const (
	LoanTxProvideFunds  LoanTxKind = "provide_funds"
	LoanTxWithdrawFunds LoanTxKind = "withdraw_funds"
	LoanTxMakePayment   LoanTxKind = "make_payment"
	LoanTxRedeemTokens  LoanTxKind = "redeem_tokens"
)

// LoanTxRequest asks for the transactions of a loan operation. Value is in
// atto units for funds/payment kinds; AmountTokens is used by redeem_tokens.
type LoanTxRequest struct {
	Kind         LoanTxKind      `json:"kind"`
	Value        decimal.Decimal `json:"value"`
	AmountTokens decimal.Decimal `json:"amount_tokens"`
}

func (r LoanTxRequest) Validate() error {
	switch r.Kind {
	case LoanTxProvideFunds, LoanTxWithdrawFunds, LoanTxMakePayment:
		return requirePositive("value", r.Value)
	case LoanTxRedeemTokens:
		return requirePositive("amount_tokens", r.AmountTokens)
	default:
		return fmt.Errorf("unknown loan transaction %q", r.Kind)
	}
}

type MarketTxKind string

const (
	MarketTxCreateSellPosition      MarketTxKind = "create_sell_position"
	MarketTxRemoveSellPosition      MarketTxKind = "remove_sell_position"
	MarketTxIncreaseSellPosition    MarketTxKind = "increase_sell_position_amount"
	MarketTxDecreaseSellPosition    MarketTxKind = "decrease_sell_position_amount"
	MarketTxUpdateSellPositionPrice MarketTxKind = "update_sell_position_price"
	MarketTxPurchase                MarketTxKind = "purchase"
)

type MarketTxRequest struct {
	Kind          MarketTxKind    `json:"kind"`
	AmountTokens  decimal.Decimal `json:"amount_tokens"`
	Price         decimal.Decimal `json:"price"`
	SellerAddress string          `json:"seller_address,omitempty"`
	FeeRate       decimal.Decimal `json:"fee_rate"`
}

func (r MarketTxRequest) Validate() error {
	switch r.Kind {
	case MarketTxCreateSellPosition:
		if err := requirePositive("amount_tokens", r.AmountTokens); err != nil {
			return err
		}
		return requirePositive("price", r.Price)
	case MarketTxRemoveSellPosition:
		return nil
	case MarketTxIncreaseSellPosition, MarketTxDecreaseSellPosition:
		return requirePositive("amount_tokens", r.AmountTokens)
	case MarketTxUpdateSellPositionPrice:
		return requirePositive("price", r.Price)
	case MarketTxPurchase:
		if r.SellerAddress == "" {
			return fmt.Errorf("seller_address is required")
		}
		if err := requirePositive("amount_tokens", r.AmountTokens); err != nil {
			return err
		}
		if err := requirePositive("price", r.Price); err != nil {
			return err
		}
		if r.FeeRate.IsNegative() || !r.FeeRate.IsInteger() {
			return fmt.Errorf("fee_rate must be a non-negative integer")
		}
		return nil
	default:
		return fmt.Errorf("unknown market transaction %q", r.Kind)
	}
}

func requirePositive(field string, v decimal.Decimal) error {
	if !v.IsPositive() || !v.IsInteger() {
		return fmt.Errorf("%s must be a positive integer", field)
	}
	return nil
}

// Backend is the capability surface of the external settlement system. It
// never signs or broadcasts on behalf of users.
type Backend interface {
	CreateLoan(ctx context.Context, p CreateLoanParams) (*LoanHandle, error)
	GetLoan(ctx context.Context, identifier string) (*LoanHandle, error)
	ListLoans(ctx context.Context) ([]LoanHandle, error)
	LoanState(ctx context.Context, identifier string) (*LoanState, error)
	CancelLoan(ctx context.Context, identifier string) error
	FinalizeLoan(ctx context.Context, identifier string) error

	SellPositions(ctx context.Context, identifier string) ([]SellPosition, error)
	BuildLoanTransactions(ctx context.Context, identifier string, req LoanTxRequest) ([]Transaction, error)
	BuildMarketTransactions(ctx context.Context, identifier string, req MarketTxRequest) ([]Transaction, error)

	ChainInfo(ctx context.Context) (*ChainInfo, error)
}
