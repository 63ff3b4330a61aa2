package settlement

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	domain "tuichain-backend/internal/domain/settlement"

	"github.com/shopspring/decimal"
)

type memLoan struct {
	handle     domain.LoanHandle
	params     domain.CreateLoanParams
	phase      domain.Phase
	funded     decimal.Decimal
	redemption decimal.Decimal
	positions  []domain.SellPosition
}

// Memory simulates the settlement backend in process. It is used for local
// development and tests; nothing it does is durable.
type Memory struct {
	mu       sync.Mutex
	info     domain.ChainInfo
	loans    map[string]*memLoan
	seq      uint64
	failNext error
}

var _ domain.Backend = (*Memory)(nil)

func NewMemory(info domain.ChainInfo) *Memory {
	return &Memory{info: info, loans: make(map[string]*memLoan)}
}

// FailNext makes the next backend call return err.
func (m *Memory) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

func (m *Memory) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *Memory) get(identifier string) (*memLoan, error) {
	l, ok := m.loans[identifier]
	if !ok {
		return nil, fmt.Errorf("no loan with identifier %s", identifier)
	}
	return l, nil
}

func (m *Memory) CreateLoan(_ context.Context, p domain.CreateLoanParams) (*domain.LoanHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	m.seq++
	h := domain.LoanHandle{
		Identifier:   fmt.Sprintf("0x%040x", m.seq),
		TokenAddress: fmt.Sprintf("0x%040x", m.seq<<32|0xbeef),
	}
	m.loans[h.Identifier] = &memLoan{handle: h, params: p, phase: domain.PhaseFunding}
	return &h, nil
}

func (m *Memory) GetLoan(_ context.Context, identifier string) (*domain.LoanHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	l, err := m.get(identifier)
	if err != nil {
		return nil, err
	}
	h := l.handle
	return &h, nil
}

func (m *Memory) ListLoans(context.Context) ([]domain.LoanHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	out := make([]domain.LoanHandle, 0, len(m.loans))
	for _, l := range m.loans {
		out = append(out, l.handle)
	}
	return out, nil
}

func (m *Memory) LoanState(_ context.Context, identifier string) (*domain.LoanState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	l, err := m.get(identifier)
	if err != nil {
		return nil, err
	}
	return &domain.LoanState{Phase: l.phase, FundedValue: l.funded, RedemptionValue: l.redemption}, nil
}

func (m *Memory) CancelLoan(_ context.Context, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	l, err := m.get(identifier)
	if err != nil {
		return err
	}
	if l.phase != domain.PhaseFunding {
		return fmt.Errorf("loan %s is %s, only FUNDING loans can be canceled", identifier, l.phase)
	}
	l.phase = domain.PhaseCanceled
	return nil
}

func (m *Memory) FinalizeLoan(_ context.Context, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	l, err := m.get(identifier)
	if err != nil {
		return err
	}
	if l.phase != domain.PhaseActive {
		return fmt.Errorf("loan %s is %s, only ACTIVE loans can be finalized", identifier, l.phase)
	}
	l.phase = domain.PhaseFinalized
	if l.redemption.IsZero() {
		l.redemption = domain.ReferencePrice
	}
	return nil
}

func (m *Memory) SellPositions(_ context.Context, identifier string) ([]domain.SellPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	l, err := m.get(identifier)
	if err != nil {
		return nil, err
	}
	return append([]domain.SellPosition(nil), l.positions...), nil
}

func (m *Memory) BuildLoanTransactions(_ context.Context, identifier string, req domain.LoanTxRequest) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	l, err := m.get(identifier)
	if err != nil {
		return nil, err
	}
	amount := req.Value
	if req.Kind == domain.LoanTxRedeemTokens {
		amount = req.AmountTokens
	}
	return []domain.Transaction{{
		To:   l.handle.Identifier,
		Data: calldata(string(req.Kind), amount.String()),
	}}, nil
}

func (m *Memory) BuildMarketTransactions(_ context.Context, identifier string, req domain.MarketTxRequest) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	l, err := m.get(identifier)
	if err != nil {
		return nil, err
	}
	return []domain.Transaction{{
		To:   l.handle.TokenAddress,
		Data: calldata(string(req.Kind), req.AmountTokens.String(), req.Price.String(), req.SellerAddress),
	}}, nil
}

func (m *Memory) ChainInfo(context.Context) (*domain.ChainInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	info := m.info
	return &info, nil
}

// SetPhase moves a simulated loan to phase, as the chain would.
func (m *Memory) SetPhase(identifier string, phase domain.Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.get(identifier)
	if err != nil {
		return err
	}
	l.phase = phase
	return nil
}

// Fund adds value to a FUNDING loan and activates it once fully funded.
func (m *Memory) Fund(identifier string, value decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.get(identifier)
	if err != nil {
		return err
	}
	if l.phase != domain.PhaseFunding {
		return fmt.Errorf("loan %s is %s", identifier, l.phase)
	}
	l.funded = l.funded.Add(value)
	if l.funded.GreaterThanOrEqual(l.params.RequestedValue) {
		l.phase = domain.PhaseActive
	}
	return nil
}

func (m *Memory) AddSellPosition(identifier string, p domain.SellPosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.get(identifier)
	if err != nil {
		return err
	}
	l.positions = append(l.positions, p)
	return nil
}

func calldata(parts ...string) string {
	var b []byte
	for i, p := range parts {
		if i > 0 {
			b = append(b, 0)
		}
		b = append(b, p...)
	}
	return "0x" + hex.EncodeToString(b)
}
