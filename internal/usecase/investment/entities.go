package investment

import (
	"time"

	"tuichain-backend/internal/domain/investment"

	"github.com/shopspring/decimal"
)

type InvestInput struct {
	LoanID     uint64          `json:"loan_id" validate:"required"`
	InvestorID uint64          `json:"-" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
}

type InvestmentDTO struct {
	ID             uint64          `json:"id"`
	InvestorID     uint64          `json:"investor_id"`
	LoanID         uint64          `json:"loan_id"`
	Amount         decimal.Decimal `json:"amount"`
	InvestmentDate time.Time       `json:"investment_date"`
}

func toDTO(i *investment.Investment) InvestmentDTO {
	return InvestmentDTO{
		ID:             i.ID,
		InvestorID:     i.InvestorID,
		LoanID:         i.LoanID,
		Amount:         i.Amount,
		InvestmentDate: i.InvestmentDate,
	}
}

func toDTOs(is []investment.Investment) []InvestmentDTO {
	out := make([]InvestmentDTO, 0, len(is))
	for i := range is {
		out = append(out, toDTO(&is[i]))
	}
	return out
}
