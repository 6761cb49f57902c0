package approval

import "github.com/shopspring/decimal"

// Figures are the Calculator outputs attached to a request. Nil until first
// computed, recomputed on revision or on financial-parameter change, frozen at
// the success terminal.
type Figures interface {
	// RequestType returns the request type the figures belong to
	RequestType() Type
}

// LoanFigures are the flat-rate installment outputs of a loan application
type LoanFigures struct {
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	TotalInterest      decimal.Decimal `json:"total_interest"`
	TotalRepayment     decimal.Decimal `json:"total_repayment"`
}

// RequestType returns TypeLoan
func (LoanFigures) RequestType() Type { return TypeLoan }

// DepositFigures are the projection outputs of a deposit application
type DepositFigures struct {
	TotalDeposits     decimal.Decimal `json:"total_deposits"`
	ProjectedInterest decimal.Decimal `json:"projected_interest"`
	TotalReturn       decimal.Decimal `json:"total_return"`
}

// RequestType returns TypeDeposit
func (DepositFigures) RequestType() Type { return TypeDeposit }

// DepositChangeFigures are the signed differences between the current and
// proposed deposit terms, plus the fixed administrative fee
type DepositChangeFigures struct {
	PrincipalDelta   decimal.Decimal `json:"principal_delta"`
	TenorDeltaMonths int             `json:"tenor_delta_months"`
	InterestDelta    decimal.Decimal `json:"interest_delta"`
	TotalReturnDelta decimal.Decimal `json:"total_return_delta"`
	AdminFee         decimal.Decimal `json:"admin_fee"`
}

// RequestType returns TypeDepositChange
func (DepositChangeFigures) RequestType() Type { return TypeDepositChange }

// WithdrawalFigures are the penalty outputs of a withdrawal
type WithdrawalFigures struct {
	PenaltyAmount decimal.Decimal `json:"penalty_amount"`
	NetAmount     decimal.Decimal `json:"net_amount"`
}

// RequestType returns TypeWithdrawal
func (WithdrawalFigures) RequestType() Type { return TypeWithdrawal }
