// Package finance holds the pure financial calculations attached to the
// approval workflow: flat-rate loan installments, deposit interest projections,
// deposit-change deltas, and withdrawal penalties. Everything is exact decimal
// arithmetic; no state, no I/O.
package finance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/koperasidigital/simpanpinjam/internal/domain/approval"
)

var (
	hundred       = decimal.NewFromInt(100)
	twelve        = decimal.NewFromInt(12)
	twelveHundred = decimal.NewFromInt(1200)
	one           = decimal.NewFromInt(1)
)

// InstallmentSchedule is the flat-rate result of a loan calculation
type InstallmentSchedule struct {
	Principal          decimal.Decimal
	TotalInterest      decimal.Decimal
	MonthlyInstallment decimal.Decimal
	TotalRepayment     decimal.Decimal
}

// LoanInstallment computes the flat-rate installment schedule: interest is
// computed once on the original principal over the full tenor and divided
// evenly across installments. No declining balance.
func LoanInstallment(principal, annualRatePct decimal.Decimal, tenorMonths int) (InstallmentSchedule, error) {
	if !principal.IsPositive() {
		return InstallmentSchedule{}, fmt.Errorf("%w: principal must be positive", approval.ErrValidation)
	}
	if annualRatePct.IsNegative() {
		return InstallmentSchedule{}, fmt.Errorf("%w: rate must not be negative", approval.ErrValidation)
	}
	if tenorMonths <= 0 {
		return InstallmentSchedule{}, fmt.Errorf("%w: tenor must be positive", approval.ErrValidation)
	}

	tenor := decimal.NewFromInt(int64(tenorMonths))
	// totalInterest = principal * rate/100 * tenor/12
	totalInterest := principal.Mul(annualRatePct).Mul(tenor).Div(twelveHundred)
	totalRepayment := principal.Add(totalInterest)
	monthly := totalRepayment.Div(tenor)

	return InstallmentSchedule{
		Principal:          principal,
		TotalInterest:      totalInterest,
		MonthlyInstallment: monthly,
		TotalRepayment:     totalRepayment,
	}, nil
}

// ProjectionRow is one month of a deposit projection
type ProjectionRow struct {
	Month              int
	Deposit            decimal.Decimal
	CumulativeDeposits decimal.Decimal
	CumulativeInterest decimal.Decimal
	TotalBalance       decimal.Decimal
}

// Projection is the month-by-month outcome of a recurring monthly deposit
type Projection struct {
	Rows              []ProjectionRow
	TotalDeposits     decimal.Decimal
	ProjectedInterest decimal.Decimal
	TotalReturn       decimal.Decimal
}

// DepositProjection projects a recurring monthly deposit over the tenor.
// SIMPLE accrues interest linearly on the cumulative principal at rate/12 per
// month; COMPOUND compounds the running balance at rate/12 per month. Every row
// satisfies totalBalance == cumulativeDeposits + cumulativeInterest exactly.
func DepositProjection(monthlyDeposit decimal.Decimal, tenorMonths int, annualRatePct decimal.Decimal, method approval.ProjectionMethod) (Projection, error) {
	if !monthlyDeposit.IsPositive() {
		return Projection{}, fmt.Errorf("%w: monthly deposit must be positive", approval.ErrValidation)
	}
	if tenorMonths <= 0 {
		return Projection{}, fmt.Errorf("%w: tenor must be positive", approval.ErrValidation)
	}
	if annualRatePct.IsNegative() {
		return Projection{}, fmt.Errorf("%w: rate must not be negative", approval.ErrValidation)
	}
	if method != approval.MethodSimple && method != approval.MethodCompound {
		return Projection{}, fmt.Errorf("%w: unknown projection method %q", approval.ErrValidation, method)
	}

	monthlyRate := annualRatePct.Div(twelveHundred)

	rows := make([]ProjectionRow, 0, tenorMonths)
	cumDeposits := decimal.Zero
	cumInterest := decimal.Zero
	balance := decimal.Zero

	for m := 1; m <= tenorMonths; m++ {
		cumDeposits = cumDeposits.Add(monthlyDeposit)

		switch method {
		case approval.MethodSimple:
			cumInterest = cumInterest.Add(cumDeposits.Mul(monthlyRate))
			balance = cumDeposits.Add(cumInterest)
		case approval.MethodCompound:
			balance = balance.Add(monthlyDeposit).Mul(one.Add(monthlyRate))
			cumInterest = balance.Sub(cumDeposits)
		}

		rows = append(rows, ProjectionRow{
			Month:              m,
			Deposit:            monthlyDeposit,
			CumulativeDeposits: cumDeposits,
			CumulativeInterest: cumInterest,
			TotalBalance:       balance,
		})
	}

	return Projection{
		Rows:              rows,
		TotalDeposits:     cumDeposits,
		ProjectedInterest: cumInterest,
		TotalReturn:       balance,
	}, nil
}

// ChangeDelta is the signed difference between two deposit term sets
type ChangeDelta struct {
	PrincipalDelta   decimal.Decimal
	TenorDeltaMonths int
	InterestDelta    decimal.Decimal
	TotalReturnDelta decimal.Decimal
	AdminFee         decimal.Decimal
}

// DepositChangeDelta recomputes the projection for the current and proposed
// term sets at their respective tenors/rates and returns the signed
// differences plus the fixed administrative fee.
func DepositChangeDelta(current, proposed approval.DepositTerms, adminFee decimal.Decimal) (ChangeDelta, error) {
	cur, err := DepositProjection(current.MonthlyAmount, current.TenorMonths, current.AnnualRatePct, current.Method)
	if err != nil {
		return ChangeDelta{}, fmt.Errorf("current terms: %w", err)
	}
	prop, err := DepositProjection(proposed.MonthlyAmount, proposed.TenorMonths, proposed.AnnualRatePct, proposed.Method)
	if err != nil {
		return ChangeDelta{}, fmt.Errorf("proposed terms: %w", err)
	}

	return ChangeDelta{
		PrincipalDelta:   prop.TotalDeposits.Sub(cur.TotalDeposits),
		TenorDeltaMonths: proposed.TenorMonths - current.TenorMonths,
		InterestDelta:    prop.ProjectedInterest.Sub(cur.ProjectedInterest),
		TotalReturnDelta: prop.TotalReturn.Sub(cur.TotalReturn),
		AdminFee:         adminFee,
	}, nil
}

// Penalty is the outcome of a withdrawal penalty calculation
type Penalty struct {
	PenaltyAmount decimal.Decimal
	NetAmount     decimal.Decimal
}

// DefaultPenaltyRatePct is applied when a withdrawal carries no explicit rate
var DefaultPenaltyRatePct = decimal.NewFromInt(3)

// WithdrawalPenalty computes the early-withdrawal penalty. Withdrawals at or
// after maturity carry no penalty.
func WithdrawalPenalty(amount decimal.Decimal, beforeMaturity bool, penaltyRatePct decimal.Decimal) (Penalty, error) {
	if !amount.IsPositive() {
		return Penalty{}, fmt.Errorf("%w: amount must be positive", approval.ErrValidation)
	}
	if penaltyRatePct.IsNegative() {
		return Penalty{}, fmt.Errorf("%w: penalty rate must not be negative", approval.ErrValidation)
	}

	penalty := decimal.Zero
	if beforeMaturity {
		penalty = amount.Mul(penaltyRatePct).Div(hundred)
	}
	return Penalty{
		PenaltyAmount: penalty,
		NetAmount:     amount.Sub(penalty),
	}, nil
}
