package approval

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Params carries the type-specific monetary and tenor inputs of a request.
// Concrete implementations are plain value structs; the persistence layer
// serializes them by request type.
type Params interface {
	// RequestType returns the request type the parameters belong to
	RequestType() Type

	// Validate checks the parameter shape and value ranges
	Validate() error
}

// LoanSubtype distinguishes the three loan products
type LoanSubtype string

const (
	LoanCash   LoanSubtype = "CASH"
	LoanItem   LoanSubtype = "ITEM"
	LoanRetail LoanSubtype = "RETAIL"
)

// LoanParams are the inputs of a loan application
type LoanParams struct {
	Subtype LoanSubtype `json:"subtype"`

	// CASH loans carry a cash amount, ITEM loans an item price, RETAIL loans a
	// retail/cooperative price pair. Fields outside the subtype stay zero.
	Amount           decimal.Decimal `json:"amount"`
	ItemPrice        decimal.Decimal `json:"item_price"`
	RetailPrice      decimal.Decimal `json:"retail_price"`
	CooperativePrice decimal.Decimal `json:"cooperative_price"`

	TenorMonths   int             `json:"tenor_months"`
	AnnualRatePct decimal.Decimal `json:"annual_rate_pct"`
}

// RequestType returns TypeLoan
func (p LoanParams) RequestType() Type { return TypeLoan }

// Principal returns the amount interest is computed on for the loan's subtype
func (p LoanParams) Principal() decimal.Decimal {
	switch p.Subtype {
	case LoanItem:
		return p.ItemPrice
	case LoanRetail:
		return p.RetailPrice
	default:
		return p.Amount
	}
}

// Validate checks the subtype payload shape and value ranges
func (p LoanParams) Validate() error {
	if p.TenorMonths <= 0 {
		return fmt.Errorf("%w: loan tenor must be positive", ErrValidation)
	}
	if p.AnnualRatePct.IsNegative() {
		return fmt.Errorf("%w: loan rate must not be negative", ErrValidation)
	}
	switch p.Subtype {
	case LoanCash:
		if !p.Amount.IsPositive() {
			return fmt.Errorf("%w: cash loan amount must be positive", ErrValidation)
		}
		if !p.ItemPrice.IsZero() || !p.RetailPrice.IsZero() || !p.CooperativePrice.IsZero() {
			return fmt.Errorf("%w: cash loan carries only an amount", ErrValidation)
		}
	case LoanItem:
		if !p.ItemPrice.IsPositive() {
			return fmt.Errorf("%w: item loan price must be positive", ErrValidation)
		}
		if !p.Amount.IsZero() || !p.RetailPrice.IsZero() || !p.CooperativePrice.IsZero() {
			return fmt.Errorf("%w: item loan carries only an item price", ErrValidation)
		}
	case LoanRetail:
		if !p.RetailPrice.IsPositive() || !p.CooperativePrice.IsPositive() {
			return fmt.Errorf("%w: retail loan needs a retail/cooperative price pair", ErrValidation)
		}
		if !p.Amount.IsZero() || !p.ItemPrice.IsZero() {
			return fmt.Errorf("%w: retail loan carries only a price pair", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown loan subtype %q", ErrValidation, p.Subtype)
	}
	return nil
}

// ProjectionMethod selects how deposit interest accrues
type ProjectionMethod string

const (
	MethodSimple   ProjectionMethod = "SIMPLE"
	MethodCompound ProjectionMethod = "COMPOUND"
)

// DepositParams are the inputs of a new deposit application. The deposit is a
// recurring monthly contribution accumulated over the tenor.
type DepositParams struct {
	MonthlyAmount decimal.Decimal  `json:"monthly_amount"`
	TenorMonths   int              `json:"tenor_months"`
	AnnualRatePct decimal.Decimal  `json:"annual_rate_pct"`
	Method        ProjectionMethod `json:"method"`
}

// RequestType returns TypeDeposit
func (p DepositParams) RequestType() Type { return TypeDeposit }

// Validate checks value ranges and the projection method
func (p DepositParams) Validate() error {
	if !p.MonthlyAmount.IsPositive() {
		return fmt.Errorf("%w: monthly deposit must be positive", ErrValidation)
	}
	if p.TenorMonths <= 0 {
		return fmt.Errorf("%w: deposit tenor must be positive", ErrValidation)
	}
	if p.AnnualRatePct.IsNegative() {
		return fmt.Errorf("%w: deposit rate must not be negative", ErrValidation)
	}
	if p.Method != MethodSimple && p.Method != MethodCompound {
		return fmt.Errorf("%w: unknown projection method %q", ErrValidation, p.Method)
	}
	return nil
}

// DepositTerms is one side (current or proposed) of a deposit change request
type DepositTerms struct {
	MonthlyAmount decimal.Decimal  `json:"monthly_amount"`
	TenorMonths   int              `json:"tenor_months"`
	AnnualRatePct decimal.Decimal  `json:"annual_rate_pct"`
	Method        ProjectionMethod `json:"method"`
}

func (t DepositTerms) validate(side string) error {
	if !t.MonthlyAmount.IsPositive() {
		return fmt.Errorf("%w: %s monthly deposit must be positive", ErrValidation, side)
	}
	if t.TenorMonths <= 0 {
		return fmt.Errorf("%w: %s tenor must be positive", ErrValidation, side)
	}
	if t.AnnualRatePct.IsNegative() {
		return fmt.Errorf("%w: %s rate must not be negative", ErrValidation, side)
	}
	if t.Method != MethodSimple && t.Method != MethodCompound {
		return fmt.Errorf("%w: unknown %s projection method %q", ErrValidation, side, t.Method)
	}
	return nil
}

// DepositChangeParams are the inputs of a deposit change request
type DepositChangeParams struct {
	DepositNumber string       `json:"deposit_number"`
	Current       DepositTerms `json:"current"`
	Proposed      DepositTerms `json:"proposed"`
}

// RequestType returns TypeDepositChange
func (p DepositChangeParams) RequestType() Type { return TypeDepositChange }

// Validate checks both term sets
func (p DepositChangeParams) Validate() error {
	if p.DepositNumber == "" {
		return fmt.Errorf("%w: deposit number is required", ErrValidation)
	}
	if err := p.Current.validate("current"); err != nil {
		return err
	}
	return p.Proposed.validate("proposed")
}

// WithdrawalParams are the inputs of a savings/deposit withdrawal
type WithdrawalParams struct {
	AccountNumber  string          `json:"account_number"`
	Amount         decimal.Decimal `json:"amount"`
	BeforeMaturity bool            `json:"before_maturity"`
	PenaltyRatePct decimal.Decimal `json:"penalty_rate_pct"`
}

// RequestType returns TypeWithdrawal
func (p WithdrawalParams) RequestType() Type { return TypeWithdrawal }

// Validate checks value ranges
func (p WithdrawalParams) Validate() error {
	if p.AccountNumber == "" {
		return fmt.Errorf("%w: account number is required", ErrValidation)
	}
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: withdrawal amount must be positive", ErrValidation)
	}
	if p.PenaltyRatePct.IsNegative() {
		return fmt.Errorf("%w: penalty rate must not be negative", ErrValidation)
	}
	return nil
}

// LoanRevision is the replacement monetary terms submitted by the first-stage
// reviewer. The shape must match the loan's subtype; fields outside it stay zero.
type LoanRevision struct {
	Amount           decimal.Decimal `json:"amount"`
	ItemPrice        decimal.Decimal `json:"item_price"`
	RetailPrice      decimal.Decimal `json:"retail_price"`
	CooperativePrice decimal.Decimal `json:"cooperative_price"`
	TenorMonths      int             `json:"tenor_months"`
}

// ApplyTo overwrites the subtype-specific monetary fields and tenor of p,
// returning the revised parameters. The revision shape is validated against the
// loan's existing subtype.
func (r LoanRevision) ApplyTo(p LoanParams) (LoanParams, error) {
	revised := p
	revised.Amount = r.Amount
	revised.ItemPrice = r.ItemPrice
	revised.RetailPrice = r.RetailPrice
	revised.CooperativePrice = r.CooperativePrice
	revised.TenorMonths = r.TenorMonths
	if err := revised.Validate(); err != nil {
		return LoanParams{}, err
	}
	return revised, nil
}
