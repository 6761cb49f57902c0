package repository

import (
	"encoding/json"
	"fmt"

	"github.com/koperasidigital/simpanpinjam/internal/domain/approval"
)

// encodeParams serializes type-specific parameters to their JSON column
func encodeParams(p approval.Params) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}
	return string(b), nil
}

// decodeParams deserializes the params column for the given request type
func decodeParams(t approval.Type, raw string) (approval.Params, error) {
	switch t {
	case approval.TypeLoan:
		var p approval.LoanParams
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("decode loan params: %w", err)
		}
		return p, nil
	case approval.TypeDeposit:
		var p approval.DepositParams
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("decode deposit params: %w", err)
		}
		return p, nil
	case approval.TypeDepositChange:
		var p approval.DepositChangeParams
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("decode deposit change params: %w", err)
		}
		return p, nil
	case approval.TypeWithdrawal:
		var p approval.WithdrawalParams
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("decode withdrawal params: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("decode params: unknown request type %q", t)
	}
}

// encodeFigures serializes computed figures; nil figures map to an empty column
func encodeFigures(f approval.Figures) (string, error) {
	if f == nil {
		return "", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encode figures: %w", err)
	}
	return string(b), nil
}

// decodeFigures deserializes the figures column for the given request type
func decodeFigures(t approval.Type, raw string) (approval.Figures, error) {
	if raw == "" {
		return nil, nil
	}
	switch t {
	case approval.TypeLoan:
		var f approval.LoanFigures
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			return nil, fmt.Errorf("decode loan figures: %w", err)
		}
		return f, nil
	case approval.TypeDeposit:
		var f approval.DepositFigures
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			return nil, fmt.Errorf("decode deposit figures: %w", err)
		}
		return f, nil
	case approval.TypeDepositChange:
		var f approval.DepositChangeFigures
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			return nil, fmt.Errorf("decode deposit change figures: %w", err)
		}
		return f, nil
	case approval.TypeWithdrawal:
		var f approval.WithdrawalFigures
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			return nil, fmt.Errorf("decode withdrawal figures: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("decode figures: unknown request type %q", t)
	}
}
