package approval

// Type identifies the kind of monetary request moving through the workflow
type Type string

const (
	TypeLoan          Type = "LOAN"
	TypeDeposit       Type = "DEPOSIT"
	TypeDepositChange Type = "DEPOSIT_CHANGE"
	TypeWithdrawal    Type = "WITHDRAWAL"
)

var validTypes = map[Type]bool{
	TypeLoan:          true,
	TypeDeposit:       true,
	TypeDepositChange: true,
	TypeWithdrawal:    true,
}

// String returns the string representation of the type
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the type is a known request type
func (t Type) IsValid() bool {
	return validTypes[t]
}

// NumberPrefix returns the prefix used for human-readable request numbers
func (t Type) NumberPrefix() string {
	switch t {
	case TypeLoan:
		return "LN"
	case TypeDeposit:
		return "DP"
	case TypeDepositChange:
		return "DC"
	case TypeWithdrawal:
		return "WD"
	default:
		return "RQ"
	}
}

// Role identifies an organizational staff role
type Role string

const (
	RoleDSP        Role = "DSP"
	RoleKetua      Role = "KETUA"
	RolePengawas   Role = "PENGAWAS"
	RoleShopkeeper Role = "SHOPKEEPER"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Stage identifies one named position in a request type's approval sequence
type Stage string

const (
	StageDSP           Stage = "DSP"
	StageKetua         Stage = "KETUA"
	StagePengawas      Stage = "PENGAWAS"
	StageDisbursement  Stage = "DISBURSEMENT"
	StageAuthorization Stage = "AUTHORIZATION"
	StageShopkeeper    Stage = "SHOPKEEPER"
	StageKetuaAuth     Stage = "KETUA_AUTH"
)

// String returns the string representation of the stage
func (s Stage) String() string {
	return string(s)
}

// StepKind distinguishes decision stages from execution stages
type StepKind string

const (
	KindDecision  StepKind = "DECISION"
	KindExecution StepKind = "EXECUTION"
)

// ExecutionKind identifies which real-world fund movement an execution stage confirms
type ExecutionKind string

const (
	ExecutionDisbursement  ExecutionKind = "DISBURSEMENT"
	ExecutionAuthorization ExecutionKind = "AUTHORIZATION"
)

// Decision is the outcome recorded on an approval step
type Decision string

const (
	DecisionApproved  Decision = "APPROVED"
	DecisionRejected  Decision = "REJECTED"
	DecisionConfirmed Decision = "CONFIRMED"
)

// String returns the string representation of the decision
func (d Decision) String() string {
	return string(d)
}

// Action identifies the kind of history entry written for a request mutation
type Action string

const (
	ActionSubmit  Action = "SUBMIT"
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
	ActionConfirm Action = "CONFIRM"
	ActionCancel  Action = "CANCEL"
	ActionRevise  Action = "REVISED"
)
