// Package workflow declares the per-type approval sequences and the generic
// walk over them. The registry is static, compiled into the engine; the state
// machine never interprets the domain meaning of a stage, only its position,
// kind, and authorized role.
package workflow

import (
	"fmt"

	"github.com/koperasidigital/simpanpinjam/internal/domain/approval"
)

// StageDef declares one stage of a request type's sequence
type StageDef struct {
	Stage approval.Stage
	Role  approval.Role
	Kind  approval.StepKind

	// ExecutionKind is set only for execution stages
	ExecutionKind approval.ExecutionKind

	// PendingStatus is the request status while this stage is pending
	PendingStatus approval.Status
}

// Sequence is the ordered stage list of one request type plus its terminals
type Sequence struct {
	Type          approval.Type
	Stages        []StageDef
	SuccessStatus approval.Status
}

var sequences = map[approval.Type]*Sequence{
	approval.TypeLoan: {
		Type: approval.TypeLoan,
		Stages: []StageDef{
			{Stage: approval.StageDSP, Role: approval.RoleDSP, Kind: approval.KindDecision, PendingStatus: approval.StatusUnderReviewDSP},
			{Stage: approval.StageKetua, Role: approval.RoleKetua, Kind: approval.KindDecision, PendingStatus: approval.StatusUnderReviewKetua},
			{Stage: approval.StagePengawas, Role: approval.RolePengawas, Kind: approval.KindDecision, PendingStatus: approval.StatusUnderReviewPengawas},
			{Stage: approval.StageDisbursement, Role: approval.RoleDSP, Kind: approval.KindExecution, ExecutionKind: approval.ExecutionDisbursement, PendingStatus: approval.StatusAwaitingDisbursement},
			{Stage: approval.StageAuthorization, Role: approval.RoleKetua, Kind: approval.KindExecution, ExecutionKind: approval.ExecutionAuthorization, PendingStatus: approval.StatusAwaitingAuthorization},
		},
		SuccessStatus: approval.StatusActive,
	},
	approval.TypeDeposit: {
		Type: approval.TypeDeposit,
		Stages: []StageDef{
			{Stage: approval.StageDSP, Role: approval.RoleDSP, Kind: approval.KindDecision, PendingStatus: approval.StatusUnderReviewDSP},
			{Stage: approval.StageKetua, Role: approval.RoleKetua, Kind: approval.KindDecision, PendingStatus: approval.StatusUnderReviewKetua},
		},
		// Activation is automatic on the final approval
		SuccessStatus: approval.StatusActive,
	},
	approval.TypeDepositChange: {
		Type: approval.TypeDepositChange,
		Stages: []StageDef{
			{Stage: approval.StageDSP, Role: approval.RoleDSP, Kind: approval.KindDecision, PendingStatus: approval.StatusUnderReviewDSP},
			{Stage: approval.StageKetua, Role: approval.RoleKetua, Kind: approval.KindDecision, PendingStatus: approval.StatusUnderReviewKetua},
		},
		SuccessStatus: approval.StatusApplied,
	},
	approval.TypeWithdrawal: {
		Type: approval.TypeWithdrawal,
		Stages: []StageDef{
			{Stage: approval.StageDSP, Role: approval.RoleDSP, Kind: approval.KindDecision, PendingStatus: approval.StatusUnderReviewDSP},
			{Stage: approval.StageKetua, Role: approval.RoleKetua, Kind: approval.KindDecision, PendingStatus: approval.StatusUnderReviewKetua},
			{Stage: approval.StageShopkeeper, Role: approval.RoleShopkeeper, Kind: approval.KindExecution, ExecutionKind: approval.ExecutionDisbursement, PendingStatus: approval.StatusAwaitingDisbursement},
			{Stage: approval.StageKetuaAuth, Role: approval.RoleKetua, Kind: approval.KindExecution, ExecutionKind: approval.ExecutionAuthorization, PendingStatus: approval.StatusAwaitingAuthorization},
		},
		SuccessStatus: approval.StatusCompleted,
	},
}

// SequenceFor returns the declared stage sequence for a request type
func SequenceFor(t approval.Type) (*Sequence, error) {
	seq, ok := sequences[t]
	if !ok {
		return nil, fmt.Errorf("%w: no workflow sequence for type %q", approval.ErrValidation, t)
	}
	return seq, nil
}

// First returns the initial stage of the sequence
func (s *Sequence) First() StageDef {
	return s.Stages[0]
}

// Len returns the number of stages in the sequence
func (s *Sequence) Len() int {
	return len(s.Stages)
}

// At returns the stage definition and position for a named stage
func (s *Sequence) At(stage approval.Stage) (StageDef, int, bool) {
	for i, def := range s.Stages {
		if def.Stage == stage {
			return def, i, true
		}
	}
	return StageDef{}, -1, false
}

// Next returns the stage following position i, if any
func (s *Sequence) Next(i int) (StageDef, bool) {
	if i+1 >= len(s.Stages) {
		return StageDef{}, false
	}
	return s.Stages[i+1], true
}

// FirstDecisionStage reports whether the named stage is the first decision
// stage of the sequence (the revision window)
func (s *Sequence) FirstDecisionStage(stage approval.Stage) bool {
	return len(s.Stages) > 0 && s.Stages[0].Stage == stage && s.Stages[0].Kind == approval.KindDecision
}
