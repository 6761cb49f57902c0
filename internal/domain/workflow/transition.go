package workflow

import (
	"fmt"

	"github.com/koperasidigital/simpanpinjam/internal/domain/approval"
)

// Transition is the computed outcome of an approval or execution confirmation:
// either the next pending stage, or the type's success terminal.
type Transition struct {
	NewStatus approval.Status
	NextStep  *approval.Stage
	Terminal  bool
}

// Gate validates that a request positioned at the given stage may be acted on
// by the acting role, returning the stage definition and its position.
func (s *Sequence) Gate(current *approval.Stage, role approval.Role, kind approval.StepKind) (StageDef, int, error) {
	if current == nil {
		return StageDef{}, -1, fmt.Errorf("%w: request has no pending stage", approval.ErrInvalidState)
	}
	def, idx, ok := s.At(*current)
	if !ok {
		return StageDef{}, -1, fmt.Errorf("%w: stage %s is not part of the %s sequence", approval.ErrInvalidState, *current, s.Type)
	}
	if def.Kind != kind {
		return StageDef{}, -1, fmt.Errorf("%w: stage %s is a %s stage", approval.ErrInvalidState, def.Stage, def.Kind)
	}
	if def.Role != role {
		return StageDef{}, -1, fmt.Errorf("%w: stage %s requires role %s", approval.ErrForbidden, def.Stage, def.Role)
	}
	return def, idx, nil
}

// Advance computes the transition that follows a successful approval or
// execution confirmation at position idx.
func (s *Sequence) Advance(idx int) Transition {
	next, ok := s.Next(idx)
	if !ok {
		return Transition{NewStatus: s.SuccessStatus, Terminal: true}
	}
	stage := next.Stage
	return Transition{NewStatus: next.PendingStatus, NextStep: &stage}
}

// Cancellable reports whether a request at the given stage may still be
// cancelled by its owner. Cancellation is permitted through the last decision
// stage; execution stages and terminal states are past the point of no return.
func (s *Sequence) Cancellable(current *approval.Stage) bool {
	if current == nil {
		return false
	}
	def, _, ok := s.At(*current)
	if !ok {
		return false
	}
	return def.Kind == approval.KindDecision
}

// BuildSteps materializes the approval step set for a newly submitted request,
// one pending step per declared stage, in sequence order.
func (s *Sequence) BuildSteps(requestID int64) []*approval.ApprovalStep {
	steps := make([]*approval.ApprovalStep, 0, len(s.Stages))
	for i, def := range s.Stages {
		steps = append(steps, &approval.ApprovalStep{
			RequestID: requestID,
			Sequence:  i,
			Stage:     def.Stage,
			Kind:      def.Kind,
			Role:      def.Role,
		})
	}
	return steps
}
