package approval

// Status is the lifecycle status of a request. Each request type uses its own
// subset; the full set is declared here so persistence and transport layers can
// validate any stored value.
type Status string

const (
	StatusUnderReviewDSP        Status = "UNDER_REVIEW_DSP"
	StatusUnderReviewKetua      Status = "UNDER_REVIEW_KETUA"
	StatusUnderReviewPengawas   Status = "UNDER_REVIEW_PENGAWAS"
	StatusAwaitingDisbursement  Status = "AWAITING_DISBURSEMENT"
	StatusAwaitingAuthorization Status = "AWAITING_AUTHORIZATION"

	// Success terminals: loans and deposits become active facilities, a deposit
	// change is applied on final approval, a withdrawal completes once authorized.
	StatusActive    Status = "ACTIVE"
	StatusApplied   Status = "APPLIED"
	StatusCompleted Status = "COMPLETED"

	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

var validStatuses = map[Status]bool{
	StatusUnderReviewDSP:        true,
	StatusUnderReviewKetua:      true,
	StatusUnderReviewPengawas:   true,
	StatusAwaitingDisbursement:  true,
	StatusAwaitingAuthorization: true,
	StatusActive:                true,
	StatusApplied:               true,
	StatusCompleted:             true,
	StatusRejected:              true,
	StatusCancelled:             true,
}

var terminalStatuses = map[Status]bool{
	StatusActive:    true,
	StatusApplied:   true,
	StatusCompleted: true,
	StatusRejected:  true,
	StatusCancelled: true,
}

// IsTerminal returns true if no further transition is permitted from the status
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsValid returns true if the status is a known lifecycle status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}
