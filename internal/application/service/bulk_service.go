package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/koperasidigital/simpanpinjam/internal/domain/approval"
)

// BulkItemFailure reports one request that could not be decided
type BulkItemFailure struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult aggregates the per-item outcomes of a bulk decision. Items keep
// the order they were submitted in.
type BulkResult struct {
	BatchID   string            `json:"batch_id"`
	Succeeded []int64           `json:"succeeded"`
	Failed    []BulkItemFailure `json:"failed"`
}

// BulkService fans a single decision out over a set of request ids. Each item
// is an independent atomic transition; a batch may be a mix of success and
// failure and never aborts on one item's error.
type BulkService interface {
	BulkDecide(ctx context.Context, ids []int64, actor approval.Actor, decision approval.Decision, notes string) (*BulkResult, error)
}

type bulkServiceImpl struct {
	approvals ApprovalService
	workers   int
	logger    Logger
}

// NewBulkService creates a BulkService processing at most workers items concurrently
func NewBulkService(approvals ApprovalService, workers int, logger Logger) BulkService {
	if workers <= 0 {
		workers = 4
	}
	return &bulkServiceImpl{
		approvals: approvals,
		workers:   workers,
		logger:    logger,
	}
}

// BulkDecide applies the decision to every id independently, bounded by the
// worker limit, and collects per-item success/failure.
func (s *bulkServiceImpl) BulkDecide(ctx context.Context, ids []int64, actor approval.Actor, decision approval.Decision, notes string) (*BulkResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no request ids given", approval.ErrValidation)
	}
	if decision != approval.DecisionApproved && decision != approval.DecisionRejected {
		return nil, fmt.Errorf("%w: decision must be APPROVED or REJECTED", approval.ErrValidation)
	}

	batchID := uuid.NewString()
	s.logger.Info("Bulk decision started",
		"batch_id", batchID, "items", len(ids), "decision", decision, "role", actor.Role)

	type itemResult struct {
		pos int
		id  int64
		err error
	}

	results := make([]itemResult, len(ids))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		go func(pos int, id int64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			_, err := s.approvals.Decide(ctx, id, actor, decision, notes)
			results[pos] = itemResult{pos: pos, id: id, err: err}
		}(i, id)
	}
	wg.Wait()

	sort.Slice(results, func(a, b int) bool { return results[a].pos < results[b].pos })

	out := &BulkResult{BatchID: batchID}
	for _, r := range results {
		if r.err != nil {
			out.Failed = append(out.Failed, BulkItemFailure{ID: r.id, Reason: r.err.Error()})
			continue
		}
		out.Succeeded = append(out.Succeeded, r.id)
	}

	s.logger.Info("Bulk decision finished",
		"batch_id", batchID, "succeeded", len(out.Succeeded), "failed", len(out.Failed))
	return out, nil
}
