package service

import (
	"context"

	"github.com/koperasidigital/simpanpinjam/internal/application/port"
	"github.com/koperasidigital/simpanpinjam/internal/domain/approval"
)

// QueryService is the read side of the engine, consumed by listing/detail UIs
// and export generators. Detail reads return the full aggregate including
// approvals, history and execution records.
type QueryService interface {
	Get(ctx context.Context, id int64) (*approval.Request, error)
	GetByNumber(ctx context.Context, number string) (*approval.Request, error)
	List(ctx context.Context, filter port.RequestFilter) ([]*approval.Request, error)
}

type queryServiceImpl struct {
	requestRepo   port.RequestRepository
	stepRepo      port.StepRepository
	historyRepo   port.HistoryRepository
	executionRepo port.ExecutionRepository
	logger        Logger
}

// NewQueryService creates a new QueryService
func NewQueryService(
	requestRepo port.RequestRepository,
	stepRepo port.StepRepository,
	historyRepo port.HistoryRepository,
	executionRepo port.ExecutionRepository,
	logger Logger,
) QueryService {
	return &queryServiceImpl{
		requestRepo:   requestRepo,
		stepRepo:      stepRepo,
		historyRepo:   historyRepo,
		executionRepo: executionRepo,
		logger:        logger,
	}
}

// Get loads the full request aggregate
func (s *queryServiceImpl) Get(ctx context.Context, id int64) (*approval.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, req)
}

// GetByNumber loads the full request aggregate by its human-readable number
func (s *queryServiceImpl) GetByNumber(ctx context.Context, number string) (*approval.Request, error) {
	req, err := s.requestRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, req)
}

// List returns filtered, paginated requests without their sub-collections
func (s *queryServiceImpl) List(ctx context.Context, filter port.RequestFilter) ([]*approval.Request, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	reqs, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list requests", "error", err)
		return nil, err
	}
	return reqs, nil
}

func (s *queryServiceImpl) hydrate(ctx context.Context, req *approval.Request) (*approval.Request, error) {
	steps, err := s.stepRepo.GetByRequestID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	history, err := s.historyRepo.GetByRequestID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	records, err := s.executionRepo.GetByRequestID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	req.Approvals = steps
	req.History = history
	req.Records = records
	return req, nil
}
