package audit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Repository provides access to stored audit entries.
type Repository interface {
	Window(ctx context.Context, params WindowParams) ([]Entry, error)
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service coordinates audit timeline reads and retention.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a new audit timeline service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Timeline fetches audit entries with paging.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	rows, err := s.repo.Window(ctx, WindowParams{
		From:   filters.From,
		To:     filters.To,
		Actor:  strings.TrimSpace(filters.Actor),
		Entity: strings.TrimSpace(filters.Entity),
		Action: strings.ToUpper(strings.TrimSpace(filters.Action)),
		Offset: (page - 1) * pageSize,
		Limit:  pageSize + 1,
	})
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	if rows == nil {
		rows = []Entry{}
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Purge deletes entries older than retention.
func (s *Service) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("audit: retention must be positive")
	}
	return s.repo.Purge(ctx, s.now().Add(-retention))
}
