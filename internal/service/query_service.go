package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository"
	"github.com/spec-kit/support-portal/pkg/util/errorutil"
)

// TicketFilter is the list filter as supplied by a caller. Absent status means
// "open work only"; absent urgency or sector means no restriction. A supplied
// but empty set never restricts.
type TicketFilter struct {
	Statuses      domain.ValueSet[domain.TicketStatus]
	Urgencies     domain.ValueSet[domain.Urgency]
	Sectors       domain.ValueSet[domain.Sector]
	TitleContains string
	SortBy        string
	Order         string
	Limit         int
	Offset        int
}

// TicketSummary is one row of a list view.
type TicketSummary struct {
	domain.Ticket
	Progress float64
}

// QueryService builds role-scoped ticket list views.
type QueryService struct {
	tickets repository.TicketRepository
	stages  repository.StageRepository
	logger  *zap.Logger
}

// NewQueryService constructs the service.
func NewQueryService(repos repository.Set, logger *zap.Logger) *QueryService {
	return &QueryService{tickets: repos.Tickets, stages: repos.Stages, logger: orNop(logger)}
}

// ListTickets returns the tickets visible to actor that match filter. Non
// admins only ever see their own tickets.
func (s *QueryService) ListTickets(ctx context.Context, actor domain.ActorContext, filter TicketFilter) ([]TicketSummary, error) {
	query := BuildTicketQuery(actor, filter)
	tickets, err := s.tickets.List(ctx, query)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	ids := make([]int64, 0, len(tickets))
	for _, t := range tickets {
		if t.IsProject() {
			ids = append(ids, t.ID)
		}
	}
	counts, err := s.stages.CountByTickets(ctx, ids)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	out := make([]TicketSummary, 0, len(tickets))
	for _, t := range tickets {
		c := counts[t.ID]
		t.CompletedStages, t.TotalStages = c.Completed, c.Total
		out = append(out, TicketSummary{Ticket: t, Progress: t.Progress()})
	}
	s.logger.Debug("tickets listed",
		zap.String("actor", actor.Email),
		zap.Bool("admin", actor.IsAdmin()),
		zap.Int("count", len(out)))
	return out, nil
}

// BuildTicketQuery applies role scoping, default filters and sort parsing.
func BuildTicketQuery(actor domain.ActorContext, filter TicketFilter) repository.TicketQuery {
	q := repository.TicketQuery{
		Urgencies:     restriction(filter.Urgencies),
		Sectors:       restriction(filter.Sectors),
		TitleContains: strings.TrimSpace(filter.TitleContains),
		Sort:          ParseTicketSort(filter.SortBy, filter.Order),
		Limit:         filter.Limit,
		Offset:        filter.Offset,
	}
	if filter.Statuses.IsSupplied() {
		q.Statuses = restriction(filter.Statuses)
	} else {
		q.Statuses = append([]domain.TicketStatus(nil), domain.OpenTicketStatuses...)
	}
	if !actor.IsAdmin() {
		email := actor.Email
		q.CreatorEmail = &email
	}
	return q
}

// restriction returns the values a supplied set filters on, or nil when it
// leaves the column unrestricted.
func restriction[T ~string](set domain.ValueSet[T]) []T {
	if !set.Restricts() {
		return nil
	}
	return set.Values()
}

// ParseTicketSort resolves the sort column and direction. Unknown columns
// fall back to newest first; only "asc" sorts ascending.
func ParseTicketSort(by, order string) repository.TicketSort {
	field, ok := repository.ParseSortField(by)
	if !ok {
		return repository.DefaultTicketSort
	}
	return repository.TicketSort{
		Field:      field,
		Descending: !strings.EqualFold(strings.TrimSpace(order), "asc"),
	}
}
