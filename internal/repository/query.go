package repository

import (
	"fmt"
	"strings"

	"github.com/spec-kit/support-portal/internal/domain"
)

// SortField names a sortable ticket column.
type SortField string

const (
	SortByID        SortField = "id"
	SortByUrgency   SortField = "urgency"
	SortByStatus    SortField = "status"
	SortByCreatedAt SortField = "created_at"
	SortByTitle     SortField = "title"
	SortBySector    SortField = "sector"
)

// ParseSortField returns the field named by raw, or false when unknown.
func ParseSortField(raw string) (SortField, bool) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(raw))); f {
	case SortByID, SortByUrgency, SortByStatus, SortByCreatedAt, SortByTitle, SortBySector:
		return f, true
	}
	return "", false
}

// TicketSort orders a ticket listing.
type TicketSort struct {
	Field      SortField
	Descending bool
}

// DefaultTicketSort lists the newest tickets first.
var DefaultTicketSort = TicketSort{Field: SortByCreatedAt, Descending: true}

// TicketQuery captures list filters. Empty slices impose no restriction.
type TicketQuery struct {
	CreatorEmail  *string
	Statuses      []domain.TicketStatus
	Urgencies     []domain.Urgency
	Sectors       []domain.Sector
	TitleContains string
	Sort          TicketSort
	Limit         int
	Offset        int
}

// FoldTitle is the case-folded form stored in title_search. Folding happens
// in Go because SQLite's LOWER only handles ASCII.
func FoldTitle(title string) string {
	return strings.ToLower(title)
}

// likeEscaper uses '!' as the LIKE escape; MySQL literals already treat backslash specially.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// WhereSQL renders the filters using placeholder to number arguments.
func (q TicketQuery) WhereSQL(placeholder func(n int) string) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	next := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if q.CreatorEmail != nil {
		clauses = append(clauses, "LOWER(creator_email) = "+next(strings.ToLower(*q.CreatorEmail)))
	}
	if len(q.Statuses) > 0 {
		ph := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			ph[i] = next(string(s))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(ph, ",")))
	}
	if len(q.Urgencies) > 0 {
		ph := make([]string, len(q.Urgencies))
		for i, u := range q.Urgencies {
			ph[i] = next(string(u))
		}
		clauses = append(clauses, fmt.Sprintf("urgency IN (%s)", strings.Join(ph, ",")))
	}
	if len(q.Sectors) > 0 {
		ph := make([]string, len(q.Sectors))
		for i, s := range q.Sectors {
			ph[i] = next(string(s))
		}
		clauses = append(clauses, fmt.Sprintf("sector IN (%s)", strings.Join(ph, ",")))
	}
	if title := strings.TrimSpace(q.TitleContains); title != "" {
		clauses = append(clauses, "title_search LIKE "+next("%"+likeEscaper.Replace(FoldTitle(title))+"%")+" ESCAPE '!'")
	}
	return strings.Join(clauses, " AND "), args
}

// OrderSQL renders the ORDER BY expression. Urgency sorts by severity and
// status by lifecycle position; id breaks ties.
func (s TicketSort) OrderSQL() string {
	dir := "ASC"
	if s.Descending {
		dir = "DESC"
	}
	var expr string
	switch s.Field {
	case SortByID:
		return "id " + dir
	case SortByUrgency:
		expr = rankExpression("urgency", toStrings(domain.Urgencies))
	case SortByStatus:
		expr = rankExpression("status", toStrings(domain.TicketStatuses))
	case SortByTitle:
		expr = "title"
	case SortBySector:
		expr = "sector"
	default:
		expr = "created_at"
	}
	return fmt.Sprintf("%s %s, id %s", expr, dir, dir)
}

func rankExpression(column string, ordered []string) string {
	var b strings.Builder
	b.WriteString("CASE ")
	b.WriteString(column)
	for i, v := range ordered {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", v, i+1)
	}
	fmt.Fprintf(&b, " ELSE %d END", len(ordered)+1)
	return b.String()
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
