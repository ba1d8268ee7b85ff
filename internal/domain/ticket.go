package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen          TicketStatus = "Aberto"
	TicketStatusInProgress    TicketStatus = "Em Andamento"
	TicketStatusAwaitingReply TicketStatus = "Aguardando Resposta"
	TicketStatusClosed        TicketStatus = "Fechado"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusAwaitingReply,
	TicketStatusClosed,
}

// OpenTicketStatuses is the default status filter of list views.
var OpenTicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusAwaitingReply,
}

// Valid reports whether s is one of the enumerated statuses.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Urgency enumerates how pressing a ticket is.
type Urgency string

const (
	UrgencyLow      Urgency = "Baixa"
	UrgencyMedium   Urgency = "Média"
	UrgencyHigh     Urgency = "Alta"
	UrgencyCritical Urgency = "Crítica"
)

// Urgencies lists every urgency from least to most severe.
var Urgencies = []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical}

func (u Urgency) Valid() bool {
	for _, candidate := range Urgencies {
		if candidate == u {
			return true
		}
	}
	return false
}

// Sector enumerates the business area a ticket is filed for.
type Sector string

const (
	SectorIT          Sector = "TI"
	SectorFinance     Sector = "Financeiro"
	SectorCommercial  Sector = "Comercial"
	SectorHR          Sector = "RH"
	SectorOperational Sector = "Operacional"
)

var Sectors = []Sector{SectorIT, SectorFinance, SectorCommercial, SectorHR, SectorOperational}

func (s Sector) Valid() bool {
	for _, candidate := range Sectors {
		if candidate == s {
			return true
		}
	}
	return false
}

// TicketType differentiates plain support requests from multi-stage projects.
type TicketType string

const (
	TicketTypeRequest TicketType = "chamado"
	TicketTypeProject TicketType = "projeto"
)

func (t TicketType) Valid() bool {
	return t == TicketTypeRequest || t == TicketTypeProject
}

// Ticket is the root aggregate. Attachments, interactions and project stages
// are owned by it and removed with it.
type Ticket struct {
	ID            int64
	Title         string
	Description   string
	Urgency       Urgency
	Sector        Sector
	Status        TicketStatus
	Type          TicketType
	CreatorEmail  string
	AssigneeEmail *string
	CreatedAt     time.Time
	Deadline      *time.Time

	// Stage counters are derived from the ticket's project stages.
	CompletedStages int
	TotalStages     int
}

// IsProject reports whether the ticket may carry project stages.
func (t *Ticket) IsProject() bool {
	return t.Type == TicketTypeProject
}

// ApplyStages recomputes the derived stage counters.
func (t *Ticket) ApplyStages(stages []ProjectStage) {
	t.TotalStages = len(stages)
	t.CompletedStages = 0
	for _, stage := range stages {
		if stage.Status == StageStatusDone {
			t.CompletedStages++
		}
	}
}

// Progress returns the completion percentage of a project. Support requests
// and projects without stages always report 0.
func (t *Ticket) Progress() float64 {
	if !t.IsProject() || t.TotalStages == 0 {
		return 0
	}
	return float64(t.CompletedStages) / float64(t.TotalStages) * 100
}

// Assignee returns the assignee email or an empty string.
func (t *Ticket) Assignee() string {
	if t.AssigneeEmail == nil {
		return ""
	}
	return *t.AssigneeEmail
}
