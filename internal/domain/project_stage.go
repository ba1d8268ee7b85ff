package domain

import "time"

// StageStatus enumerates the progress of a project stage.
type StageStatus string

const (
	StageStatusPending    StageStatus = "Pendente"
	StageStatusInProgress StageStatus = "Em Andamento"
	StageStatusDone       StageStatus = "Concluído"
)

func (s StageStatus) Valid() bool {
	return s == StageStatusPending || s == StageStatusInProgress || s == StageStatusDone
}

// ProjectStage is one milestone of a project ticket.
type ProjectStage struct {
	ID       int64
	TicketID int64
	Name     string
	Deadline *time.Time
	Status   StageStatus
}
