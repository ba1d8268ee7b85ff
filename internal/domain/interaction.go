package domain

import "time"

// ActionType identifies what an interaction records.
type ActionType string

const (
	ActionComment            ActionType = "comment"
	ActionStatusChange       ActionType = "status_change"
	ActionAssign             ActionType = "assign"
	ActionRequestValidation  ActionType = "request_validation"
	ActionProvideValidation  ActionType = "provide_validation"
	ActionStatusChangeManual ActionType = "status_change_manual"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionComment, ActionStatusChange, ActionAssign,
		ActionRequestValidation, ActionProvideValidation, ActionStatusChangeManual:
		return true
	}
	return false
}

// Interaction is one entry of a ticket's audit thread. Once written only the
// payload of a validation request may change, exactly once per resolution.
type Interaction struct {
	ID          int64
	TicketID    int64
	AuthorEmail string
	CreatedAt   time.Time
	ActionType  ActionType
	Text        string
	Payload     Payload
	Deadline    *time.Time
	ParentID    *int64
	StageID     *int64
	Attachments []Attachment
}

// IsRoot reports whether the interaction starts a thread.
func (i *Interaction) IsRoot() bool {
	return i.ParentID == nil
}

// ValidationStatus returns the validation state carried by the payload, if any.
func (i *Interaction) ValidationStatus() (ValidationStatus, bool) {
	if p, ok := i.Payload.(ValidationPayload); ok {
		return p.Status, true
	}
	return "", false
}

// IsPendingValidation reports whether the interaction is an unresolved
// validation request.
func (i *Interaction) IsPendingValidation() bool {
	if i.ActionType != ActionRequestValidation {
		return false
	}
	status, ok := i.ValidationStatus()
	return ok && status == ValidationPending
}
