package domain

import (
	"encoding/json"
	"fmt"
)

// ValidationStatus is the state of a validation request.
type ValidationStatus string

const (
	ValidationPending  ValidationStatus = "pending"
	ValidationApproved ValidationStatus = "approved"
	ValidationRejected ValidationStatus = "rejected"
)

func (v ValidationStatus) Valid() bool {
	return v == ValidationPending || v == ValidationApproved || v == ValidationRejected
}

// IsDecision reports whether v resolves a validation request.
func (v ValidationStatus) IsDecision() bool {
	return v == ValidationApproved || v == ValidationRejected
}

// Payload is the structured data attached to an interaction. Each variant
// belongs to exactly one action type.
type Payload interface {
	Action() ActionType
}

// StatusChangePayload records a ticket status transition.
type StatusChangePayload struct {
	OldStatus TicketStatus `json:"old_status"`
	NewStatus TicketStatus `json:"new_status"`
}

func (StatusChangePayload) Action() ActionType { return ActionStatusChange }

// AssignPayload records an assignee change. Empty strings mean unassigned.
type AssignPayload struct {
	OldAssignee string `json:"old_assignee"`
	NewAssignee string `json:"new_assignee"`
}

func (AssignPayload) Action() ActionType { return ActionAssign }

// ValidationPayload is carried by validation requests and their responses.
type ValidationPayload struct {
	Status ValidationStatus `json:"validation_status"`
	kind   ActionType
}

// NewValidationRequest returns the payload of a fresh validation request.
func NewValidationRequest() ValidationPayload {
	return ValidationPayload{Status: ValidationPending, kind: ActionRequestValidation}
}

// NewValidationResponse returns the payload of a provide_validation child.
func NewValidationResponse(decision ValidationStatus) ValidationPayload {
	return ValidationPayload{Status: decision, kind: ActionProvideValidation}
}

func (p ValidationPayload) Action() ActionType {
	if p.kind == "" {
		return ActionRequestValidation
	}
	return p.kind
}

// WithStatus returns a copy of p carrying a different status.
func (p ValidationPayload) WithStatus(status ValidationStatus) ValidationPayload {
	p.Status = status
	return p
}

// ValidationOverridePayload records a manual correction of a validation request.
type ValidationOverridePayload struct {
	OldStatus ValidationStatus `json:"old_status"`
	NewStatus ValidationStatus `json:"new_status"`
}

func (ValidationOverridePayload) Action() ActionType { return ActionStatusChangeManual }

// EncodePayload serializes p for storage. A nil payload encodes to nil.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// DecodePayload restores the payload variant matching action. Comments and
// empty documents decode to nil.
func DecodePayload(action ActionType, raw []byte) (Payload, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch action {
	case ActionComment:
		return nil, nil
	case ActionStatusChange:
		var p StatusChangePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", action, err)
		}
		return p, nil
	case ActionAssign:
		var p AssignPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", action, err)
		}
		return p, nil
	case ActionRequestValidation, ActionProvideValidation:
		var p ValidationPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", action, err)
		}
		p.kind = action
		return p, nil
	case ActionStatusChangeManual:
		var p ValidationOverridePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", action, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", action)
	}
}

// ResolvedStatus returns the validation outcome recorded by a resolving
// interaction (provide_validation or status_change_manual).
func ResolvedStatus(p Payload) (ValidationStatus, bool) {
	switch v := p.(type) {
	case ValidationPayload:
		if v.Action() == ActionProvideValidation {
			return v.Status, true
		}
	case ValidationOverridePayload:
		return v.NewStatus, true
	}
	return "", false
}
