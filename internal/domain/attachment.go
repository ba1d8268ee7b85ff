package domain

import "time"

// Attachment binds a stored file to exactly one ticket or interaction.
type Attachment struct {
	ID            int64
	TicketID      *int64
	InteractionID *int64
	FilePath      string
	FileName      string
	SizeBytes     int64
	Checksum      string
	CreatedAt     time.Time
}

// OwnerKind names the entity an attachment belongs to.
type OwnerKind string

const (
	OwnerTicket      OwnerKind = "ticket"
	OwnerInteraction OwnerKind = "interaction"
)

// Owner identifies the single entity owning an attachment.
type Owner struct {
	Kind OwnerKind
	ID   int64
}

func TicketOwner(id int64) Owner      { return Owner{Kind: OwnerTicket, ID: id} }
func InteractionOwner(id int64) Owner { return Owner{Kind: OwnerInteraction, ID: id} }

// Bind sets the owner reference on a, clearing the other one.
func (o Owner) Bind(a *Attachment) {
	id := o.ID
	switch o.Kind {
	case OwnerTicket:
		a.TicketID = &id
		a.InteractionID = nil
	case OwnerInteraction:
		a.InteractionID = &id
		a.TicketID = nil
	}
}
