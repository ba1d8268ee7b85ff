package service

import (
	"context"
	"errors"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/repository"
	"github.com/spec-kit/support-portal/internal/storage"
	"github.com/spec-kit/support-portal/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows. Every audited mutation is
// written to the thread through the interaction service.
type TicketService struct {
	tickets      repository.TicketRepository
	stages       repository.StageRepository
	interactions repository.InteractionRepository
	engine       *InteractionService
	attachments  *AttachmentStore
	events       eventPublisher
	logger       *zap.Logger
}

// TicketDependencies bundles collaborators of the ticket service.
type TicketDependencies struct {
	Repos       repository.Set
	Engine      *InteractionService
	Attachments *AttachmentStore
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// StageInput describes one project stage. An unparseable deadline is dropped.
type StageInput struct {
	Name     string
	Deadline string
	Uploads  []storage.Upload
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	Title       string
	Description string
	Urgency     domain.Urgency
	Sector      domain.Sector
	TicketType  domain.TicketType
	Deadline    string
	Uploads     []storage.Upload
	Stages      []StageInput
}

// AdminUpdateInput carries the optional fields of an admin update. A nil
// field is left untouched; an empty assignee clears the assignment.
type AdminUpdateInput struct {
	Status        *domain.TicketStatus
	AssigneeEmail *string
}

// EditStageInput carries the optional fields of a stage edit.
type EditStageInput struct {
	Name     *string
	Deadline *string
	Status   *domain.StageStatus
	Uploads  []storage.Upload
}

// TicketView is the detail view of one ticket.
type TicketView struct {
	Ticket      domain.Ticket
	Progress    float64
	Stages      []domain.ProjectStage
	Attachments []domain.Attachment
	Thread      *domain.Thread
	Scope       domain.StageScope
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := orNop(deps.Logger)
	return &TicketService{
		tickets:      deps.Repos.Tickets,
		stages:       deps.Repos.Stages,
		interactions: deps.Repos.Interactions,
		engine:       deps.Engine,
		attachments:  deps.Attachments,
		events:       eventPublisher{dispatcher: deps.Dispatcher, logger: logger},
		logger:       logger,
	}
}

// CreateTicket validates the input and upload sizes, then writes the ticket
// followed by its stages and attachments.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.ActorContext, input CreateTicketInput) (*domain.Ticket, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if input.TicketType == "" {
		input.TicketType = domain.TicketTypeRequest
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	batches := [][]storage.Upload{input.Uploads}
	if input.TicketType == domain.TicketTypeProject {
		for _, st := range input.Stages {
			batches = append(batches, st.Uploads)
		}
	}
	if err := s.attachments.Admit(batches...); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:        input.Title,
		Description:  input.Description,
		Urgency:      input.Urgency,
		Sector:       input.Sector,
		Status:       domain.TicketStatusOpen,
		Type:         input.TicketType,
		CreatorEmail: actor.Email,
		Deadline:     domain.ParseDeadline(input.Deadline),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	s.logger.Info("ticket created",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("creator", ticket.CreatorEmail),
		zap.String("type", string(ticket.Type)))

	var stages []domain.ProjectStage
	if ticket.IsProject() {
		for _, in := range input.Stages {
			stage, err := s.createStage(ctx, actor, ticket, in)
			if err != nil {
				return ticket, err
			}
			stages = append(stages, *stage)
		}
		ticket.ApplyStages(stages)
	}

	if _, err := s.attachments.Attach(ctx, domain.TicketOwner(ticket.ID), input.Uploads); err != nil {
		return ticket, err
	}

	s.events.publish(ctx, events.NewEvent(events.EventTicketCreated, ticket.ID, actor, events.TicketCreatedPayload{
		Title:      ticket.Title,
		Urgency:    ticket.Urgency,
		Sector:     ticket.Sector,
		TicketType: ticket.Type,
		Stages:     len(stages),
	}))
	return ticket, nil
}

// GetTicket returns the detail view of a ticket visible to actor.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.ActorContext, ticketID int64, scope domain.StageScope) (*TicketView, error) {
	ticket, err := s.loadForActor(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	stages, err := s.stages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	ticket.ApplyStages(stages)

	atts, err := s.attachments.ForTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	thread, err := s.engine.Thread(ctx, ticket.ID, scope)
	if err != nil {
		return nil, err
	}
	return &TicketView{
		Ticket:      *ticket,
		Progress:    ticket.Progress(),
		Stages:      stages,
		Attachments: atts,
		Thread:      thread,
		Scope:       scope,
	}, nil
}

// UpdateAdmin applies status and assignee changes. Only fields whose value
// actually changes are written and audited.
func (s *TicketService) UpdateAdmin(ctx context.Context, actor domain.ActorContext, ticketID int64, input AdminUpdateInput) (*domain.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, errorutil.NewForbidden("admin role required")
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, errorutil.NewValidationError("invalid status", map[string]any{"status": *input.Status})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, storeError(err, "ticket", ticketID)
	}

	var audit []RecordInput
	oldStatus, oldAssignee := ticket.Status, ticket.Assignee()

	if input.Status != nil && *input.Status != ticket.Status {
		ticket.Status = *input.Status
		audit = append(audit, RecordInput{
			TicketID:   ticket.ID,
			ActionType: domain.ActionStatusChange,
			Payload:    domain.StatusChangePayload{OldStatus: oldStatus, NewStatus: ticket.Status},
		})
	}
	if input.AssigneeEmail != nil {
		next := strings.ToLower(strings.TrimSpace(*input.AssigneeEmail))
		if next != oldAssignee {
			if next == "" {
				ticket.AssigneeEmail = nil
			} else {
				ticket.AssigneeEmail = &next
			}
			audit = append(audit, RecordInput{
				TicketID:   ticket.ID,
				ActionType: domain.ActionAssign,
				Payload:    domain.AssignPayload{OldAssignee: oldAssignee, NewAssignee: next},
			})
		}
	}
	if len(audit) == 0 {
		return ticket, nil
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, storeError(err, "ticket", ticketID)
	}
	for _, entry := range audit {
		if _, err := s.engine.Record(ctx, actor, entry); err != nil {
			return ticket, err
		}
	}

	if ticket.Status != oldStatus {
		s.events.publish(ctx, events.NewEvent(events.EventTicketStatusChanged, ticket.ID, actor, events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
		}))
	}
	if ticket.Assignee() != oldAssignee {
		s.events.publish(ctx, events.NewEvent(events.EventTicketAssigned, ticket.ID, actor, events.TicketAssignedPayload{
			OldAssignee: oldAssignee,
			NewAssignee: ticket.Assignee(),
		}))
	}
	return ticket, nil
}

// UpdateStageStatus sets a stage status directly. It reports false when the
// stage does not exist.
func (s *TicketService) UpdateStageStatus(ctx context.Context, actor domain.ActorContext, stageID int64, status domain.StageStatus) (bool, error) {
	if !status.Valid() {
		return false, errorutil.NewValidationError("invalid stage status", map[string]any{"status": status})
	}
	stage, err := s.stages.GetByID(ctx, stageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, errorutil.NewInternalError(err)
	}
	if _, err := s.loadForActor(ctx, actor, stage.TicketID); err != nil {
		return false, err
	}

	stage.Status = status
	if err := s.stages.Update(ctx, stage); err != nil {
		return false, storeError(err, "stage", stageID)
	}
	s.publishStage(ctx, actor, stage, "status")
	return true, nil
}

// AddStage appends a stage to a project ticket.
func (s *TicketService) AddStage(ctx context.Context, actor domain.ActorContext, ticketID int64, input StageInput) (*domain.ProjectStage, error) {
	if !actor.IsAdmin() {
		return nil, errorutil.NewForbidden("admin role required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, errorutil.NewValidationError("stage name is required", map[string]any{"name": "required"})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, storeError(err, "ticket", ticketID)
	}
	if !ticket.IsProject() {
		return nil, errorutil.NewValidationError("only projects have stages", map[string]any{"ticket_type": ticket.Type})
	}
	if err := s.attachments.Admit(input.Uploads); err != nil {
		return nil, err
	}
	stage, err := s.createStage(ctx, actor, ticket, input)
	if err != nil {
		return nil, err
	}
	s.publishStage(ctx, actor, stage, "added")
	return stage, nil
}

// EditStage updates the name, deadline or status of a stage and attaches new
// files to it. The stage keeps its identity.
func (s *TicketService) EditStage(ctx context.Context, actor domain.ActorContext, stageID int64, input EditStageInput) (*domain.ProjectStage, error) {
	if !actor.IsAdmin() {
		return nil, errorutil.NewForbidden("admin role required")
	}
	stage, err := s.stages.GetByID(ctx, stageID)
	if err != nil {
		return nil, storeError(err, "stage", stageID)
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errorutil.NewValidationError("stage name is required", map[string]any{"name": "required"})
		}
		stage.Name = name
	}
	if input.Deadline != nil {
		stage.Deadline = domain.ParseDeadline(*input.Deadline)
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, errorutil.NewValidationError("invalid stage status", map[string]any{"status": *input.Status})
		}
		stage.Status = *input.Status
	}
	if err := s.attachments.Admit(input.Uploads); err != nil {
		return nil, err
	}
	if err := s.stages.Update(ctx, stage); err != nil {
		return nil, storeError(err, "stage", stageID)
	}
	if err := s.attachToStage(ctx, actor, stage, input.Uploads); err != nil {
		return stage, err
	}
	s.publishStage(ctx, actor, stage, "edited")
	return stage, nil
}

// DeleteStage removes a stage with its scoped interactions.
func (s *TicketService) DeleteStage(ctx context.Context, actor domain.ActorContext, stageID int64) error {
	if !actor.IsAdmin() {
		return errorutil.NewForbidden("admin role required")
	}
	stage, err := s.stages.GetByID(ctx, stageID)
	if err != nil {
		return storeError(err, "stage", stageID)
	}
	if err := s.stages.Delete(ctx, stageID); err != nil {
		return storeError(err, "stage", stageID)
	}
	s.publishStage(ctx, actor, stage, "deleted")
	return nil
}

// DeleteAttachment removes an attachment record. The stored file is kept.
func (s *TicketService) DeleteAttachment(ctx context.Context, actor domain.ActorContext, attachmentID int64) error {
	if !actor.IsAdmin() {
		return errorutil.NewForbidden("admin role required")
	}
	if err := s.attachments.Delete(ctx, attachmentID); err != nil {
		return err
	}
	s.logger.Info("attachment deleted", zap.Int64("attachment_id", attachmentID), zap.String("actor", actor.Email))
	return nil
}

// DeleteTicket removes a ticket with everything it owns.
func (s *TicketService) DeleteTicket(ctx context.Context, actor domain.ActorContext, ticketID int64) error {
	if !actor.IsAdmin() {
		return errorutil.NewForbidden("admin role required")
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return storeError(err, "ticket", ticketID)
	}
	s.logger.Info("ticket deleted", zap.Int64("ticket_id", ticketID), zap.String("actor", actor.Email))
	s.events.publish(ctx, events.NewEvent(events.EventTicketDeleted, ticketID, actor, nil))
	return nil
}

// OpenAttachment returns an attachment and its content for download. Only
// the owner of the parent ticket and administrators may read it.
func (s *TicketService) OpenAttachment(ctx context.Context, actor domain.ActorContext, attachmentID int64) (*domain.Attachment, *os.File, error) {
	att, err := s.attachments.Get(ctx, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	ticketID, err := s.owningTicket(ctx, att)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.loadForActor(ctx, actor, ticketID); err != nil {
		return nil, nil, err
	}
	f, err := s.attachments.Open(att)
	if err != nil {
		return nil, nil, err
	}
	return att, f, nil
}

func (s *TicketService) owningTicket(ctx context.Context, att *domain.Attachment) (int64, error) {
	if att.TicketID != nil {
		return *att.TicketID, nil
	}
	if att.InteractionID == nil {
		return 0, errorutil.NewNotFound("attachment owner", map[string]any{"id": att.ID})
	}
	in, err := s.interactions.GetByID(ctx, *att.InteractionID)
	if err != nil {
		return 0, storeError(err, "interaction", *att.InteractionID)
	}
	return in.TicketID, nil
}

func (s *TicketService) loadForActor(ctx context.Context, actor domain.ActorContext, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, storeError(err, "ticket", ticketID)
	}
	if !actor.CanAccess(ticket) {
		return nil, errorutil.NewForbidden("access denied")
	}
	return ticket, nil
}

func (s *TicketService) createStage(ctx context.Context, actor domain.ActorContext, ticket *domain.Ticket, in StageInput) (*domain.ProjectStage, error) {
	stage := &domain.ProjectStage{
		TicketID: ticket.ID,
		Name:     strings.TrimSpace(in.Name),
		Deadline: domain.ParseDeadline(in.Deadline),
		Status:   domain.StageStatusPending,
	}
	if err := s.stages.Create(ctx, stage); err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	if err := s.attachToStage(ctx, actor, stage, in.Uploads); err != nil {
		return stage, err
	}
	return stage, nil
}

// attachToStage stores stage files on a stage-scoped comment, since
// attachments are owned by a ticket or an interaction only.
func (s *TicketService) attachToStage(ctx context.Context, actor domain.ActorContext, stage *domain.ProjectStage, uploads []storage.Upload) error {
	if !hasNamedUpload(uploads) {
		return nil
	}
	_, err := s.engine.Record(ctx, actor, RecordInput{
		TicketID:   stage.TicketID,
		ActionType: domain.ActionComment,
		Text:       "Arquivos da etapa " + stage.Name,
		StageID:    &stage.ID,
		Uploads:    uploads,
	})
	return err
}

func (s *TicketService) publishStage(ctx context.Context, actor domain.ActorContext, stage *domain.ProjectStage, change string) {
	s.events.publish(ctx, events.NewEvent(events.EventStageChanged, stage.TicketID, actor, events.StageChangedPayload{
		StageID: stage.ID,
		Name:    stage.Name,
		Status:  stage.Status,
		Change:  change,
	}))
}

func hasNamedUpload(uploads []storage.Upload) bool {
	for _, up := range uploads {
		if strings.TrimSpace(up.Filename) != "" {
			return true
		}
	}
	return false
}

func validateCreate(input CreateTicketInput) error {
	details := map[string]any{}
	if input.Title == "" {
		details["title"] = "required"
	}
	if input.Description == "" {
		details["description"] = "required"
	}
	switch {
	case input.Urgency == "":
		details["urgency"] = "required"
	case !input.Urgency.Valid():
		details["urgency"] = "invalid"
	}
	switch {
	case input.Sector == "":
		details["sector"] = "required"
	case !input.Sector.Valid():
		details["sector"] = "invalid"
	}
	if !input.TicketType.Valid() {
		details["ticket_type"] = "invalid"
	}
	if input.TicketType == domain.TicketTypeProject {
		for i, stage := range input.Stages {
			if strings.TrimSpace(stage.Name) == "" {
				details["stages"] = map[string]any{"index": i, "name": "required"}
				break
			}
		}
	}
	if len(details) > 0 {
		return errorutil.NewValidationError("invalid ticket", details)
	}
	return nil
}
