package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/repository"
	"github.com/spec-kit/support-portal/internal/storage"
	"github.com/spec-kit/support-portal/pkg/util/errorutil"
)

// InteractionService appends entries to ticket threads and runs the
// validation request/response workflow.
type InteractionService struct {
	tickets      repository.TicketRepository
	interactions repository.InteractionRepository
	stages       repository.StageRepository
	attachments  *AttachmentStore
	events       eventPublisher
	logger       *zap.Logger
}

// InteractionDependencies bundles collaborators of the interaction service.
type InteractionDependencies struct {
	Repos       repository.Set
	Attachments *AttachmentStore
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// RecordInput describes one interaction to append. Deadline is an ISO-8601
// date or date-time; unparseable values are dropped.
type RecordInput struct {
	TicketID   int64
	ActionType domain.ActionType
	Text       string
	Payload    domain.Payload
	Deadline   string
	ParentID   *int64
	StageID    *int64
	Uploads    []storage.Upload
}

// NewInteractionService constructs the service.
func NewInteractionService(deps InteractionDependencies) *InteractionService {
	logger := orNop(deps.Logger)
	return &InteractionService{
		tickets:      deps.Repos.Tickets,
		interactions: deps.Repos.Interactions,
		stages:       deps.Repos.Stages,
		attachments:  deps.Attachments,
		events:       eventPublisher{dispatcher: deps.Dispatcher, logger: logger},
		logger:       logger,
	}
}

// Record appends an interaction to a ticket thread.
func (s *InteractionService) Record(ctx context.Context, actor domain.ActorContext, input RecordInput) (*domain.Interaction, error) {
	ticket, err := s.tickets.GetByID(ctx, input.TicketID)
	if err != nil {
		return nil, storeError(err, "ticket", input.TicketID)
	}
	if !actor.CanAccess(ticket) {
		return nil, errorutil.NewForbidden("access denied")
	}

	action := input.ActionType
	if action == "" {
		action = domain.ActionComment
	}
	if !action.Valid() {
		return nil, errorutil.NewValidationError("invalid action type", map[string]any{"action_type": action})
	}
	if input.Payload != nil && input.Payload.Action() != action {
		return nil, errorutil.NewValidationError("payload does not match action type", map[string]any{
			"action_type":  action,
			"payload_type": input.Payload.Action(),
		})
	}
	if err := s.checkParent(ctx, ticket.ID, input.ParentID); err != nil {
		return nil, err
	}
	if err := s.checkStage(ctx, ticket.ID, input.StageID); err != nil {
		return nil, err
	}
	if s.attachments != nil {
		if err := s.attachments.Admit(input.Uploads); err != nil {
			return nil, err
		}
	}

	in := &domain.Interaction{
		TicketID:    ticket.ID,
		AuthorEmail: actor.Email,
		ActionType:  action,
		Text:        strings.TrimSpace(input.Text),
		Payload:     input.Payload,
		Deadline:    domain.ParseDeadline(input.Deadline),
		ParentID:    input.ParentID,
		StageID:     input.StageID,
	}
	if err := s.interactions.Create(ctx, in); err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	if s.attachments != nil {
		atts, err := s.attachments.Attach(ctx, domain.InteractionOwner(in.ID), input.Uploads)
		in.Attachments = atts
		if err != nil {
			return in, err
		}
	}

	s.events.publish(ctx, events.NewEvent(events.EventInteractionRecorded, ticket.ID, actor, events.InteractionRecordedPayload{
		InteractionID: in.ID,
		ActionType:    in.ActionType,
		ParentID:      in.ParentID,
		StageID:       in.StageID,
		TextPreview:   stringPreview(in.Text, 140),
	}))
	return in, nil
}

// RequestValidation records a pending validation request.
func (s *InteractionService) RequestValidation(ctx context.Context, actor domain.ActorContext, ticketID int64, text, deadline string, stageID *int64, uploads []storage.Upload) (*domain.Interaction, error) {
	return s.Record(ctx, actor, RecordInput{
		TicketID:   ticketID,
		ActionType: domain.ActionRequestValidation,
		Text:       text,
		Payload:    domain.NewValidationRequest(),
		Deadline:   deadline,
		StageID:    stageID,
		Uploads:    uploads,
	})
}

// RespondValidation resolves a pending validation request and records the
// response as its child. A request belonging to another ticket is ignored and
// yields (nil, nil).
func (s *InteractionService) RespondValidation(ctx context.Context, actor domain.ActorContext, ticketID, requestID int64, decision domain.ValidationStatus) (*domain.Interaction, error) {
	request, err := s.interactions.GetByID(ctx, requestID)
	if err != nil {
		return nil, storeError(err, "interaction", requestID)
	}
	if request.TicketID != ticketID {
		s.logger.Warn("validation response for foreign ticket ignored",
			zap.Int64("ticket_id", ticketID),
			zap.Int64("request_id", requestID),
			zap.String("actor", actor.Email))
		return nil, nil
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, storeError(err, "ticket", ticketID)
	}
	if !actor.CanAccess(ticket) {
		return nil, errorutil.NewForbidden("access denied")
	}
	if !decision.IsDecision() {
		return nil, errorutil.NewValidationError("decision must be approved or rejected", map[string]any{"decision": decision})
	}
	if request.ActionType != domain.ActionRequestValidation {
		return nil, errorutil.NewValidationError("interaction is not a validation request", map[string]any{"id": requestID})
	}
	if !request.IsPendingValidation() {
		status, _ := request.ValidationStatus()
		return nil, errorutil.NewConflict("validation already resolved", map[string]any{"id": requestID, "status": status})
	}

	request.Payload = domain.NewValidationRequest().WithStatus(decision)
	if err := s.interactions.UpdatePayload(ctx, request); err != nil {
		return nil, storeError(err, "interaction", requestID)
	}

	response, err := s.Record(ctx, actor, RecordInput{
		TicketID:   ticketID,
		ActionType: domain.ActionProvideValidation,
		Payload:    domain.NewValidationResponse(decision),
		ParentID:   &request.ID,
		StageID:    request.StageID,
	})
	if err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.NewEvent(events.EventValidationResolved, ticketID, actor, events.ValidationResolvedPayload{
		RequestID: request.ID,
		Status:    decision,
	}))
	return response, nil
}

// OverrideValidationStatus lets an administrator correct the status of a
// validation request. The correction is logged as a status_change_manual
// child. Setting the current status again is a no-op returning (nil, nil).
func (s *InteractionService) OverrideValidationStatus(ctx context.Context, actor domain.ActorContext, requestID int64, status domain.ValidationStatus) (*domain.Interaction, error) {
	if !actor.IsAdmin() {
		return nil, errorutil.NewForbidden("admin role required")
	}
	if !status.Valid() {
		return nil, errorutil.NewValidationError("invalid validation status", map[string]any{"status": status})
	}
	request, err := s.interactions.GetByID(ctx, requestID)
	if err != nil {
		return nil, storeError(err, "interaction", requestID)
	}
	if request.ActionType != domain.ActionRequestValidation {
		return nil, errorutil.NewValidationError("interaction is not a validation request", map[string]any{"id": requestID})
	}

	current, ok := request.ValidationStatus()
	if !ok {
		current = domain.ValidationPending
	}
	if current == status {
		return nil, nil
	}

	request.Payload = domain.NewValidationRequest().WithStatus(status)
	if err := s.interactions.UpdatePayload(ctx, request); err != nil {
		return nil, storeError(err, "interaction", requestID)
	}

	entry, err := s.Record(ctx, actor, RecordInput{
		TicketID:   request.TicketID,
		ActionType: domain.ActionStatusChangeManual,
		Payload:    domain.ValidationOverridePayload{OldStatus: current, NewStatus: status},
		ParentID:   &request.ID,
		StageID:    request.StageID,
	})
	if err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.NewEvent(events.EventValidationResolved, request.TicketID, actor, events.ValidationResolvedPayload{
		RequestID: request.ID,
		Status:    status,
		Manual:    true,
	}))
	return entry, nil
}

// DeleteInteraction removes an interaction with its replies and attachments.
// Validation outcomes cannot be deleted on their own, since the resolved
// request would lose the child recording its status.
func (s *InteractionService) DeleteInteraction(ctx context.Context, actor domain.ActorContext, id int64) error {
	if !actor.IsAdmin() {
		return errorutil.NewForbidden("admin role required")
	}
	in, err := s.interactions.GetByID(ctx, id)
	if err != nil {
		return storeError(err, "interaction", id)
	}
	if in.ActionType == domain.ActionProvideValidation || in.ActionType == domain.ActionStatusChangeManual {
		return errorutil.NewConflict("validation outcomes are removed with their request", map[string]any{
			"id":        id,
			"parent_id": in.ParentID,
		})
	}
	replies, err := s.interactions.ListChildren(ctx, id)
	if err != nil {
		return errorutil.NewInternalError(err)
	}
	if err := s.interactions.Delete(ctx, id); err != nil {
		return storeError(err, "interaction", id)
	}
	s.logger.Info("interaction deleted",
		zap.Int64("interaction_id", id),
		zap.Int64("ticket_id", in.TicketID),
		zap.Int("replies", len(replies)),
		zap.String("actor", actor.Email))
	s.events.publish(ctx, events.NewEvent(events.EventInteractionDeleted, in.TicketID, actor, events.InteractionDeletedPayload{
		InteractionID: id,
		ActionType:    in.ActionType,
		Replies:       len(replies),
	}))
	return nil
}

// Thread loads a ticket's interactions, scoped to a stage if requested, with
// their attachments.
func (s *InteractionService) Thread(ctx context.Context, ticketID int64, scope domain.StageScope) (*domain.Thread, error) {
	items, err := s.interactions.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	items = domain.FilterInteractions(items, scope)

	if s.attachments != nil && len(items) > 0 {
		ids := make([]int64, len(items))
		for i := range items {
			ids[i] = items[i].ID
		}
		grouped, err := s.attachments.ForInteractions(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range items {
			items[i].Attachments = grouped[items[i].ID]
		}
	}
	return domain.NewThread(items), nil
}

// checkParent enforces that replies target a root interaction of the same
// ticket, which keeps threads one level deep.
func (s *InteractionService) checkParent(ctx context.Context, ticketID int64, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	parent, err := s.interactions.GetByID(ctx, *parentID)
	if err != nil {
		return storeError(err, "interaction", *parentID)
	}
	if parent.TicketID != ticketID {
		return errorutil.NewValidationError("parent belongs to another ticket", map[string]any{"parent_id": *parentID})
	}
	if !parent.IsRoot() {
		return errorutil.NewValidationError("replies cannot be nested", map[string]any{"parent_id": *parentID})
	}
	return nil
}

func (s *InteractionService) checkStage(ctx context.Context, ticketID int64, stageID *int64) error {
	if stageID == nil {
		return nil
	}
	stage, err := s.stages.GetByID(ctx, *stageID)
	if err != nil {
		return storeError(err, "stage", *stageID)
	}
	if stage.TicketID != ticketID {
		return errorutil.NewValidationError("stage belongs to another ticket", map[string]any{"stage_id": *stageID})
	}
	return nil
}
