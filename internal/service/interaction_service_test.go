package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/service"
	"github.com/spec-kit/support-portal/internal/storage"
	"github.com/spec-kit/support-portal/pkg/util/errorutil"
)

var _ = Describe("InteractionService", func() {
	var (
		ctx    context.Context
		h      *harness
		ticket *domain.Ticket
	)

	BeforeEach(func() {
		ctx = context.Background()
		h = newHarness()
		ticket = h.createTicket(ana, "Access request", domain.TicketTypeRequest)
	})

	// resolvingChildren returns the children of request that carry a final
	// validation status.
	resolvingChildren := func(requestID int64) []domain.Interaction {
		children, err := h.repos.Interactions.ListChildren(ctx, requestID)
		Expect(err).NotTo(HaveOccurred())
		var out []domain.Interaction
		for _, c := range children {
			if c.ActionType == domain.ActionProvideValidation || c.ActionType == domain.ActionStatusChangeManual {
				out = append(out, c)
			}
		}
		return out
	}

	Describe("Record", func() {
		It("appends a comment with id and timestamp", func() {
			in, err := h.engine.Record(ctx, ana, service.RecordInput{TicketID: ticket.ID, Text: " hello ", Deadline: "garbage"})
			Expect(err).NotTo(HaveOccurred())
			Expect(in.ID).NotTo(BeZero())
			Expect(in.CreatedAt).NotTo(BeZero())
			Expect(in.ActionType).To(Equal(domain.ActionComment))
			Expect(in.Text).To(Equal("hello"))
			Expect(in.Deadline).To(BeNil())
			Expect(h.eventsOf(events.EventInteractionRecorded)).To(HaveLen(1))
		})

		It("fails with not found for a missing ticket", func() {
			_, err := h.engine.Record(ctx, admin, service.RecordInput{TicketID: 9999, Text: "x"})
			Expect(errorutil.HasCode(err, errorutil.CodeNotFound)).To(BeTrue())
		})

		It("denies users who do not own the ticket", func() {
			_, err := h.engine.Record(ctx, bob, service.RecordInput{TicketID: ticket.ID, Text: "x"})
			Expect(errorutil.HasCode(err, errorutil.CodeForbidden)).To(BeTrue())
		})

		It("keeps threads one level deep", func() {
			root, err := h.engine.Record(ctx, ana, service.RecordInput{TicketID: ticket.ID, Text: "root"})
			Expect(err).NotTo(HaveOccurred())
			reply, err := h.engine.Record(ctx, admin, service.RecordInput{TicketID: ticket.ID, Text: "reply", ParentID: &root.ID})
			Expect(err).NotTo(HaveOccurred())

			_, err = h.engine.Record(ctx, ana, service.RecordInput{TicketID: ticket.ID, Text: "nested", ParentID: &reply.ID})
			Expect(errorutil.HasCode(err, errorutil.CodeValidation)).To(BeTrue())

			thread, err := h.engine.Thread(ctx, ticket.ID, domain.AllStages())
			Expect(err).NotTo(HaveOccurred())
			Expect(thread.Roots()).To(HaveLen(1))
			Expect(thread.Children(root.ID)).To(HaveLen(1))
		})

		It("rejects parents and stages of other tickets", func() {
			other := h.createTicket(ana, "Other", domain.TicketTypeProject, "Stage")
			foreign, err := h.engine.Record(ctx, ana, service.RecordInput{TicketID: other.ID, Text: "x"})
			Expect(err).NotTo(HaveOccurred())
			stages, _ := h.repos.Stages.ListByTicket(ctx, other.ID)

			_, err = h.engine.Record(ctx, ana, service.RecordInput{TicketID: ticket.ID, ParentID: &foreign.ID})
			Expect(errorutil.HasCode(err, errorutil.CodeValidation)).To(BeTrue())
			_, err = h.engine.Record(ctx, ana, service.RecordInput{TicketID: ticket.ID, StageID: &stages[0].ID})
			Expect(errorutil.HasCode(err, errorutil.CodeValidation)).To(BeTrue())
		})

		It("rejects a payload of another action type", func() {
			_, err := h.engine.Record(ctx, admin, service.RecordInput{
				TicketID:   ticket.ID,
				ActionType: domain.ActionAssign,
				Payload:    domain.NewValidationRequest(),
			})
			Expect(errorutil.HasCode(err, errorutil.CodeValidation)).To(BeTrue())
		})
	})

	Describe("validation workflow", func() {
		var request *domain.Interaction

		BeforeEach(func() {
			var err error
			request, err = h.engine.RequestValidation(ctx, admin, ticket.ID, "please confirm", "", nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(request.IsPendingValidation()).To(BeTrue())
		})

		It("pairs an approval with exactly one response", func() {
			response, err := h.engine.RespondValidation(ctx, ana, ticket.ID, request.ID, domain.ValidationApproved)
			Expect(err).NotTo(HaveOccurred())
			Expect(response.ActionType).To(Equal(domain.ActionProvideValidation))
			Expect(*response.ParentID).To(Equal(request.ID))

			stored, err := h.repos.Interactions.GetByID(ctx, request.ID)
			Expect(err).NotTo(HaveOccurred())
			status, _ := stored.ValidationStatus()
			Expect(status).To(Equal(domain.ValidationApproved))

			children := resolvingChildren(request.ID)
			Expect(children).To(HaveLen(1))
			final, ok := domain.ResolvedStatus(children[0].Payload)
			Expect(ok).To(BeTrue())
			Expect(final).To(Equal(status))
			Expect(h.eventsOf(events.EventValidationResolved)).To(HaveLen(1))
		})

		It("refuses a second response", func() {
			_, err := h.engine.RespondValidation(ctx, ana, ticket.ID, request.ID, domain.ValidationRejected)
			Expect(err).NotTo(HaveOccurred())
			_, err = h.engine.RespondValidation(ctx, ana, ticket.ID, request.ID, domain.ValidationApproved)
			Expect(errorutil.HasCode(err, errorutil.CodeConflict)).To(BeTrue())
			Expect(resolvingChildren(request.ID)).To(HaveLen(1))
		})

		It("rejects a decision other than approved or rejected", func() {
			_, err := h.engine.RespondValidation(ctx, ana, ticket.ID, request.ID, domain.ValidationPending)
			Expect(errorutil.HasCode(err, errorutil.CodeValidation)).To(BeTrue())
		})

		It("ignores a response filed under another ticket", func() {
			other := h.createTicket(ana, "Other", domain.TicketTypeRequest)
			response, err := h.engine.RespondValidation(ctx, ana, other.ID, request.ID, domain.ValidationApproved)
			Expect(err).NotTo(HaveOccurred())
			Expect(response).To(BeNil())

			stored, _ := h.repos.Interactions.GetByID(ctx, request.ID)
			Expect(stored.IsPendingValidation()).To(BeTrue())
			Expect(resolvingChildren(request.ID)).To(BeEmpty())
		})

		It("inherits the stage of the request", func() {
			project := h.createTicket(ana, "Project", domain.TicketTypeProject, "Build")
			stages, _ := h.repos.Stages.ListByTicket(ctx, project.ID)
			scoped, err := h.engine.RequestValidation(ctx, admin, project.ID, "ok?", "", &stages[0].ID, nil)
			Expect(err).NotTo(HaveOccurred())

			response, err := h.engine.RespondValidation(ctx, ana, project.ID, scoped.ID, domain.ValidationApproved)
			Expect(err).NotTo(HaveOccurred())
			Expect(response.StageID).NotTo(BeNil())
			Expect(*response.StageID).To(Equal(stages[0].ID))
		})

		Describe("OverrideValidationStatus", func() {
			It("is reserved to admins", func() {
				_, err := h.engine.OverrideValidationStatus(ctx, ana, request.ID, domain.ValidationApproved)
				Expect(errorutil.HasCode(err, errorutil.CodeForbidden)).To(BeTrue())
			})

			It("logs a manual status change child", func() {
				entry, err := h.engine.OverrideValidationStatus(ctx, admin, request.ID, domain.ValidationRejected)
				Expect(err).NotTo(HaveOccurred())
				Expect(entry.ActionType).To(Equal(domain.ActionStatusChangeManual))
				Expect(entry.Payload).To(Equal(domain.ValidationOverridePayload{
					OldStatus: domain.ValidationPending,
					NewStatus: domain.ValidationRejected,
				}))

				stored, _ := h.repos.Interactions.GetByID(ctx, request.ID)
				status, _ := stored.ValidationStatus()
				Expect(status).To(Equal(domain.ValidationRejected))
				Expect(resolvingChildren(request.ID)).To(HaveLen(1))
			})

			It("does nothing when the status is unchanged", func() {
				entry, err := h.engine.OverrideValidationStatus(ctx, admin, request.ID, domain.ValidationPending)
				Expect(err).NotTo(HaveOccurred())
				Expect(entry).To(BeNil())
				Expect(resolvingChildren(request.ID)).To(BeEmpty())
			})

			It("fails for interactions that are not validation requests", func() {
				comment, err := h.engine.Record(ctx, ana, service.RecordInput{TicketID: ticket.ID, Text: "x"})
				Expect(err).NotTo(HaveOccurred())
				_, err = h.engine.OverrideValidationStatus(ctx, admin, comment.ID, domain.ValidationApproved)
				Expect(errorutil.HasCode(err, errorutil.CodeValidation)).To(BeTrue())
			})
		})
	})

	Describe("DeleteInteraction", func() {
		It("removes the interaction with its replies and their attachments", func() {
			root, err := h.engine.Record(ctx, ana, service.RecordInput{TicketID: ticket.ID, Text: "root"})
			Expect(err).NotTo(HaveOccurred())
			reply, err := h.engine.Record(ctx, admin, service.RecordInput{
				TicketID: ticket.ID,
				Text:     "reply",
				ParentID: &root.ID,
				Uploads:  []storage.Upload{upload("trace.log", "stack")},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Attachments).To(HaveLen(1))
			keep, err := h.engine.Record(ctx, ana, service.RecordInput{TicketID: ticket.ID, Text: "unrelated"})
			Expect(err).NotTo(HaveOccurred())

			Expect(h.engine.DeleteInteraction(ctx, admin, root.ID)).To(Succeed())

			remaining := h.interactions(ticket.ID)
			Expect(remaining).To(HaveLen(1))
			Expect(remaining[0].ID).To(Equal(keep.ID))
			atts, err := h.repos.Attachments.ListByInteractions(ctx, []int64{root.ID, reply.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(atts).To(BeEmpty())

			deleted := h.eventsOf(events.EventInteractionDeleted)
			Expect(deleted).To(HaveLen(1))
			Expect(deleted[0].Payload).To(Equal(events.InteractionDeletedPayload{
				InteractionID: root.ID,
				ActionType:    domain.ActionComment,
				Replies:       1,
			}))
		})

		It("is reserved to admins", func() {
			in, err := h.engine.Record(ctx, ana, service.RecordInput{TicketID: ticket.ID, Text: "mine"})
			Expect(err).NotTo(HaveOccurred())
			err = h.engine.DeleteInteraction(ctx, ana, in.ID)
			Expect(errorutil.HasCode(err, errorutil.CodeForbidden)).To(BeTrue())
			Expect(h.interactions(ticket.ID)).To(HaveLen(1))
		})

		It("keeps validation outcomes paired with their request", func() {
			request, err := h.engine.RequestValidation(ctx, admin, ticket.ID, "ok?", "", nil, nil)
			Expect(err).NotTo(HaveOccurred())
			response, err := h.engine.RespondValidation(ctx, ana, ticket.ID, request.ID, domain.ValidationApproved)
			Expect(err).NotTo(HaveOccurred())

			err = h.engine.DeleteInteraction(ctx, admin, response.ID)
			Expect(errorutil.HasCode(err, errorutil.CodeConflict)).To(BeTrue())

			Expect(h.engine.DeleteInteraction(ctx, admin, request.ID)).To(Succeed())
			Expect(h.interactions(ticket.ID)).To(BeEmpty())
		})

		It("reports missing interactions", func() {
			err := h.engine.DeleteInteraction(ctx, admin, 4040)
			Expect(errorutil.HasCode(err, errorutil.CodeNotFound)).To(BeTrue())
		})
	})

	Describe("Thread", func() {
		It("scopes to general or one stage and keeps replies with their parent", func() {
			project := h.createTicket(ana, "Project", domain.TicketTypeProject, "Design")
			stages, _ := h.repos.Stages.ListByTicket(ctx, project.ID)

			general, err := h.engine.Record(ctx, ana, service.RecordInput{TicketID: project.ID, Text: "general"})
			Expect(err).NotTo(HaveOccurred())
			_, err = h.engine.Record(ctx, admin, service.RecordInput{TicketID: project.ID, Text: "re", ParentID: &general.ID})
			Expect(err).NotTo(HaveOccurred())
			_, err = h.engine.Record(ctx, ana, service.RecordInput{TicketID: project.ID, Text: "design", StageID: &stages[0].ID})
			Expect(err).NotTo(HaveOccurred())

			thread, err := h.engine.Thread(ctx, project.ID, domain.GeneralScope())
			Expect(err).NotTo(HaveOccurred())
			Expect(thread.Len()).To(Equal(2))
			Expect(thread.Roots()[0].Text).To(Equal("general"))

			thread, err = h.engine.Thread(ctx, project.ID, domain.StageOnly(stages[0].ID))
			Expect(err).NotTo(HaveOccurred())
			Expect(thread.Len()).To(Equal(1))
			Expect(thread.Roots()[0].Text).To(Equal("design"))
		})
	})
})
