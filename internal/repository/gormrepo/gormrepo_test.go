package gormrepo_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository"
	"github.com/spec-kit/support-portal/internal/repository/gormrepo"
)

var _ = Describe("GORM repositories", func() {
	var (
		ctx  context.Context
		repo repository.Set
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = gormrepo.NewSet(openMemoryDB())
	})

	newTicket := func(title string, urgency domain.Urgency, status domain.TicketStatus, creator string) *domain.Ticket {
		t := &domain.Ticket{
			Title:        title,
			Description:  "details",
			Urgency:      urgency,
			Sector:       domain.SectorIT,
			Status:       status,
			Type:         domain.TicketTypeProject,
			CreatorEmail: creator,
		}
		Expect(repo.Tickets.Create(ctx, t)).To(Succeed())
		return t
	}

	Describe("tickets", func() {
		It("round-trips a ticket", func() {
			assignee := "ops@example.com"
			t := newTicket("Printer", domain.UrgencyHigh, domain.TicketStatusOpen, "ana@example.com")
			t.AssigneeEmail = &assignee
			t.Status = domain.TicketStatusInProgress
			Expect(repo.Tickets.Update(ctx, t)).To(Succeed())

			got, err := repo.Tickets.GetByID(ctx, t.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("Printer"))
			Expect(got.Status).To(Equal(domain.TicketStatusInProgress))
			Expect(got.Assignee()).To(Equal(assignee))
			Expect(got.CreatedAt).NotTo(BeZero())
		})

		It("reports missing tickets", func() {
			_, err := repo.Tickets.GetByID(ctx, 404)
			Expect(err).To(MatchError(repository.ErrNotFound))
			Expect(repo.Tickets.Update(ctx, &domain.Ticket{ID: 404})).To(MatchError(repository.ErrNotFound))
			Expect(repo.Tickets.Delete(ctx, 404)).To(MatchError(repository.ErrNotFound))
		})

		It("filters by creator, status and title", func() {
			newTicket("VPN down", domain.UrgencyHigh, domain.TicketStatusOpen, "ana@example.com")
			newTicket("VPN slow", domain.UrgencyLow, domain.TicketStatusClosed, "ana@example.com")
			newTicket("Payroll", domain.UrgencyLow, domain.TicketStatusOpen, "bob@example.com")

			creator := "ANA@example.com"
			got, err := repo.Tickets.List(ctx, repository.TicketQuery{
				CreatorEmail:  &creator,
				Statuses:      []domain.TicketStatus{domain.TicketStatusOpen},
				TitleContains: "vpn",
				Sort:          repository.DefaultTicketSort,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].Title).To(Equal("VPN down"))
		})

		It("matches titles literally and folds accented capitals", func() {
			newTicket("MANUTENÇÃO ÁGUA", domain.UrgencyHigh, domain.TicketStatusOpen, "ana@example.com")
			newTicket("Desconto 500 reais", domain.UrgencyLow, domain.TicketStatusOpen, "ana@example.com")
			newTicket("backup_diario", domain.UrgencyLow, domain.TicketStatusOpen, "ana@example.com")

			titles := func(needle string) []string {
				got, err := repo.Tickets.List(ctx, repository.TicketQuery{TitleContains: needle, Sort: repository.DefaultTicketSort})
				Expect(err).NotTo(HaveOccurred())
				out := []string{}
				for _, t := range got {
					out = append(out, t.Title)
				}
				return out
			}

			Expect(titles("manutenção água")).To(Equal([]string{"MANUTENÇÃO ÁGUA"}))
			Expect(titles("5%0")).To(BeEmpty())
			Expect(titles("k_p")).To(BeEmpty())
			Expect(titles("p_d!")).To(BeEmpty())
			Expect(titles("backup_")).To(Equal([]string{"backup_diario"}))
		})

		It("refolds the searchable title on update", func() {
			t := newTicket("Rede", domain.UrgencyLow, domain.TicketStatusOpen, "ana@example.com")
			t.Title = "ÉTICA"
			Expect(repo.Tickets.Update(ctx, t)).To(Succeed())

			got, err := repo.Tickets.List(ctx, repository.TicketQuery{TitleContains: "ética", Sort: repository.DefaultTicketSort})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].ID).To(Equal(t.ID))
		})

		It("sorts urgency by severity", func() {
			newTicket("a", domain.UrgencyMedium, domain.TicketStatusOpen, "ana@example.com")
			newTicket("b", domain.UrgencyCritical, domain.TicketStatusOpen, "ana@example.com")
			newTicket("c", domain.UrgencyLow, domain.TicketStatusOpen, "ana@example.com")

			got, err := repo.Tickets.List(ctx, repository.TicketQuery{
				Sort: repository.TicketSort{Field: repository.SortByUrgency, Descending: true},
			})
			Expect(err).NotTo(HaveOccurred())
			titles := []string{}
			for _, t := range got {
				titles = append(titles, t.Title)
			}
			Expect(titles).To(Equal([]string{"b", "a", "c"}))
		})

		It("honours limit and offset", func() {
			for _, title := range []string{"one", "two", "three"} {
				newTicket(title, domain.UrgencyLow, domain.TicketStatusOpen, "ana@example.com")
			}
			got, err := repo.Tickets.List(ctx, repository.TicketQuery{
				Sort:   repository.TicketSort{Field: repository.SortByID},
				Limit:  2,
				Offset: 1,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
			Expect(got[0].Title).To(Equal("two"))
		})
	})

	Describe("interactions", func() {
		It("decodes payloads and rewrites them in place", func() {
			t := newTicket("Access", domain.UrgencyLow, domain.TicketStatusOpen, "ana@example.com")
			req := &domain.Interaction{
				TicketID:    t.ID,
				AuthorEmail: "ops@example.com",
				ActionType:  domain.ActionRequestValidation,
				Text:        "please confirm",
				Payload:     domain.NewValidationRequest(),
			}
			Expect(repo.Interactions.Create(ctx, req)).To(Succeed())

			req.Payload = domain.NewValidationRequest().WithStatus(domain.ValidationApproved)
			Expect(repo.Interactions.UpdatePayload(ctx, req)).To(Succeed())

			got, err := repo.Interactions.GetByID(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			status, ok := got.ValidationStatus()
			Expect(ok).To(BeTrue())
			Expect(status).To(Equal(domain.ValidationApproved))
			Expect(got.Payload.Action()).To(Equal(domain.ActionRequestValidation))
		})

		It("stores comments without payload", func() {
			t := newTicket("Access", domain.UrgencyLow, domain.TicketStatusOpen, "ana@example.com")
			c := &domain.Interaction{TicketID: t.ID, AuthorEmail: "ana@example.com", ActionType: domain.ActionComment, Text: "hi"}
			Expect(repo.Interactions.Create(ctx, c)).To(Succeed())

			got, err := repo.Interactions.ListByTicket(ctx, t.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].Payload).To(BeNil())
		})

		It("removes replies and attachments with their parent", func() {
			t := newTicket("Access", domain.UrgencyLow, domain.TicketStatusOpen, "ana@example.com")
			root := &domain.Interaction{TicketID: t.ID, AuthorEmail: "a@x.com", ActionType: domain.ActionComment}
			Expect(repo.Interactions.Create(ctx, root)).To(Succeed())
			reply := &domain.Interaction{TicketID: t.ID, AuthorEmail: "a@x.com", ActionType: domain.ActionComment, ParentID: &root.ID}
			Expect(repo.Interactions.Create(ctx, reply)).To(Succeed())
			file := &domain.Attachment{FilePath: "p", FileName: "f.txt"}
			domain.InteractionOwner(reply.ID).Bind(file)
			Expect(repo.Attachments.Create(ctx, file)).To(Succeed())

			Expect(repo.Interactions.Delete(ctx, root.ID)).To(Succeed())

			_, err := repo.Interactions.GetByID(ctx, reply.ID)
			Expect(err).To(MatchError(repository.ErrNotFound))
			_, err = repo.Attachments.GetByID(ctx, file.ID)
			Expect(err).To(MatchError(repository.ErrNotFound))
		})
	})

	Describe("stages", func() {
		It("counts completed stages per ticket", func() {
			a := newTicket("A", domain.UrgencyLow, domain.TicketStatusOpen, "ana@example.com")
			b := newTicket("B", domain.UrgencyLow, domain.TicketStatusOpen, "ana@example.com")
			for _, st := range []domain.StageStatus{domain.StageStatusDone, domain.StageStatusPending, domain.StageStatusDone} {
				Expect(repo.Stages.Create(ctx, &domain.ProjectStage{TicketID: a.ID, Name: "s", Status: st})).To(Succeed())
			}

			counts, err := repo.Stages.CountByTickets(ctx, []int64{a.ID, b.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(counts[a.ID]).To(Equal(repository.StageCounts{Completed: 2, Total: 3}))
			Expect(counts).NotTo(HaveKey(b.ID))
		})

		It("removes stage-scoped interactions with the stage", func() {
			t := newTicket("Project", domain.UrgencyLow, domain.TicketStatusOpen, "ana@example.com")
			stage := &domain.ProjectStage{TicketID: t.ID, Name: "Design", Status: domain.StageStatusPending}
			Expect(repo.Stages.Create(ctx, stage)).To(Succeed())

			scoped := &domain.Interaction{TicketID: t.ID, AuthorEmail: "a@x.com", ActionType: domain.ActionComment, StageID: &stage.ID}
			general := &domain.Interaction{TicketID: t.ID, AuthorEmail: "a@x.com", ActionType: domain.ActionComment}
			Expect(repo.Interactions.Create(ctx, scoped)).To(Succeed())
			Expect(repo.Interactions.Create(ctx, general)).To(Succeed())

			Expect(repo.Stages.Delete(ctx, stage.ID)).To(Succeed())

			left, err := repo.Interactions.ListByTicket(ctx, t.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(left).To(HaveLen(1))
			Expect(left[0].ID).To(Equal(general.ID))
		})
	})

	Describe("ticket deletion", func() {
		It("cascades to every owned row", func() {
			t := newTicket("Project", domain.UrgencyLow, domain.TicketStatusOpen, "ana@example.com")
			stage := &domain.ProjectStage{TicketID: t.ID, Name: "Build", Status: domain.StageStatusPending}
			Expect(repo.Stages.Create(ctx, stage)).To(Succeed())
			in := &domain.Interaction{TicketID: t.ID, AuthorEmail: "a@x.com", ActionType: domain.ActionComment}
			Expect(repo.Interactions.Create(ctx, in)).To(Succeed())
			ticketFile := &domain.Attachment{FilePath: "p1", FileName: "a.pdf"}
			domain.TicketOwner(t.ID).Bind(ticketFile)
			Expect(repo.Attachments.Create(ctx, ticketFile)).To(Succeed())
			threadFile := &domain.Attachment{FilePath: "p2", FileName: "b.pdf"}
			domain.InteractionOwner(in.ID).Bind(threadFile)
			Expect(repo.Attachments.Create(ctx, threadFile)).To(Succeed())

			Expect(repo.Tickets.Delete(ctx, t.ID)).To(Succeed())

			_, err := repo.Stages.GetByID(ctx, stage.ID)
			Expect(err).To(MatchError(repository.ErrNotFound))
			_, err = repo.Interactions.GetByID(ctx, in.ID)
			Expect(err).To(MatchError(repository.ErrNotFound))
			_, err = repo.Attachments.GetByID(ctx, ticketFile.ID)
			Expect(err).To(MatchError(repository.ErrNotFound))
			_, err = repo.Attachments.GetByID(ctx, threadFile.ID)
			Expect(err).To(MatchError(repository.ErrNotFound))
		})
	})
})
