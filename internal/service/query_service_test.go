package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository"
	"github.com/spec-kit/support-portal/internal/service"
)

var _ = Describe("QueryService", func() {
	var (
		ctx context.Context
		h   *harness
	)

	titles := func(rows []service.TicketSummary) []string {
		out := make([]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.Title)
		}
		return out
	}

	BeforeEach(func() {
		ctx = context.Background()
		h = newHarness()

		h.createTicket(ana, "ana open", domain.TicketTypeRequest)
		closed := h.createTicket(ana, "ana closed", domain.TicketTypeRequest)
		h.setStatus(closed, domain.TicketStatusClosed)
		waiting := h.createTicket(bob, "bob waiting", domain.TicketTypeRequest)
		h.setStatus(waiting, domain.TicketStatusAwaitingReply)
	})

	Describe("default status filter", func() {
		It("hides closed tickets when no status is supplied", func() {
			rows, err := h.query.ListTickets(ctx, admin, service.TicketFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(rows)).To(ConsistOf("ana open", "bob waiting"))
		})

		It("does not restrict when an empty status set is supplied", func() {
			rows, err := h.query.ListTickets(ctx, admin, service.TicketFilter{
				Statuses: domain.Supplied[domain.TicketStatus](),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(rows)).To(ConsistOf("ana open", "ana closed", "bob waiting"))
		})

		It("restricts to a supplied non-empty set", func() {
			rows, err := h.query.ListTickets(ctx, admin, service.TicketFilter{
				Statuses: domain.Supplied(domain.TicketStatusClosed),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(rows)).To(ConsistOf("ana closed"))
		})
	})

	Describe("urgency and sector filters", func() {
		BeforeEach(func() {
			for _, in := range []service.CreateTicketInput{
				{Title: "payroll late", Urgency: domain.UrgencyCritical, Sector: domain.SectorFinance},
				{Title: "new hire badge", Urgency: domain.UrgencyLow, Sector: domain.SectorHR},
			} {
				in.Description = "details"
				_, err := h.tickets.CreateTicket(ctx, ana, in)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		DescribeTable("narrowing the open tickets",
			func(filter service.TicketFilter, want []string) {
				rows, err := h.query.ListTickets(ctx, admin, filter)
				Expect(err).NotTo(HaveOccurred())
				Expect(titles(rows)).To(ConsistOf(want))
			},
			Entry("absent urgency does not restrict",
				service.TicketFilter{Urgencies: domain.Absent[domain.Urgency]()},
				[]string{"ana open", "bob waiting", "payroll late", "new hire badge"}),
			Entry("empty urgency set does not restrict",
				service.TicketFilter{Urgencies: domain.Supplied[domain.Urgency]()},
				[]string{"ana open", "bob waiting", "payroll late", "new hire badge"}),
			Entry("urgency set restricts",
				service.TicketFilter{Urgencies: domain.Supplied(domain.UrgencyCritical, domain.UrgencyLow)},
				[]string{"payroll late", "new hire badge"}),
			Entry("absent sector does not restrict",
				service.TicketFilter{Sectors: domain.Absent[domain.Sector]()},
				[]string{"ana open", "bob waiting", "payroll late", "new hire badge"}),
			Entry("empty sector set does not restrict",
				service.TicketFilter{Sectors: domain.Supplied[domain.Sector]()},
				[]string{"ana open", "bob waiting", "payroll late", "new hire badge"}),
			Entry("sector set restricts",
				service.TicketFilter{Sectors: domain.Supplied(domain.SectorIT)},
				[]string{"ana open", "bob waiting"}),
			Entry("urgency and sector combine",
				service.TicketFilter{
					Urgencies: domain.Supplied(domain.UrgencyCritical, domain.UrgencyMedium),
					Sectors:   domain.Supplied(domain.SectorFinance, domain.SectorHR),
				},
				[]string{"payroll late"}),
		)
	})

	Describe("role scoping", func() {
		It("never shows other creators to a non-admin", func() {
			rows, err := h.query.ListTickets(ctx, ana, service.TicketFilter{
				Statuses: domain.Supplied[domain.TicketStatus](),
			})
			Expect(err).NotTo(HaveOccurred())
			for _, r := range rows {
				Expect(r.CreatorEmail).To(Equal(ana.Email))
			}
			Expect(rows).To(HaveLen(2))
		})

		It("shows every creator to an admin with the same filters", func() {
			filter := service.TicketFilter{TitleContains: "WAIT", Statuses: domain.Supplied[domain.TicketStatus]()}
			rows, err := h.query.ListTickets(ctx, ana, filter)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(BeEmpty())

			rows, err = h.query.ListTickets(ctx, admin, filter)
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(rows)).To(ConsistOf("bob waiting"))
		})
	})

	Describe("sorting", func() {
		It("sorts by title ascending on request", func() {
			rows, err := h.query.ListTickets(ctx, admin, service.TicketFilter{
				Statuses: domain.Supplied[domain.TicketStatus](),
				SortBy:   "title",
				Order:    "asc",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(rows)).To(Equal([]string{"ana closed", "ana open", "bob waiting"}))
		})

		It("falls back to newest first for unknown columns", func() {
			rows, err := h.query.ListTickets(ctx, admin, service.TicketFilter{
				Statuses: domain.Supplied[domain.TicketStatus](),
				SortBy:   "priority",
				Order:    "asc",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(rows)).To(Equal([]string{"bob waiting", "ana closed", "ana open"}))
		})
	})

	It("carries project progress in summaries", func() {
		project := h.createTicket(ana, "project", domain.TicketTypeProject, "A", "B")
		stages, _ := h.repos.Stages.ListByTicket(ctx, project.ID)
		_, err := h.tickets.UpdateStageStatus(ctx, admin, stages[1].ID, domain.StageStatusDone)
		Expect(err).NotTo(HaveOccurred())

		rows, err := h.query.ListTickets(ctx, ana, service.TicketFilter{TitleContains: "project"})
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].Progress).To(Equal(50.0))
	})
})

var _ = DescribeTable("ParseTicketSort",
	func(by, order string, want repository.TicketSort) {
		Expect(service.ParseTicketSort(by, order)).To(Equal(want))
	},
	Entry("absent", "", "", repository.DefaultTicketSort),
	Entry("unknown column", "owner", "asc", repository.DefaultTicketSort),
	Entry("urgency asc", "urgency", "asc", repository.TicketSort{Field: repository.SortByUrgency}),
	Entry("status default desc", "status", "", repository.TicketSort{Field: repository.SortByStatus, Descending: true}),
	Entry("mixed case", "Title", "ASC", repository.TicketSort{Field: repository.SortByTitle}),
)

var _ = Describe("BuildTicketQuery", func() {
	It("drops supplied but empty sets from the query", func() {
		q := service.BuildTicketQuery(admin, service.TicketFilter{
			Statuses:  domain.Supplied[domain.TicketStatus](),
			Urgencies: domain.Supplied[domain.Urgency](),
			Sectors:   domain.Supplied(domain.SectorHR),
		})
		Expect(q.Statuses).To(BeNil())
		Expect(q.Urgencies).To(BeNil())
		Expect(q.Sectors).To(Equal([]domain.Sector{domain.SectorHR}))
		Expect(q.CreatorEmail).To(BeNil())
	})

	It("defaults to open statuses and scopes non-admins to their email", func() {
		q := service.BuildTicketQuery(ana, service.TicketFilter{})
		Expect(q.Statuses).To(ConsistOf(domain.OpenTicketStatuses))
		Expect(q.CreatorEmail).To(HaveValue(Equal(ana.Email)))
	})
})
