package http_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/support-portal/internal/api/dto"
	"github.com/spec-kit/support-portal/internal/domain"
)

type envelope[T any] struct {
	Data  T `json:"data"`
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

var _ = Describe("Router", func() {
	var (
		s          *server
		adminToken string
		anaToken   string
		bobToken   string
	)

	BeforeEach(func() {
		s = newServer()
		adminToken = s.token("root@example.com", "admin")
		anaToken = s.token("ana@example.com", "user")
		bobToken = s.token("bob@example.com", "user")
	})

	createTicket := func(token, title string, extra map[string][]string, files ...formFile) int64 {
		fields := map[string][]string{
			"title":       {title},
			"description": {"details"},
			"urgency":     {string(domain.UrgencyHigh)},
			"sector":      {string(domain.SectorIT)},
		}
		for k, v := range extra {
			fields[k] = v
		}
		var resp envelope[dto.IDResponse]
		status := s.do(multipartRequest(http.MethodPost, "/api/tickets", fields, files...), token, &resp)
		Expect(status).To(Equal(http.StatusCreated), resp.Error.Message)
		return resp.Data.ID
	}

	ticketPath := func(id int64) string {
		return "/api/tickets/" + strconv.FormatInt(id, 10)
	}

	It("serves liveness and readiness without a token", func() {
		Expect(s.do(httptest.NewRequest(http.MethodGet, "/health/live", nil), "", nil)).To(Equal(http.StatusOK))
		Expect(s.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil), "", nil)).To(Equal(http.StatusOK))
	})

	It("renders missing credentials in the error envelope", func() {
		var resp envelope[any]
		status := s.do(httptest.NewRequest(http.MethodGet, "/api/tickets", nil), "", &resp)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(resp.Error.Code).To(Equal("UNAUTHORIZED"))
	})

	It("keeps admin routes behind the admin role", func() {
		id := createTicket(anaToken, "Printer", nil)
		req := jsonRequest(http.MethodPatch, "/api/admin/tickets/"+strconv.FormatInt(id, 10), map[string]any{"status": domain.TicketStatusClosed})
		var resp envelope[any]
		Expect(s.do(req, anaToken, &resp)).To(Equal(http.StatusForbidden))
		Expect(resp.Error.Code).To(Equal("FORBIDDEN"))
	})

	It("creates a project with stage files and returns its detail", func() {
		id := createTicket(anaToken, "Rollout", map[string][]string{
			"ticket_type":      {string(domain.TicketTypeProject)},
			"stage_name[]":     {"Plan", "Ship"},
			"stage_deadline[]": {"2026-11-01", "not a date"},
		},
			formFile{field: "attachments[]", name: "brief.txt", content: "brief"},
			formFile{field: "stage_files_0[]", name: "plan.txt", content: "plan"},
		)

		var resp envelope[dto.TicketDetailResponse]
		Expect(s.do(httptest.NewRequest(http.MethodGet, ticketPath(id), nil), anaToken, &resp)).To(Equal(http.StatusOK))
		detail := resp.Data
		Expect(detail.TicketType).To(Equal(domain.TicketTypeProject))
		Expect(detail.Stages).To(HaveLen(2))
		Expect(detail.Stages[0].Deadline).NotTo(BeNil())
		Expect(detail.Stages[1].Deadline).To(BeNil())
		Expect(detail.Attachments).To(HaveLen(1))
		Expect(detail.Attachments[0].FileName).To(Equal("brief.txt"))
		Expect(detail.Progress).To(Equal(0.0))

		var scoped envelope[dto.TicketDetailResponse]
		target := ticketPath(id) + "?stage=" + strconv.FormatInt(detail.Stages[0].ID, 10)
		Expect(s.do(httptest.NewRequest(http.MethodGet, target, nil), anaToken, &scoped)).To(Equal(http.StatusOK))
		Expect(scoped.Data.Thread).To(HaveLen(1))
		Expect(scoped.Data.Thread[0].Attachments).To(HaveLen(1))
		Expect(scoped.Data.Stage).To(Equal(strconv.FormatInt(detail.Stages[0].ID, 10)))
	})

	It("distinguishes an absent status filter from an empty one", func() {
		createTicket(anaToken, "Open one", nil)
		closed := createTicket(anaToken, "Closed one", nil)
		req := jsonRequest(http.MethodPatch, "/api/admin/tickets/"+strconv.FormatInt(closed, 10), map[string]any{"status": domain.TicketStatusClosed})
		Expect(s.do(req, adminToken, nil)).To(Equal(http.StatusOK))

		var absent envelope[[]dto.TicketSummary]
		Expect(s.do(httptest.NewRequest(http.MethodGet, "/api/tickets", nil), anaToken, &absent)).To(Equal(http.StatusOK))
		Expect(absent.Data).To(HaveLen(1))

		var empty envelope[[]dto.TicketSummary]
		Expect(s.do(httptest.NewRequest(http.MethodGet, "/api/tickets?status=", nil), anaToken, &empty)).To(Equal(http.StatusOK))
		Expect(empty.Data).To(HaveLen(2))

		var others envelope[[]dto.TicketSummary]
		Expect(s.do(httptest.NewRequest(http.MethodGet, "/api/tickets?status=", nil), bobToken, &others)).To(Equal(http.StatusOK))
		Expect(others.Data).To(BeEmpty())
	})

	It("runs the validation workflow end to end", func() {
		id := createTicket(anaToken, "Access", nil)

		var comment envelope[any]
		req := jsonRequest(http.MethodPost, ticketPath(id)+"/interactions", map[string]any{"action_type": "request_validation", "text": "ok?"})
		Expect(s.do(req, anaToken, &comment)).To(Equal(http.StatusForbidden))

		var request envelope[dto.InteractionResponse]
		req = jsonRequest(http.MethodPost, ticketPath(id)+"/interactions", map[string]any{"action_type": "request_validation", "text": "ok?"})
		Expect(s.do(req, adminToken, &request)).To(Equal(http.StatusCreated))
		Expect(request.Data.ActionType).To(Equal(domain.ActionRequestValidation))

		validate := ticketPath(id) + "/validations/" + strconv.FormatInt(request.Data.ID, 10)
		var response envelope[dto.InteractionResponse]
		Expect(s.do(jsonRequest(http.MethodPost, validate, map[string]any{"decision": "approved"}), anaToken, &response)).To(Equal(http.StatusCreated))
		Expect(*response.Data.ParentID).To(Equal(request.Data.ID))

		var conflict envelope[any]
		Expect(s.do(jsonRequest(http.MethodPost, validate, map[string]any{"decision": "rejected"}), anaToken, &conflict)).To(Equal(http.StatusConflict))
		Expect(conflict.Error.Code).To(Equal("CONFLICT"))
	})

	It("lets only the owner and admins download attachments", func() {
		id := createTicket(anaToken, "Invoice", nil, formFile{field: "attachments", name: "invoice.pdf", content: "%PDF"})
		var detail envelope[dto.TicketDetailResponse]
		Expect(s.do(httptest.NewRequest(http.MethodGet, ticketPath(id), nil), anaToken, &detail)).To(Equal(http.StatusOK))
		Expect(detail.Data.Attachments).To(HaveLen(1))
		url := detail.Data.Attachments[0].URL

		Expect(s.do(httptest.NewRequest(http.MethodGet, url, nil), bobToken, nil)).To(Equal(http.StatusForbidden))

		req := httptest.NewRequest(http.MethodGet, url, nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		resp, err := s.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		body, _ := io.ReadAll(resp.Body)
		Expect(string(body)).To(Equal("%PDF"))
		Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring("invoice.pdf"))
	})

	It("rejects an oversize upload without creating the ticket", func() {
		fields := map[string][]string{
			"title":       {"Scan"},
			"description": {"details"},
			"urgency":     {string(domain.UrgencyLow)},
			"sector":      {string(domain.SectorIT)},
		}
		big := formFile{field: "attachments", name: "scan.tiff", content: strings.Repeat("x", 1<<20+1)}
		var resp envelope[any]
		Expect(s.do(multipartRequest(http.MethodPost, "/api/tickets", fields, big), anaToken, &resp)).To(Equal(http.StatusBadRequest))
		Expect(resp.Error.Code).To(Equal("VALIDATION_FAILED"))

		var listed envelope[[]dto.TicketSummary]
		Expect(s.do(httptest.NewRequest(http.MethodGet, "/api/tickets?status=", nil), anaToken, &listed)).To(Equal(http.StatusOK))
		Expect(listed.Data).To(BeEmpty())
	})

	It("lets admins delete a thread entry with its replies", func() {
		id := createTicket(anaToken, "Noise", nil)
		var root envelope[dto.InteractionResponse]
		Expect(s.do(jsonRequest(http.MethodPost, ticketPath(id)+"/interactions", map[string]any{"text": "spam"}), anaToken, &root)).To(Equal(http.StatusCreated))
		reply := map[string]any{"text": "noted", "parent_id": root.Data.ID}
		Expect(s.do(jsonRequest(http.MethodPost, ticketPath(id)+"/interactions", reply), adminToken, nil)).To(Equal(http.StatusCreated))

		target := "/api/admin/interactions/" + strconv.FormatInt(root.Data.ID, 10)
		Expect(s.do(httptest.NewRequest(http.MethodDelete, target, nil), anaToken, nil)).To(Equal(http.StatusForbidden))
		Expect(s.do(httptest.NewRequest(http.MethodDelete, target, nil), adminToken, nil)).To(Equal(http.StatusNoContent))

		var detail envelope[dto.TicketDetailResponse]
		Expect(s.do(httptest.NewRequest(http.MethodGet, ticketPath(id), nil), anaToken, &detail)).To(Equal(http.StatusOK))
		Expect(detail.Data.Thread).To(BeEmpty())
	})

	It("reports unknown routes as not found", func() {
		var resp envelope[any]
		Expect(s.do(httptest.NewRequest(http.MethodGet, "/nope", nil), "", &resp)).To(Equal(http.StatusNotFound))
		Expect(resp.Error.Code).To(Equal("NOT_FOUND"))
	})
})
