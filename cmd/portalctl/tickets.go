package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/bootstrap"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/service"
)

type ticketsOpts struct {
	configPath string
	as         string
	admin      bool
	statuses   []string
	urgencies  []string
	sectors    []string
	title      string
	sortBy     string
	order      string
	limit      int
}

func newTicketsCmd() *cobra.Command {
	var opts ticketsOpts

	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "List tickets as a given user",
		Long: "Lists tickets through the same role-scoped query the API uses. Without --status only " +
			"open work is shown; pass --status '' to list every status.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := service.TicketFilter{
				Statuses:      flagSet[domain.TicketStatus](cmd, "status", opts.statuses),
				Urgencies:     flagSet[domain.Urgency](cmd, "urgency", opts.urgencies),
				Sectors:       flagSet[domain.Sector](cmd, "sector", opts.sectors),
				TitleContains: opts.title,
				SortBy:        opts.sortBy,
				Order:         opts.order,
				Limit:         opts.limit,
			}
			return runTickets(cmd, opts, filter)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	cmd.Flags().StringVar(&opts.as, "as", "", "email of the acting user (required)")
	cmd.Flags().BoolVar(&opts.admin, "admin", false, "act with the admin role")
	cmd.Flags().StringSliceVar(&opts.statuses, "status", nil, "filter by status")
	cmd.Flags().StringSliceVar(&opts.urgencies, "urgency", nil, "filter by urgency")
	cmd.Flags().StringSliceVar(&opts.sectors, "sector", nil, "filter by sector")
	cmd.Flags().StringVar(&opts.title, "title", "", "case-insensitive title substring")
	cmd.Flags().StringVar(&opts.sortBy, "sort", "", "sort column (created_at, title, urgency, status, sector)")
	cmd.Flags().StringVar(&opts.order, "order", "", "asc or desc")
	cmd.Flags().IntVar(&opts.limit, "limit", 50, "maximum rows")
	cmd.MarkFlagRequired("as")
	return cmd
}

// flagSet turns a slice flag into a filter set: unset flags are absent, set
// flags are supplied even when empty.
func flagSet[T ~string](cmd *cobra.Command, name string, raw []string) domain.ValueSet[T] {
	if !cmd.Flags().Changed(name) {
		return domain.Absent[T]()
	}
	var values []T
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, T(v))
		}
	}
	return domain.Supplied(values...)
}

func runTickets(cmd *cobra.Command, opts ticketsOpts, filter service.TicketFilter) error {
	cfg, logger, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	store, err := bootstrap.OpenStore(ctx, cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer store.Close()

	roles := []domain.Role{domain.RoleUser}
	if opts.admin {
		roles = append(roles, domain.RoleAdmin)
	}
	actor := domain.NewActor(opts.as, roles...)

	rows, err := service.NewQueryService(store.Repos, logger).ListTickets(ctx, actor, filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No tickets found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tURGENCY\tSECTOR\tCREATOR\tPROGRESS")
	for _, row := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%.0f%%\n",
			row.ID, truncate(row.Title, 40), row.Status, row.Urgency, row.Sector, row.CreatorEmail, row.Progress)
	}
	return w.Flush()
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
