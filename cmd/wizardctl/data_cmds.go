package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goliatone/go-wizard/api"
	"github.com/goliatone/go-wizard/draft"
	"github.com/goliatone/go-wizard/validation"
)

const timeLayout = "2006-01-02 15:04"

type draftsCmd struct {
	List   draftsListCmd   `cmd:"" help:"List saved drafts."`
	Show   draftsShowCmd   `cmd:"" help:"Print a draft's form data."`
	Delete draftsDeleteCmd `cmd:"" help:"Delete a draft."`
	Purge  draftsPurgeCmd  `cmd:"" help:"Delete drafts not saved within a window."`
}

type draftsListCmd struct {
	Wizard string `help:"Only drafts of this wizard."`
	JSON   bool   `help:"Print JSON."`
}

func (c *draftsListCmd) Run(e *env) error {
	repo, err := e.drafts()
	if err != nil {
		return err
	}
	recs, err := repo.List(e.ctx, c.Wizard)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(e.out, recs)
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tWIZARD\tSAVED\tCHECKSUM")
	for _, rec := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rec.EntityID, rec.WizardID, rec.LastSavedAt.Local().Format(timeLayout), shortSum(rec.Checksum))
	}
	return tw.Flush()
}

type draftsShowCmd struct {
	EntityID string `arg:"" help:"Draft id."`
}

func (c *draftsShowCmd) Run(e *env) error {
	repo, err := e.drafts()
	if err != nil {
		return err
	}
	rec, err := repo.Get(e.ctx, c.EntityID)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("draft %s not found", c.EntityID)
	}
	return writeJSON(e.out, rec)
}

type draftsDeleteCmd struct {
	EntityID string `arg:"" help:"Draft id."`
}

func (c *draftsDeleteCmd) Run(e *env) error {
	repo, err := e.drafts()
	if err != nil {
		return err
	}
	if err := repo.Delete(e.ctx, c.EntityID); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "deleted %s\n", c.EntityID)
	return nil
}

type draftsPurgeCmd struct {
	OlderThan time.Duration `name:"older-than" help:"Window, defaults to drafts.retention."`
}

func (c *draftsPurgeCmd) Run(e *env) error {
	window := c.OlderThan
	if window <= 0 {
		window = e.cfg.Drafts.Retention
	}
	repo, err := e.drafts()
	if err != nil {
		return err
	}
	sweeper, err := draft.NewSweeper(repo, window, draft.WithSweepLogger(e.logger), draft.WithSweepClock(e.now))
	if err != nil {
		return err
	}
	n, err := sweeper.Sweep(e.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "purged %d drafts\n", n)
	return nil
}

type sweepCmd struct {
	Watch bool `help:"Keep running and sweep on drafts.schedule."`
}

func (c *sweepCmd) CLIOptions() cliConfig {
	return cliConfig{Name: "sweep", Description: "Purge drafts older than drafts.retention.", Group: "Drafts"}
}

func (c *sweepCmd) Run(e *env) error {
	repo, err := e.drafts()
	if err != nil {
		return err
	}
	loc, err := e.cfg.Drafts.Location()
	if err != nil {
		return err
	}
	sweeper, err := draft.NewSweeper(repo, e.cfg.Drafts.Retention,
		draft.WithSchedule(e.cfg.Drafts.Schedule),
		draft.WithLocation(loc),
		draft.WithSweepLogger(e.logger),
		draft.WithSweepClock(e.now),
	)
	if err != nil {
		return err
	}
	if !c.Watch {
		n, err := sweeper.Sweep(e.ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "purged %d drafts\n", n)
		return nil
	}

	if err := sweeper.Start(e.ctx); err != nil {
		return err
	}
	defer sweeper.Stop()
	fmt.Fprintf(e.out, "sweeping on %q, next run %s\n", e.cfg.Drafts.Schedule, sweeper.Next().Format(time.RFC3339))
	<-e.ctx.Done()
	return nil
}

type pageFlags struct {
	Search   string `help:"Case insensitive text search."`
	Sort     string `help:"Sort keys, comma separated, prefix with - for descending."`
	Page     int    `default:"1" help:"Page number."`
	PageSize int    `name:"page-size" default:"20" help:"Rows per page, 0 for all."`
	JSON     bool   `help:"Print JSON."`
}

type timesheetsCmd struct {
	Status string    `help:"Only timesheets with this status."`
	Worker string    `help:"Only this support worker id."`
	From   time.Time `format:"2006-01-02" help:"Earliest date (YYYY-MM-DD)."`
	To     time.Time `format:"2006-01-02" help:"Latest date (YYYY-MM-DD)."`
	Paging pageFlags `embed:""`
}

func (c *timesheetsCmd) CLIOptions() cliConfig {
	return cliConfig{Name: "timesheets", Description: "List timesheets of the organisation.", Group: "Backend"}
}

func (c *timesheetsCmd) Run(e *env) error {
	client, err := e.api()
	if err != nil {
		return err
	}
	items, err := client.Timesheets(e.ctx, api.TimesheetQuery{OrganizationID: e.cfg.Actor.OrganizationID})
	if err != nil {
		return err
	}
	to := c.To
	if !to.IsZero() {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	page := api.FilterTimesheets(items, api.TimesheetFilter{
		Status:   c.Status,
		WorkerID: c.Worker,
		From:     c.From,
		To:       to,
		Search:   c.Paging.Search,
		SortBy:   c.Paging.Sort,
		Page:     c.Paging.Page,
		PageSize: c.Paging.PageSize,
	})
	if c.Paging.JSON {
		return writeJSON(e.out, page)
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tWORKER\tPARTICIPANT\tHOURS\tSTATUS")
	for _, ts := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", ts.Date.Format(validation.DateLayout), ts.WorkerName, ts.ParticipantName, formatHours(ts.Hours), ts.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "page %d/%d, %d timesheets\n", page.Page, page.Pages, page.Total)
	return nil
}

type adminsCmd struct {
	Role   string    `help:"Only admins with this role."`
	Active bool      `help:"Only active admins."`
	Paging pageFlags `embed:""`
}

func (c *adminsCmd) CLIOptions() cliConfig {
	return cliConfig{Name: "admins", Description: "List organisation administrators.", Group: "Backend"}
}

func (c *adminsCmd) Run(e *env) error {
	client, err := e.api()
	if err != nil {
		return err
	}
	items, err := client.Admins(e.ctx)
	if err != nil {
		return err
	}
	page := api.FilterAdmins(items, api.AdminFilter{
		Role:       c.Role,
		ActiveOnly: c.Active,
		Search:     c.Paging.Search,
		SortBy:     c.Paging.Sort,
		Page:       c.Paging.Page,
		PageSize:   c.Paging.PageSize,
	})
	if c.Paging.JSON {
		return writeJSON(e.out, page)
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEMAIL\tROLE\tACTIVE")
	for _, a := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Name(), a.Email, a.Role, yesNo(a.Active))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "page %d/%d, %d admins\n", page.Page, page.Pages, page.Total)
	return nil
}

type invitesCmd struct {
	List    invitesListCmd    `cmd:"" default:"withargs" help:"List pending invites."`
	Process invitesProcessCmd `cmd:"" help:"Accept or decline an invite."`
}

type invitesListCmd struct {
	JSON bool `help:"Print JSON."`
}

func (c *invitesListCmd) Run(e *env) error {
	client, err := e.api()
	if err != nil {
		return err
	}
	invites, err := client.Invites(e.ctx)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(e.out, invites)
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tORGANISATION\tROLE\tINVITED BY\tEXPIRES")
	for _, inv := range invites {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", inv.ID, inv.OrganizationName, inv.Role, inv.InvitedByName, inv.ExpiresAt.Local().Format(timeLayout))
	}
	return tw.Flush()
}

type invitesProcessCmd struct {
	ID     string `arg:"" help:"Invite id."`
	Action string `arg:"" enum:"accept,decline" help:"accept or decline."`
}

func (c *invitesProcessCmd) Run(e *env) error {
	client, err := e.api()
	if err != nil {
		return err
	}
	invites, err := client.Invites(e.ctx)
	if err != nil {
		return err
	}
	for _, inv := range invites {
		if inv.ID != c.ID {
			continue
		}
		res, err := client.ProcessInvite(e.ctx, inv, c.Action)
		if err != nil {
			return err
		}
		msg := res.Message
		if msg == "" {
			msg = "invite " + strings.TrimSuffix(c.Action, "e") + "ed"
		}
		fmt.Fprintln(e.out, msg)
		return nil
	}
	return fmt.Errorf("invite %s not found", c.ID)
}

type exportCmd struct {
	Format string `arg:"" default:"csv" help:"Export format, e.g. csv or pdf."`
	Out    string `short:"o" default:"." type:"path" help:"Directory to write the file to."`
}

func (c *exportCmd) CLIOptions() cliConfig {
	return cliConfig{Name: "export", Description: "Download an organisation export.", Group: "Backend"}
}

func (c *exportCmd) Run(e *env) error {
	client, err := e.api()
	if err != nil {
		return err
	}
	exp, err := client.Export(e.ctx, c.Format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Out, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(c.Out, exp.Filename)
	if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(e.out, "wrote %s (%s, %d bytes)\n", path, exp.ContentType, len(exp.Data))
	return nil
}

type analyticsCmd struct {
	JSON bool `help:"Print JSON."`
}

func (c *analyticsCmd) CLIOptions() cliConfig {
	return cliConfig{Name: "analytics", Description: "Show the organisation dashboard summary.", Group: "Backend"}
}

func (c *analyticsCmd) Run(e *env) error {
	client, err := e.api()
	if err != nil {
		return err
	}
	a, err := client.Analytics(e.ctx, e.cfg.Actor.OrganizationID)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(e.out, a)
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Active workers\t%d\n", a.ActiveWorkers)
	fmt.Fprintf(tw, "Active participants\t%d\n", a.ActiveParticipants)
	fmt.Fprintf(tw, "Shifts this week\t%d\n", a.ShiftsThisWeek)
	fmt.Fprintf(tw, "Hours this week\t%s\n", formatHours(a.HoursThisWeek))
	fmt.Fprintf(tw, "Open incidents\t%d\n", a.OpenIncidents)
	for _, status := range sortedKeys(a.ShiftsByStatus) {
		fmt.Fprintf(tw, "Shifts %s\t%d\n", strings.ReplaceAll(status, "_", " "), a.ShiftsByStatus[status])
	}
	return tw.Flush()
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.2f", h)
}

func shortSum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
