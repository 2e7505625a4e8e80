package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/harvestctl/harvest"
	"github.com/Tiliavir/harvestctl/internal/timecalc"
)

var (
	reportUser   int64
	reportWeek   bool
	reportFrom   string
	reportTo     string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show hours per project for a person",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().Int64Var(&reportUser, "user", 0, "Person id (default: harvest.user_id from config)")
	reportCmd.Flags().BoolVar(&reportWeek, "week", false, "Report for this week (default)")
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "Start date; required when --to is specified")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "End date (default: today)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
	reportCmd.MarkFlagsMutuallyExclusive("week", "from")
	reportCmd.MarkFlagsMutuallyExclusive("week", "to")
}

// projectTotal is the aggregated time of one project.
type projectTotal struct {
	ProjectID int64   `json:"project_id"`
	Project   string  `json:"project"`
	Billable  bool    `json:"billable"`
	Hours     float64 `json:"hours"`
	Entries   int     `json:"entries"`
}

type report struct {
	From          string         `json:"from"`
	To            string         `json:"to"`
	Label         string         `json:"label,omitempty"`
	Projects      []projectTotal `json:"projects"`
	TotalHours    float64        `json:"total_hours"`
	BillableHours float64        `json:"billable_hours"`
}

// projectInfo is the part of *harvest.Client a report needs.
type projectInfo interface {
	projectNamer
	IsBillable(ctx context.Context, projectID int64) (bool, error)
}

func runReport(cmd *cobra.Command, args []string) error {
	now := time.Now()
	from, to, err := timecalc.ResolveRange(reportFrom, reportTo, now)
	if err != nil {
		return usageErr(err)
	}
	label := ""
	if reportFrom == "" {
		label = "Week " + timecalc.ISOWeekLabel(now)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	user, err := resolveUser(reportUser, s.cfg.Harvest.UserID)
	if err != nil {
		return err
	}

	grouped, err := s.client.EntriesForUser(cmd.Context(), user, from, to, 0)
	if err != nil {
		return classify(err)
	}
	rep, err := buildReport(cmd.Context(), s.client, grouped.Flatten())
	if err != nil {
		return classify(err)
	}
	rep.From = from.Format("2006-01-02")
	rep.To = to.Format("2006-01-02")
	rep.Label = label
	return printReport(cmd.OutOrStdout(), rep, reportFormat)
}

// buildReport sums hours per project, ordered by project id, and looks up
// name and billable flag once per project.
func buildReport(ctx context.Context, pi projectInfo, entries []harvest.DayEntry) (report, error) {
	byProject := map[int64]*projectTotal{}
	for _, e := range entries {
		t, ok := byProject[e.ProjectID]
		if !ok {
			t = &projectTotal{ProjectID: e.ProjectID}
			byProject[e.ProjectID] = t
		}
		t.Hours += e.Hours
		t.Entries++
	}

	rep := report{Projects: make([]projectTotal, 0, len(byProject))}
	for id, t := range byProject {
		name, err := pi.ProjectName(ctx, id)
		if err != nil {
			return report{}, err
		}
		if name == "" {
			name = "#" + strconv.FormatInt(id, 10)
		}
		billable, err := pi.IsBillable(ctx, id)
		if err != nil {
			return report{}, err
		}
		t.Project = name
		t.Billable = billable
		rep.Projects = append(rep.Projects, *t)
		rep.TotalHours += t.Hours
		if billable {
			rep.BillableHours += t.Hours
		}
	}
	sort.Slice(rep.Projects, func(i, j int) bool { return rep.Projects[i].ProjectID < rep.Projects[j].ProjectID })
	return rep, nil
}

func printReport(w io.Writer, rep report, format string) error {
	switch format {
	case "csv":
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"project_id", "project", "billable", "hours", "entries"})
		for _, p := range rep.Projects {
			_ = cw.Write([]string{
				strconv.FormatInt(p.ProjectID, 10),
				p.Project,
				strconv.FormatBool(p.Billable),
				strconv.FormatFloat(p.Hours, 'f', -1, 64),
				strconv.Itoa(p.Entries),
			})
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return runtimeErr(err)
		}
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return runtimeErr(fmt.Errorf("error encoding JSON: %w", err))
		}
	case "md", "":
		title := rep.Label
		if title == "" {
			title = rep.From + " – " + rep.To
		}
		fmt.Fprintln(w, dayStyle.Render(title))
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, p := range rep.Projects {
			mark := " "
			if p.Billable {
				mark = "$"
			}
			fmt.Fprintf(w, "%s %-28s%s\n", mark, p.Project, timecalc.FormatHours(p.Hours))
		}
		fmt.Fprintln(w, "--------------------------------------------------")
		fmt.Fprintf(w, "  %-28s%s\n", "Billable", timecalc.FormatHours(rep.BillableHours))
		fmt.Fprintln(w, totalStyle.Render(fmt.Sprintf("  %-28s%s", "Total", timecalc.FormatHours(rep.TotalHours))))
	default:
		return usageErr(fmt.Errorf("unknown format %q (want md, csv or json)", format))
	}
	return nil
}
