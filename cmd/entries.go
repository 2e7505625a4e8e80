package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/harvestctl/harvest"
	"github.com/Tiliavir/harvestctl/internal/timecalc"
)

var (
	entriesUser    int64
	entriesFrom    string
	entriesTo      string
	entriesProject int64
	entriesFormat  string
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List a person's time entries grouped by day",
	Args:  cobra.NoArgs,
	RunE:  runEntries,
}

var (
	dayStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7AA2F7"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	totalStyle = lipgloss.NewStyle().Bold(true)
)

func init() {
	entriesCmd.Flags().Int64Var(&entriesUser, "user", 0, "Person id (default: harvest.user_id from config)")
	entriesCmd.Flags().StringVar(&entriesFrom, "from", "", "Start date; required when --to is specified")
	entriesCmd.Flags().StringVar(&entriesTo, "to", "", "End date (default: today)")
	entriesCmd.Flags().Int64Var(&entriesProject, "project", 0, "Only entries of this project id")
	entriesCmd.Flags().StringVar(&entriesFormat, "format", "md", "Output format: md, csv, json")
}

// entryRow is one flattened entry with its project name resolved.
type entryRow struct {
	Date      string  `json:"date"`
	EntryID   int64   `json:"entry_id"`
	ProjectID int64   `json:"project_id"`
	Project   string  `json:"project"`
	TaskID    int64   `json:"task_id"`
	Notes     string  `json:"notes"`
	Hours     float64 `json:"hours"`
}

func runEntries(cmd *cobra.Command, args []string) error {
	from, to, err := timecalc.ResolveRange(entriesFrom, entriesTo, time.Now())
	if err != nil {
		return usageErr(err)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	user, err := resolveUser(entriesUser, s.cfg.Harvest.UserID)
	if err != nil {
		return err
	}

	grouped, err := s.client.EntriesForUser(cmd.Context(), user, from, to, entriesProject)
	if err != nil {
		return classify(err)
	}
	rows, err := entryRows(cmd.Context(), s.client, grouped)
	if err != nil {
		return classify(err)
	}
	return printEntries(cmd.OutOrStdout(), rows, entriesFormat)
}

func resolveUser(flag, configured int64) (int64, error) {
	switch {
	case flag > 0:
		return flag, nil
	case configured > 0:
		return configured, nil
	default:
		return 0, usageErr(errors.New("no person given: pass --user or set harvest.user_id in the config"))
	}
}

// projectNamer is the part of *harvest.Client used to label rows.
type projectNamer interface {
	ProjectName(ctx context.Context, projectID int64) (string, error)
}

// entryRows labels the flattened entries, resolving every project id once.
func entryRows(ctx context.Context, pn projectNamer, grouped harvest.GroupedEntries) ([]entryRow, error) {
	names := map[int64]string{}
	var rows []entryRow
	for _, e := range grouped.Flatten() {
		name, ok := names[e.ProjectID]
		if !ok {
			var err error
			if name, err = pn.ProjectName(ctx, e.ProjectID); err != nil {
				return nil, err
			}
			if name == "" {
				name = "#" + strconv.FormatInt(e.ProjectID, 10)
			}
			names[e.ProjectID] = name
		}
		rows = append(rows, entryRow{
			Date:      e.SpentAt,
			EntryID:   e.ID,
			ProjectID: e.ProjectID,
			Project:   name,
			TaskID:    e.TaskID,
			Notes:     e.Notes,
			Hours:     e.Hours,
		})
	}
	return rows, nil
}

func printEntries(w io.Writer, rows []entryRow, format string) error {
	switch format {
	case "json":
		if rows == nil {
			rows = []entryRow{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return runtimeErr(fmt.Errorf("error encoding JSON: %w", err))
		}
	case "csv":
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"date", "entry_id", "project_id", "project", "task_id", "notes", "hours"})
		for _, r := range rows {
			_ = cw.Write([]string{
				r.Date,
				strconv.FormatInt(r.EntryID, 10),
				strconv.FormatInt(r.ProjectID, 10),
				r.Project,
				strconv.FormatInt(r.TaskID, 10),
				r.Notes,
				strconv.FormatFloat(r.Hours, 'f', -1, 64),
			})
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return runtimeErr(err)
		}
	case "md", "":
		printEntriesList(w, rows)
	default:
		return usageErr(fmt.Errorf("unknown format %q (want md, csv or json)", format))
	}
	return nil
}

// printEntriesList prints one block per day with a per-day total.
func printEntriesList(w io.Writer, rows []entryRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No entries found.")
		return
	}

	var total, dayTotal float64
	for i, r := range rows {
		if i == 0 || rows[i-1].Date != r.Date {
			fmt.Fprintln(w, dayStyle.Render(dayLabel(r.Date)))
		}
		fmt.Fprintf(w, "  %-24s %-40s %s\n", r.Project, r.Notes, mutedStyle.Render(timecalc.FormatHours(r.Hours)))
		dayTotal += r.Hours
		total += r.Hours
		if i == len(rows)-1 || rows[i+1].Date != r.Date {
			fmt.Fprintf(w, "  %-65s %s\n\n", "Total", timecalc.FormatHours(dayTotal))
			dayTotal = 0
		}
	}
	fmt.Fprintln(w, totalStyle.Render("Total: "+timecalc.FormatHours(total)))
}

// dayLabel renders a spent-at date as "Thu, 26 Feb 2026".
func dayLabel(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format(harvest.SpentAtLayout)
}
