package harvest

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"time"
)

// RangeLayout formats the from/to query parameters.
const RangeLayout = "20060102"

// DayEntry is one logged time record. Timer, timestamp, closed and
// adjustment fields sent by the server are not decoded.
type DayEntry struct {
	ID        int64   `xml:"id" json:"id"`
	UserID    int64   `xml:"user-id" json:"user_id"`
	SpentAt   string  `xml:"spent-at" json:"spent_at"`
	ProjectID int64   `xml:"project-id" json:"project_id"`
	TaskID    int64   `xml:"task-id" json:"task_id"`
	Notes     string  `xml:"notes" json:"notes"`
	Hours     float64 `xml:"hours" json:"hours"`
}

type dayEntries struct {
	Entries []DayEntry `xml:",any"`
}

// GroupedEntries maps date → project id → notes → entry.
type GroupedEntries map[string]map[int64]map[string]DayEntry

// GroupEntries folds entries into a GroupedEntries. Two entries sharing
// date, project and notes yield a *DuplicateEntryError.
func GroupEntries(entries []DayEntry) (GroupedEntries, error) {
	g := GroupedEntries{}
	for _, e := range entries {
		byProject, ok := g[e.SpentAt]
		if !ok {
			byProject = map[int64]map[string]DayEntry{}
			g[e.SpentAt] = byProject
		}
		byNotes, ok := byProject[e.ProjectID]
		if !ok {
			byNotes = map[string]DayEntry{}
			byProject[e.ProjectID] = byNotes
		}
		if _, dup := byNotes[e.Notes]; dup {
			return nil, &DuplicateEntryError{Date: e.SpentAt, ProjectID: e.ProjectID, Notes: e.Notes}
		}
		byNotes[e.Notes] = e
	}
	return g, nil
}

// Dates returns the grouped dates in ascending order.
func (g GroupedEntries) Dates() []string {
	dates := make([]string, 0, len(g))
	for d := range g {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Flatten returns all entries ordered by date, project id and notes.
func (g GroupedEntries) Flatten() []DayEntry {
	var out []DayEntry
	for _, d := range g.Dates() {
		projects := make([]int64, 0, len(g[d]))
		for p := range g[d] {
			projects = append(projects, p)
		}
		sort.Slice(projects, func(i, j int) bool { return projects[i] < projects[j] })
		for _, p := range projects {
			notes := make([]string, 0, len(g[d][p]))
			for n := range g[d][p] {
				notes = append(notes, n)
			}
			sort.Strings(notes)
			for _, n := range notes {
				out = append(out, g[d][p][n])
			}
		}
	}
	return out
}

// parseEntries decodes the root element and then requires the rest of the
// body to hold nothing but whitespace, comments or processing instructions.
func parseEntries(body []byte) ([]DayEntry, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var doc dayEntries
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return doc.Entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("%w: text after root element", ErrParse)
			}
		default:
			return nil, fmt.Errorf("%w: content after root element", ErrParse)
		}
	}
}

func rangeQuery(from, to time.Time, key string, id int64) string {
	q := "from=" + from.Format(RangeLayout) + "&to=" + to.Format(RangeLayout)
	if id != 0 {
		q += "&" + key + "=" + url.QueryEscape(strconv.FormatInt(id, 10))
	}
	return q
}

// EntriesForUser fetches the user's entries in [from, to], optionally
// limited to one project (projectID 0 means all), and groups them. The
// result is never cached.
func (c *Client) EntriesForUser(ctx context.Context, userID int64, from, to time.Time, projectID int64) (GroupedEntries, error) {
	base, err := c.APIURL()
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%speople/%d/entries?%s", base, userID, rangeQuery(from, to, "project_id", projectID))

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	entries, err := parseEntries(body)
	if err != nil {
		return nil, err
	}
	return GroupEntries(entries)
}

// EntriesForProject returns the raw entries body for a project in
// [from, to], optionally limited to one user (userID 0 means all). Unlike
// EntriesForUser the body is cached and returned unparsed.
func (c *Client) EntriesForProject(ctx context.Context, projectID int64, from, to time.Time, userID int64) ([]byte, error) {
	base, err := c.APIURL()
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%sprojects/%d/entries?%s", base, projectID, rangeQuery(from, to, "user_id", userID))
	return c.cachedGet(ctx, projectEntriesCacheKey(projectID, from, to, userID), u, nil)
}

func projectEntriesCacheKey(projectID int64, from, to time.Time, userID int64) string {
	user := ""
	if userID != 0 {
		user = strconv.FormatInt(userID, 10)
	}
	return fmt.Sprintf("harvest_getEntriesForProject_%d_%s_%s_%s",
		projectID, from.Format(RangeLayout), to.Format(RangeLayout), user)
}
