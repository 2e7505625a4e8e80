package harvest_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/Tiliavir/harvestctl/harvest"
)

// request is what the fake server saw.
type request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// fakeHarvest serves canned bodies keyed by path below /{account}/.
type fakeHarvest struct {
	t      *testing.T
	srv    *httptest.Server
	mu     sync.Mutex
	routes map[string]string
	status int
	seen   []request
}

func newFakeHarvest(t *testing.T, routes map[string]string) *fakeHarvest {
	t.Helper()
	f := &fakeHarvest{t: t, routes: routes, status: http.StatusOK}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeHarvest) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, "/acme/")

	f.mu.Lock()
	f.seen = append(f.seen, request{
		Method: r.Method,
		Path:   path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
	status := f.status
	resp, ok := f.routes[path]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp)
}

func (f *fakeHarvest) requests() []request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]request(nil), f.seen...)
}

func (f *fakeHarvest) hits(path string) int {
	n := 0
	for _, r := range f.requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

func (f *fakeHarvest) client(opts ...harvest.Option) *harvest.Client {
	opts = append([]harvest.Option{harvest.WithURLTemplate(f.srv.URL + "/%s/")}, opts...)
	return harvest.New("jane@example.com", "s3cret", "acme", opts...)
}

const projectsXML = `<?xml version="1.0" encoding="UTF-8"?>
<projects type="array">
  <project>
    <id type="integer">101</id>
    <name>Website Relaunch</name>
    <billable type="boolean">true</billable>
    <client-id type="integer">7</client-id>
  </project>
  <project>
    <id type="integer">102</id>
    <name>Internal</name>
    <billable type="boolean">false</billable>
    <client-id type="integer">8</client-id>
  </project>
  <project>
    <id type="integer">103</id>
    <name>Legacy</name>
  </project>
</projects>`

const clientsXML = `<?xml version="1.0" encoding="UTF-8"?>
<clients type="array">
  <client>
    <id type="integer">7</id>
    <name>Acme Corp</name>
  </client>
  <client>
    <id type="integer">8</id>
    <name>In-house</name>
  </client>
</clients>`

const usersXML = `<?xml version="1.0" encoding="UTF-8"?>
<users type="array">
  <user>
    <id type="integer">42</id>
    <first-name>Jane</first-name>
    <last-name>Doe</last-name>
  </user>
  <user>
    <id type="integer">43</id>
    <first-name>John</first-name>
    <last-name>Roe</last-name>
  </user>
</users>`

func dayEntryXML(id, project int, date, notes, hours string) string {
	return `<day_entry>
    <id type="integer">` + strconv.Itoa(id) + `</id>
    <user-id type="integer">42</user-id>
    <spent-at type="date">` + date + `</spent-at>
    <project-id type="integer">` + strconv.Itoa(project) + `</project-id>
    <task-id type="integer">5</task-id>
    <notes>` + notes + `</notes>
    <hours type="float">` + hours + `</hours>
    <timer-started-at type="datetime"></timer-started-at>
    <created-at type="datetime">2026-02-27T09:00:00Z</created-at>
    <updated-at type="datetime">2026-02-27T09:00:00Z</updated-at>
    <is-closed type="boolean">false</is-closed>
    <adjustment-record type="boolean">false</adjustment-record>
  </day_entry>`
}
