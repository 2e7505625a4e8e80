package harvest

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/antchfx/xmlquery"
)

// Directory is a parsed list resource (projects, clients or people).
// Records are looked up by their <id> child.
type Directory struct {
	doc *xmlquery.Node
}

func parseDirectory(body []byte) (*Directory, error) {
	doc, err := parseXML(body)
	if err != nil {
		return nil, err
	}
	return &Directory{doc: doc}, nil
}

// parseXML rejects bodies that are not well-formed or carry no element at
// all, such as an empty body or plain text.
func parseXML(body []byte) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if root, _ := xmlquery.Query(doc, "/*"); root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrParse)
	}
	return doc, nil
}

// Doc returns the underlying document for ad hoc XPath queries.
func (d *Directory) Doc() *xmlquery.Node {
	return d.doc
}

// Lookup finds the first record whose <id> equals id and returns the text
// of its sibling element field. ok is false when nothing matches.
func (d *Directory) Lookup(id int64, field string) (value string, ok bool) {
	expr := fmt.Sprintf(`//id[text()="%s"]/../%s`, strconv.FormatInt(id, 10), field)
	n, err := xmlquery.Query(d.doc, expr)
	if err != nil || n == nil {
		return "", false
	}
	return n.InnerText(), true
}

func (c *Client) directory(ctx context.Context, key, path string) (*Directory, error) {
	base, err := c.APIURL()
	if err != nil {
		return nil, err
	}
	var dir *Directory
	accept := func(body []byte) (err error) {
		dir, err = parseDirectory(body)
		return err
	}
	if _, err := c.cachedGet(ctx, key, base+path, accept); err != nil {
		return nil, err
	}
	return dir, nil
}

// AllProjects returns the project directory, cached under "harvest_projects".
func (c *Client) AllProjects(ctx context.Context) (*Directory, error) {
	return c.directory(ctx, projectsCacheKey, "projects")
}

// AllClients returns the client directory, cached under "harvest_clients".
func (c *Client) AllClients(ctx context.Context) (*Directory, error) {
	return c.directory(ctx, clientsCacheKey, "clients")
}

// AllUsers returns the people directory, cached under "harvest_users".
func (c *Client) AllUsers(ctx context.Context) (*Directory, error) {
	return c.directory(ctx, usersCacheKey, "people")
}

// UserName returns "first last" for userID, or "" when no user matches.
// Results are memoized for the lifetime of the client.
func (c *Client) UserName(ctx context.Context, userID int64) (string, error) {
	c.mu.Lock()
	name, ok := c.userNames[userID]
	c.mu.Unlock()
	if ok {
		return name, nil
	}

	users, err := c.AllUsers(ctx)
	if err != nil {
		return "", err
	}
	first, okFirst := users.Lookup(userID, "first-name")
	last, okLast := users.Lookup(userID, "last-name")
	if okFirst || okLast {
		name = first + " " + last
	}

	c.mu.Lock()
	c.userNames[userID] = name
	c.mu.Unlock()
	return name, nil
}

// ProjectName returns the project's name, or "" when no project matches.
func (c *Client) ProjectName(ctx context.Context, projectID int64) (string, error) {
	projects, err := c.AllProjects(ctx)
	if err != nil {
		return "", err
	}
	name, _ := projects.Lookup(projectID, "name")
	return name, nil
}

// IsBillable reports whether the project's billable flag reads "true".
func (c *Client) IsBillable(ctx context.Context, projectID int64) (bool, error) {
	projects, err := c.AllProjects(ctx)
	if err != nil {
		return false, err
	}
	billable, _ := projects.Lookup(projectID, "billable")
	return billable == "true", nil
}

// ClientName returns the client's name, or "" when no client matches.
func (c *Client) ClientName(ctx context.Context, clientID int64) (string, error) {
	clients, err := c.AllClients(ctx)
	if err != nil {
		return "", err
	}
	name, _ := clients.Lookup(clientID, "name")
	return name, nil
}
