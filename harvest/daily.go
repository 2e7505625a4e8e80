package harvest

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/Tiliavir/harvestctl/internal/timecalc"
)

// SpentAtLayout is the date format Harvest expects in <spent_at>.
const SpentAtLayout = "Mon, 02 Jan 2006"

type addRequest struct {
	XMLName   xml.Name `xml:"request"`
	Notes     string   `xml:"notes"`
	Hours     string   `xml:"hours"`
	ProjectID int64    `xml:"project_id"`
	TaskID    int64    `xml:"task_id"`
	SpentAt   string   `xml:"spent_at"`
}

type updateRequest struct {
	XMLName xml.Name `xml:"request"`
	Hours   string   `xml:"hours"`
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// DailyAdd creates a time entry and returns the raw response body. date is
// parsed permissively (see timecalc.ParseDate); an unparseable date fails
// with ErrInvalidDate before any request is made.
func (c *Client) DailyAdd(ctx context.Context, notes string, hours float64, projectID, taskID int64, date string) ([]byte, error) {
	spent, err := timecalc.ParseDate(date, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidDate, date, err)
	}

	body, err := xml.Marshal(addRequest{
		Notes:     notes,
		Hours:     formatHours(hours),
		ProjectID: projectID,
		TaskID:    taskID,
		SpentAt:   spent.Format(SpentAtLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	base, err := c.APIURL()
	if err != nil {
		return nil, err
	}
	return c.post(ctx, base+"daily/add", body)
}

// DailyUpdateHours sets the hours of an existing entry and returns the raw
// response body.
func (c *Client) DailyUpdateHours(ctx context.Context, id int64, hours float64) ([]byte, error) {
	body, err := xml.Marshal(updateRequest{Hours: formatHours(hours)})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	base, err := c.APIURL()
	if err != nil {
		return nil, err
	}
	return c.post(ctx, fmt.Sprintf("%sdaily/update/%d", base, id), body)
}
