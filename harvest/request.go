package harvest

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/apex/log"
)

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, url, body)
}

// authorization returns the basic auth header value. It is empty when a
// token source handles authentication.
func (c *Client) authorization() (string, error) {
	if c.tokenSource != nil {
		return "", nil
	}
	if c.email == "" {
		return "", fmt.Errorf("%w: no email configured", ErrAuthConfig)
	}
	if c.password == "" {
		return "", fmt.Errorf("%w: no password configured", ErrAuthConfig)
	}
	creds := base64.StdEncoding.EncodeToString([]byte(c.email + ":" + c.password))
	return "Basic " + creds, nil
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	auth, err := c.authorization()
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("User-Agent", c.userAgent)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: fmt.Errorf("reading response body: %w", err)}
	}

	log.WithFields(log.Fields{
		"method": method,
		"url":    url,
		"status": resp.StatusCode,
	}).Debug("harvest request")

	if c.statusPolicy == StatusStrict && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return nil, &StatusError{Method: method, URL: url, StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}
