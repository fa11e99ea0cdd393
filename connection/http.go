package connection

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const userAgent = "fedisync/1.0"

// jsonClient is the shared HTTP plumbing of all adapters: one base
// URL, bearer auth, a client-side rate limiter and uniform error
// classification.
type jsonClient struct {
	baseURL string
	creds   Credentials
	client  *http.Client
	limiter *rate.Limiter
}

func newJSONClient(baseURL string, creds Credentials) *jsonClient {
	return &jsonClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		creds:   creds,
		client:  &http.Client{Timeout: 30 * time.Second},
		// One request per second with a small burst keeps us well
		// under every origin's documented limits.
		limiter: rate.NewLimiter(rate.Limit(1), 5),
	}
}

func (c *jsonClient) getJSON(path string, query url.Values, out any) error {
	u := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		u = c.baseURL + path
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return NewHardError("failed to create request", err)
	}
	return c.do(req, out)
}

func (c *jsonClient) postForm(path string, form url.Values, out any) error {
	req, err := http.NewRequest("POST", c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return NewHardError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *jsonClient) postJSON(path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return NewHardError("failed to encode request body", err)
	}
	req, err := http.NewRequest("POST", c.baseURL+path, strings.NewReader(string(payload)))
	if err != nil {
		return NewHardError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *jsonClient) do(req *http.Request, out any) error {
	if err := c.limiter.Wait(context.Background()); err != nil {
		return NewSoftError("rate limiter interrupted", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.creds.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.creds.AccessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return NewSoftError("request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewSoftError("failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return errorFromStatus(resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return NewHardError("malformed JSON response", err)
	}
	return nil
}
