// Package mataroa is a thin client for the mataroa.blog posts API.
//
// Every call authenticates with the caller's API key and makes at most
// one automatic retry, covering transient transport failures and 5xx
// responses. 4xx responses are never retried since replaying them
// cannot change the outcome.
package mataroa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mataroa-tools/matabot/internal/model"
)

var clientLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	clientLogger = l
}

// ErrUnavailable indicates the API could not be reached at all, even
// after the retry.
var ErrUnavailable = errors.New("publishing API unavailable")

// APIError is a non-2xx (or ok:false) response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error (status %d)", e.StatusCode)
}

// Client talks to the posts API. The zero value is not usable; use New.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// apiResponse is the envelope common to all API replies. Post fields
// are flattened into the same object on single-post endpoints.
type apiResponse struct {
	OK      *bool  `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`

	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	PublishedAt string `json:"published_at"`
	URL         string `json:"url"`

	PostList []model.Post `json:"post_list"`
}

func (r *apiResponse) post() model.Post {
	return model.Post{
		Slug:        r.Slug,
		Title:       r.Title,
		Body:        r.Body,
		PublishedAt: r.PublishedAt,
		URL:         r.URL,
	}
}

func (r *apiResponse) errMessage() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Message
}

// do performs one HTTP exchange with a single retry. It returns the
// parsed envelope; an empty body (204) parses to the zero envelope.
func (c *Client) do(ctx context.Context, apiKey, method, path string, payload any) (*apiResponse, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			clientLogger.Debug().Str("method", method).Str("path", path).Msg("Retrying API call")
		}
		resp, err := c.doOnce(ctx, apiKey, method, path, body)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// 4xx failures are final; only transport errors and 5xx get
		// the retry.
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			return nil, err
		}
		lastErr = err
	}
	var apiErr *APIError
	if errors.As(lastErr, &apiErr) {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *Client) doOnce(ctx context.Context, apiKey, method, path string, body []byte) (*apiResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	env := &apiResponse{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, env); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	if resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.errMessage()}
	}
	// Some endpoints report failure inside a 200 body.
	if env.OK != nil && !*env.OK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.errMessage()}
	}
	return env, nil
}

// Create makes a new post and returns it as reported by the API.
func (c *Client) Create(ctx context.Context, apiKey string, payload model.PostPayload) (model.Post, error) {
	env, err := c.do(ctx, apiKey, http.MethodPost, "", payload)
	if err != nil {
		return model.Post{}, err
	}
	p := env.post()
	if p.Title == "" {
		p.Title = payload.Title
	}
	if p.Body == "" {
		p.Body = payload.Body
	}
	return p, nil
}

// Get fetches a single post by slug.
func (c *Client) Get(ctx context.Context, apiKey, slug string) (model.Post, error) {
	env, err := c.do(ctx, apiKey, http.MethodGet, url.PathEscape(slug)+"/", nil)
	if err != nil {
		return model.Post{}, err
	}
	p := env.post()
	if p.Slug == "" {
		p.Slug = slug
	}
	return p, nil
}

// Update patches an existing post. The payload's PublishedAt pointer
// is serialized even when nil so the API sees an explicit null, which
// is how a post gets unpublished.
func (c *Client) Update(ctx context.Context, apiKey, slug string, payload model.PostPayload) (model.Post, error) {
	env, err := c.do(ctx, apiKey, http.MethodPatch, url.PathEscape(slug)+"/", payload)
	if err != nil {
		return model.Post{}, err
	}
	p := env.post()
	if p.Slug == "" {
		p.Slug = slug
	}
	return p, nil
}

// Delete removes a post by slug.
func (c *Client) Delete(ctx context.Context, apiKey, slug string) error {
	_, err := c.do(ctx, apiKey, http.MethodDelete, url.PathEscape(slug)+"/", nil)
	return err
}

// List fetches all of the user's posts.
func (c *Client) List(ctx context.Context, apiKey string) ([]model.Post, error) {
	env, err := c.do(ctx, apiKey, http.MethodGet, "", nil)
	if err != nil {
		return nil, err
	}
	return env.PostList, nil
}
