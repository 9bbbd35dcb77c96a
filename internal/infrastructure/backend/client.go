// Package backend talks to the remote question-answering service over its
// single /chat endpoint.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"

	"guidechat/internal/infrastructure/logger"
	"guidechat/internal/utils/idgen"
)

// ErrMissingAnswer marks a 2xx response whose body lacks the answer field.
var ErrMissingAnswer = errors.New("response is missing the answer field")

// Answer is a successful backend reply. Sources are supporting references;
// they are logged, not rendered.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

type askRequest struct {
	Query string `json:"query"`
}

type requestIDKey struct{}
type startedAtKey struct{}

// Client is the HTTP client for the answer backend.
type Client struct {
	http    *resty.Client
	baseURL string
}

// New builds a client for the backend at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	client := resty.New().SetTimeout(timeout)

	client.AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
		ctx := context.WithValue(r.Context(), requestIDKey{}, idgen.NewRequestID())
		ctx = context.WithValue(ctx, startedAtKey{}, time.Now())
		r.SetContext(ctx)
		return nil
	})
	client.AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
		log := logger.GetLogger()
		requestID, _ := r.Request.Context().Value(requestIDKey{}).(string)
		startedAt, _ := r.Request.Context().Value(startedAtKey{}).(time.Time)
		log.Debug().
			Str("request_id", requestID).
			Int("status", r.StatusCode()).
			Str("method", r.Request.Method).
			Str("url", r.Request.URL).
			Dur("latency", time.Since(startedAt)).
			Msg("backend request")
		return nil
	})

	return &Client{
		http:    client,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

// Ask sends the user's message and waits for the whole answer. Non-2xx
// statuses, transport failures and bodies without an answer field are all
// errors; the caller turns them into chat-visible assistant messages.
func (c *Client) Ask(ctx context.Context, query string) (*Answer, error) {
	var answer Answer
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(askRequest{Query: query}).
		SetResult(&answer).
		Post(c.baseURL + "/chat")
	if err != nil {
		return nil, fmt.Errorf("backend request: %w", err)
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(resp)
	}
	if answer.Answer == "" {
		return nil, ErrMissingAnswer
	}

	if len(answer.Sources) > 0 {
		log := logger.GetLogger()
		log.Info().Strs("sources", answer.Sources).Msg("answer sources")
	}

	return &answer, nil
}

func (c *Client) errorFromResponse(resp *resty.Response) error {
	body := strings.TrimSpace(resp.String())
	if body == "" {
		return fmt.Errorf("backend request failed with status: %d", resp.StatusCode())
	}
	return fmt.Errorf("backend request failed with status %d: %s", resp.StatusCode(), body)
}
