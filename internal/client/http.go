package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/subhadeepds/microservices-project/internal/identity"
	"github.com/subhadeepds/microservices-project/internal/tracing"
)

// HeaderIdempotencyKey lets the inventory store drop replayed adjustments.
const HeaderIdempotencyKey = "Idempotency-Key"

// ErrNotFound is returned when the remote service answers 404.
var ErrNotFound = errors.New("resource not found")

// RemoteError is a non-2xx answer other than 404.
type RemoteError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}

// restClient is the JSON-over-HTTP plumbing shared by the service clients.
// Every call gets its own deadline.
type restClient struct {
	service    string
	baseURL    func() string
	httpClient *http.Client
	timeout    time.Duration
	tracer     trace.Tracer
}

func newRestClient(service string, baseURL func() string, timeout time.Duration) restClient {
	return restClient{
		service: service,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
		tracer:  otel.Tracer("client/" + service),
	}
}

func (c *restClient) do(ctx context.Context, method, path string, header http.Header, out any) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, c.service+" "+method, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil && !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	url := c.baseURL() + path
	span.SetAttributes(attribute.String("http.request.method", method), attribute.String("url.full", url))

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	identity.Inject(ctx, req.Header)
	tracing.Inject(ctx, req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", c.service, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", c.service, path, ErrNotFound)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readErrorMessage pulls "message" (or "error") out of a JSON error body.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return string(raw)
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
