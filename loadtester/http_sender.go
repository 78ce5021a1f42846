package loadtester

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

const tracerName = "github.com/josephcopenhaver/rpcload-go/loadtester"

// DefaultRequestTimeout bounds one attempt end to end, body read included
const DefaultRequestTimeout = 15 * time.Second

// SendResult is what the http client reports for one request
//
// ServerElapsed is the time between the request being fully written
// and the first response byte arriving.
type SendResult struct {
	StatusCode    int
	Status        string
	ServerElapsed time.Duration
	Body          []byte
}

// Sender issues the JSON-RPC request once.
//
// A non-nil error means no complete response was received;
// http status codes are reported through SendResult, never as errors.
type Sender interface {
	Send(ctx context.Context) (SendResult, error)
}

var ErrInvalidEndpoint = errors.New("endpoint must be an absolute http or https url")

// HTTPSender posts the header.SyncState call to a single endpoint
type HTTPSender struct {
	client   *http.Client
	endpoint string
	header   http.Header
	body     []byte
	tracer   trace.Tracer
}

// NewHTTPClient returns a client with a transport sized for maxWorkers
// and the given per request timeout.
func NewHTTPClient(maxWorkers int, timeout time.Duration) (*http.Client, error) {
	t, err := NewHttpTransport(maxWorkers)
	if err != nil {
		return nil, err
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: t,
	}, nil
}

func NewHTTPSender(client *http.Client, endpoint, authToken string) (*HTTPSender, error) {
	u, err := url.ParseRequestURI(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidEndpoint
	}

	body, err := newSyncStateRequestBody()
	if err != nil {
		return nil, fmt.Errorf("failed to encode json-rpc request: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	if authToken != "" {
		header.Set("Authorization", "Bearer "+authToken)
	}

	return &HTTPSender{
		client:   client,
		endpoint: u.String(),
		header:   header,
		body:     body,
		tracer:   otel.Tracer(tracerName),
	}, nil
}

func (s *HTTPSender) Endpoint() string {
	return s.endpoint
}

func (s *HTTPSender) Send(ctx context.Context) (_ SendResult, err_resp error) {
	ctx, span := s.tracer.Start(ctx, RPCMethod, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err_resp != nil {
			span.RecordError(err_resp)
			span.SetStatus(codes.Error, err_resp.Error())
		}
		span.End()
	}()

	if cm := GetCallMetadata(ctx); cm != nil {
		span.SetAttributes(
			attribute.String("loadtest.run_id", cm.RunID()),
			attribute.Int("loadtest.task", cm.TaskIndex()),
			attribute.Int("loadtest.attempt", cm.Attempt()),
		)
	}

	// written from the transport's write and read loops
	var wroteRequest, firstByte atomic.Time
	ct := &httptrace.ClientTrace{
		WroteRequest: func(httptrace.WroteRequestInfo) {
			wroteRequest.Store(time.Now())
		},
		GotFirstResponseByte: func() {
			firstByte.Store(time.Now())
		},
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, ct), http.MethodPost, s.endpoint, bytes.NewReader(s.body))
	if err != nil {
		return SendResult{}, err
	}
	req.Header = s.header.Clone()
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	res, err := s.client.Do(req)
	if err != nil {
		return SendResult{}, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return SendResult{}, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode))
	if res.StatusCode >= 400 {
		span.SetStatus(codes.Error, strconv.Itoa(res.StatusCode))
	}

	var serverElapsed time.Duration
	if w, f := wroteRequest.Load(), firstByte.Load(); !w.IsZero() && f.After(w) {
		serverElapsed = f.Sub(w)
	}

	return SendResult{
		StatusCode:    res.StatusCode,
		Status:        res.Status,
		ServerElapsed: serverElapsed,
		Body:          body,
	}, nil
}
