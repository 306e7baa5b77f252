// Package directadmin talks to the DirectAdmin control panel HTTP API.
//
// The panel answers the same logical endpoint with JSON, query strings, empty
// bodies or HTML pages depending on version and error path. The transport
// normalizes all of them into a Response or a typed error; Client builds the
// exact form fields the panel's own web UI sends.
package directadmin

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	commandPrefix = "CMD_API_"
	// DefaultTimeout is the per-call timeout.
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

// HTTPClient allows mocking HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Params is the flat form of request parameters.
type Params map[string]string

func (p Params) encode() string {
	values := make(url.Values, len(p))
	for k, v := range p {
		values.Set(k, v)
	}
	return values.Encode()
}

// Result is the outcome of one API call.
type Result struct {
	Response Response
	// ConnectionReset is set instead of an error when the connection dropped
	// during a user create/modify call. The mutation may or may not have landed.
	ConnectionReset bool
	Command         string
	Action          string
}

// Caller performs one API call. Transport is the production implementation.
type Caller interface {
	Call(ctx context.Context, command string, params Params, method string) (*Result, error)
}

// Transport performs authenticated calls against one panel.
type Transport struct {
	cred       models.ServerCredential
	httpClient HTTPClient
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewTransport creates a transport for the given panel.
func NewTransport(logger zerolog.Logger, cred models.ServerCredential, settings models.DirectAdminSettings) *Transport {
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpTransport := http.DefaultTransport.(*http.Transport).Clone()
	if settings.InsecureSkipVerify {
		httpTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // self-signed panel certificates
	}

	return NewTransportWithClient(logger, cred, &http.Client{
		Timeout:   timeout,
		Transport: httpTransport,
	})
}

// NewTransportWithClient creates a transport with a custom HTTP client (for testing).
func NewTransportWithClient(logger zerolog.Logger, cred models.ServerCredential, httpClient HTTPClient) *Transport {
	return &Transport{
		cred:       cred,
		httpClient: httpClient,
		logger:     logger.With().Str("panel", cred.String()).Logger(),
		tracer:     otel.Tracer("github.com/fgeck/panelsync/directadmin"),
	}
}

// CommandName returns the canonical CMD_API_ form of a command. Callers may
// pass the name with or without the prefix.
func CommandName(command string) string {
	c := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(command, "/")))
	c = strings.TrimPrefix(c, commandPrefix)
	return commandPrefix + c
}

// Call issues one request and normalizes the response.
func (t *Transport) Call(ctx context.Context, command string, params Params, method string) (*Result, error) {
	command = CommandName(command)
	if method == "" {
		method = http.MethodGet
	}
	action := params["action"]

	ctx, span := t.tracer.Start(ctx, "directadmin "+command, trace.WithAttributes(
		attribute.String("directadmin.command", command),
		attribute.String("directadmin.action", action),
		attribute.String("http.method", method),
		attribute.String("server.address", t.cred.Host),
	))
	defer span.End()

	req, err := t.newRequest(ctx, command, params, method)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	t.logger.Debug().
		Str("command", command).
		Str("method", method).
		Str("action", action).
		Msg("calling panel")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return t.transportFailure(span, command, action, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return t.transportFailure(span, command, action, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	parsed, parseErr := ParseBody(command, body)

	if resp.StatusCode >= http.StatusBadRequest {
		if parseErr != nil {
			parsed = Response{}
		}
		// An HTTP failure is never the "0" success sentinel.
		code := strings.TrimSpace(parsed.Get("error"))
		if code == "" || code == "0" {
			code = fmt.Sprintf("http_%d", resp.StatusCode)
		}
		remoteErr := newRemoteError(command, parsed, code, resp.StatusCode)
		if remoteErr.Message == code {
			remoteErr.Message = fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		span.RecordError(remoteErr)
		span.SetStatus(codes.Error, remoteErr.Error())
		return nil, remoteErr
	}

	if parseErr != nil {
		span.RecordError(parseErr)
		span.SetStatus(codes.Error, parseErr.Error())
		return nil, parseErr
	}

	if err := checkError(command, parsed, resp.StatusCode); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &Result{Response: parsed, Command: command, Action: action}, nil
}

func (t *Transport) newRequest(ctx context.Context, command string, params Params, method string) (*http.Request, error) {
	endpoint := t.cred.BaseURL() + "/" + command
	encoded := params.encode()

	var req *http.Request
	var err error
	switch method {
	case http.MethodGet:
		if encoded != "" {
			endpoint += "?" + encoded
		}
		req, err = http.NewRequestWithContext(ctx, method, endpoint, nil)
	case http.MethodPost:
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(encoded))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	default:
		return nil, fmt.Errorf("unsupported method %q for %s", method, command)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(t.cred.Username, t.cred.Password)
	return req, nil
}

func (t *Transport) transportFailure(span trace.Span, command, action string, err error) (*Result, error) {
	if IsConnectionReset(err) && isUserMutation(command, action) {
		t.logger.Warn().
			Err(err).
			Str("command", command).
			Str("action", action).
			Msg("connection reset during user mutation, outcome unknown")
		span.SetAttributes(attribute.Bool("directadmin.connection_reset", true))
		return &Result{Response: Response{}, ConnectionReset: true, Command: command, Action: action}, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, &TransportError{Command: command, Err: err}
}

// isUserMutation reports whether a command creates or modifies a user account.
func isUserMutation(command, action string) bool {
	switch command {
	case cmdAccountUser:
		return strings.EqualFold(action, "create")
	case cmdModifyUser:
		return true
	}
	return false
}
