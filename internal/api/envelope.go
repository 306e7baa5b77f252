package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/directadmin"
	"github.com/fgeck/panelsync/internal/services/servers"
)

// Envelope statuses.
const (
	statusSuccess = "success"
	statusWarning = "warning"
	statusError   = "error"
)

// Envelope wraps every response body.
type Envelope struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// badRequestError marks invalid client input.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

func respondJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func respondData(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusOK, Envelope{Success: true, Status: statusSuccess, Data: data})
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, httpStatus(err), Envelope{Status: statusError, Message: err.Error()})
}

// respondOutcome keeps warnings distinct from plain success.
func respondOutcome(w http.ResponseWriter, out models.Outcome) {
	switch out.Status {
	case models.OutcomeSuccess:
		respondJSON(w, http.StatusOK, Envelope{Success: true, Status: statusSuccess, Message: out.Message, Data: out})
	case models.OutcomeSuccessUnverified:
		respondJSON(w, http.StatusOK, Envelope{Success: true, Status: statusWarning, Message: out.Message, Data: out})
	case models.OutcomeAmbiguousReset:
		respondJSON(w, http.StatusAccepted, Envelope{Status: statusWarning, Message: out.Message, Data: out})
	default:
		status := http.StatusInternalServerError
		if out.Err != nil {
			status = httpStatus(out.Err)
		}
		respondJSON(w, status, Envelope{Status: statusError, Message: out.Message, Data: out})
	}
}

func httpStatus(err error) int {
	var (
		badReq    *badRequestError
		remote    *directadmin.RemoteError
		html      *directadmin.UnexpectedHTMLError
		body      *directadmin.UnexpectedBodyError
		transport *directadmin.TransportError
	)
	switch {
	case errors.As(err, &badReq):
		return http.StatusBadRequest
	case errors.Is(err, servers.ErrServerNotFound), directadmin.IsNotFound(err):
		return http.StatusNotFound
	case directadmin.IsAlreadyExists(err):
		return http.StatusConflict
	case errors.As(err, &transport):
		return http.StatusGatewayTimeout
	case errors.As(err, &remote), errors.As(err, &html), errors.As(err, &body), errors.Is(err, directadmin.ErrStillExists):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}
