package admin

import (
	"fmt"
	"net/http"

	"github.com/nrawrx3/uno"
	"github.com/nrawrx3/uno/console"
	"github.com/pkg/errors"
)

// StatusOfError maps a command failure to the HTTP status the server answers with.
func StatusOfError(err error) int {
	switch {
	case errors.Is(err, uno.ErrCorruptSave):
		return http.StatusBadRequest
	case errors.Is(err, uno.ErrIllegalMove),
		errors.Is(err, uno.ErrInvalidState),
		errors.Is(err, uno.ErrDeckExhausted),
		errors.Is(err, uno.ErrNothingToUndo),
		errors.Is(err, uno.ErrNothingToRedo):
		return http.StatusConflict
	case errors.Is(err, console.ErrNoSaveSlot):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

type BroadcastFailedError struct {
	SubscriberID string
	EventName    string
	Reason       error
}

func NewBroadcastFailedError(subscriberID string, eventName string, reason error) *BroadcastFailedError {
	return &BroadcastFailedError{
		SubscriberID: subscriberID,
		EventName:    eventName,
		Reason:       reason,
	}
}

func (e *BroadcastFailedError) Unwrap() error {
	return e.Reason
}

func (e *BroadcastFailedError) Error() string {
	reason := ""
	if e.Reason != nil {
		reason = fmt.Sprintf("Reason: %s", e.Reason.Error())
	}
	return fmt.Sprintf("Failed to send event '%s' to subscriber '%s'. %s", e.EventName, e.SubscriberID, reason)
}

type HTTPResponseCodeError struct {
	StatusCode int
	Status     string
}

func NewHTTPResponseCodeError(statusCode int) *HTTPResponseCodeError {
	return &HTTPResponseCodeError{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
	}
}

func (e *HTTPResponseCodeError) Error() string {
	return fmt.Sprintf("HTTP error response: %d (%s)", e.StatusCode, e.Status)
}
