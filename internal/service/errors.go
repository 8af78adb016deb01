package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	StepCreateItems  = "create_items"
	StepCreateOrder  = "create_order"
	StepAddLineItems = "add_line_items"
	StepLockOrder    = "lock_order"
	StepPrint        = "print"
	StepListDevices  = "list_devices"
	StepFetchOrder   = "fetch_order"
	StepCheck        = "check"
)

var ErrMissingID = errors.New("platform response did not include an id")

// StepError names the pipeline step that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// HTTPStatus forwards the upstream status when it is an error status.
func (e *StepError) HTTPStatus() int {
	if status := UpstreamStatus(e.Err); status >= http.StatusBadRequest {
		return status
	}
	return http.StatusInternalServerError
}

func stepErr(step string, err error) error {
	return &StepError{Step: step, Err: err}
}

// UpstreamStatus returns the platform's status code carried by err, or 0.
func UpstreamStatus(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Status
	}
	return 0
}

// UpstreamDetails returns the platform's error body verbatim: raw JSON when
// it is valid JSON, a string otherwise, nil when there is none.
func UpstreamDetails(err error) any {
	var ue *UpstreamError
	if !errors.As(err, &ue) || len(ue.Body) == 0 {
		return nil
	}
	if json.Valid(ue.Body) {
		return json.RawMessage(ue.Body)
	}
	return string(ue.Body)
}

func upstreamBody(err error) []byte {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Body
	}
	return nil
}
