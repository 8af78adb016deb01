package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"printcheck/internal/service"
)

const maxBodyBytes = 1 << 20

type printRequest struct {
	OrderID       string `json:"orderId"`
	DeviceID      string `json:"deviceId"`
	TryAllDevices bool   `json:"tryAllDevices"`
}

func (p printRequest) options() service.PrintOptions {
	return service.PrintOptions{DeviceID: p.DeviceID, TryAllDevices: p.TryAllDevices}
}

type errorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	FailedStep string `json:"failedStep,omitempty"`
	OrderID    string `json:"orderId,omitempty"`
	Status     int    `json:"status,omitempty"`
	Details    any    `json:"details,omitempty"`
	Hint       string `json:"hint,omitempty"`
}

var stepMessages = map[string]string{
	service.StepCreateItems:  "Failed to create test items",
	service.StepCreateOrder:  "Failed to create order",
	service.StepAddLineItems: "Failed to add line items to order",
	service.StepLockOrder:    "Failed to lock order",
	service.StepPrint:        "Failed to send print request",
	service.StepListDevices:  "Failed to list devices",
	service.StepFetchOrder:   "Failed to fetch order",
	service.StepCheck:        "Connectivity check failed",
}

// readPrintRequest decodes an optional JSON body; an empty body is valid.
func readPrintRequest(w http.ResponseWriter, r *http.Request) (printRequest, error) {
	var req printRequest
	if r.Body == nil {
		return req, nil
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		return req, err
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

// writeStepError reports a failed pipeline step with the upstream status,
// the upstream body and a remediation hint.
func writeStepError(w http.ResponseWriter, r *http.Request, orderID string, err error) {
	var se *service.StepError
	if !errors.As(err, &se) {
		slog.Error("request failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	upstream := service.UpstreamStatus(err)
	f := service.NewFailure(se.Step, se.Err)
	msg, ok := stepMessages[se.Step]
	if !ok {
		msg = "Request failed"
	}

	slog.Error("step failed",
		"request_id", middleware.GetReqID(r.Context()),
		"step", se.Step,
		"upstream_status", upstream,
		"error", err,
	)

	writeJSON(w, se.HTTPStatus(), errorResponse{
		Success:    false,
		Error:      msg,
		FailedStep: se.Step,
		OrderID:    orderID,
		Status:     upstream,
		Details:    f.Details,
		Hint:       f.Hint,
	})
}
