package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"printcheck/internal/service"
)

type testPrintResponse struct {
	Success bool `json:"success"`
	*service.TestPrintResult
}

type sendPrintResponse struct {
	Success    bool                 `json:"success"`
	OrderID    string               `json:"orderId"`
	PrintEvent service.PrintOutcome `json:"printEvent"`
}

type debugPrintResponse struct {
	Success    bool                `json:"success"`
	Diagnostic *service.Diagnostic `json:"diagnostic"`
}

// TestPrintHandler creates a fresh order, locks it and asks for it to be printed.
func TestPrintHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := readPrintRequest(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		slog.Info("test print started",
			"request_id", middleware.GetReqID(r.Context()),
			"device", req.DeviceID,
			"all_devices", req.TryAllDevices,
		)

		res, err := orderSvc.CreateAndPrint(r.Context(), req.options())
		if err != nil {
			writeStepError(w, r, "", err)
			return
		}

		writeJSON(w, http.StatusOK, testPrintResponse{Success: true, TestPrintResult: res})
	}
}

// SendPrintHandler re-sends a print request for an existing order.
func SendPrintHandler(printSvc *service.PrintService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := readPrintRequest(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.OrderID == "" {
			writeError(w, http.StatusBadRequest, "orderId is required")
			return
		}

		out, err := printSvc.Send(r.Context(), req.OrderID, req.options())
		if err != nil {
			writeStepError(w, r, req.OrderID, err)
			return
		}

		writeJSON(w, http.StatusOK, sendPrintResponse{Success: true, OrderID: req.OrderID, PrintEvent: out})
	}
}

// DebugPrintHandler sends a print request, polls it and explains the outcome.
// Platform failures are part of the diagnostic, not of the HTTP status.
func DebugPrintHandler(diagSvc *service.DiagnosticService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := readPrintRequest(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.OrderID == "" {
			writeError(w, http.StatusBadRequest, "orderId is required")
			return
		}

		diag := diagSvc.DebugPrint(r.Context(), req.OrderID, req.options())
		writeJSON(w, http.StatusOK, debugPrintResponse{Success: true, Diagnostic: diag})
	}
}
