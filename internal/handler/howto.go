package handler

import "net/http"

type endpointDoc struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Body        string `json:"body,omitempty"`
	Description string `json:"description"`
}

type howToPrint struct {
	Summary         string        `json:"summary"`
	Endpoints       []endpointDoc `json:"endpoints"`
	FiringDevice    []string      `json:"firingDeviceSetup"`
	Troubleshooting []string      `json:"troubleshooting"`
}

var howToPrintDoc = howToPrint{
	Summary: "Locking an order on the platform fires an automatic print on the merchant's firing device. " +
		"POST /test-print creates a two-item order, locks it and requests a print so you can watch the printer.",
	Endpoints: []endpointDoc{
		{Method: "GET", Path: "/test-print/check", Description: "Verify base URL, merchant id and access token with a read-only call."},
		{Method: "GET", Path: "/test-print/devices", Description: "List the merchant's devices and their ids."},
		{Method: "POST", Path: "/test-print", Body: `{"deviceId"?: string, "tryAllDevices"?: bool}`, Description: "Create, lock and print a test order."},
		{Method: "POST", Path: "/test-print/send-print", Body: `{"orderId": string, "deviceId"?: string, "tryAllDevices"?: bool}`, Description: "Send another print request for an existing order."},
		{Method: "POST", Path: "/test-print/debug-print", Body: `{"orderId": string, "deviceId"?: string, "tryAllDevices"?: bool}`, Description: "Print, wait, poll the print event and explain why nothing printed."},
		{Method: "GET", Path: "/test-print/verify/{orderId}", Description: "Re-read an order and its line items."},
	},
	FiringDevice: []string{
		"On the device, open Setup > Printers and add the printer attached to it.",
		"Assign the printer to Order Receipts (or the label used by your kitchen).",
		"In the merchant dashboard, set this device as the order printer so automatic print events are routed to it.",
	},
	Troubleshooting: []string{
		"401: the token belongs to another environment (sandbox vs production) or has expired.",
		"404: the merchant id does not exist in the environment CLOVER_BASE_URL points at.",
		"Print event FAILED: the device received the job but its printer is missing, offline or out of paper.",
		"Print event DONE with no paper out: check the printer itself (cover, paper roll, cable).",
		"Print event stuck in CREATED: the device is asleep or offline; wake it and retry with debug-print.",
	},
}

func HowToPrintHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, howToPrintDoc)
	}
}

func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
