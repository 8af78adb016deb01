package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"printcheck/internal/config"
	"printcheck/internal/model"
	"printcheck/internal/platformtest"
	"printcheck/internal/service"
	"printcheck/internal/worker"
)

var devices = []model.Device{
	{ID: "D1", Name: "Kitchen", Model: "Station", Serial: "C010", DeviceTypeName: "STATION"},
	{ID: "D2", Name: "Bar", Model: "Mini", Serial: "C020", DeviceTypeName: "MINI"},
}

func newTestRouter(fake *platformtest.Server, cfg *config.Config) http.Handler {
	if cfg == nil {
		cfg = &config.Config{
			BaseURL:     fake.URL,
			MerchantID:  platformtest.MerchantID,
			AccessToken: platformtest.Token,
		}
	}
	platform := service.NewPlatformClient(cfg.BaseURL, cfg.MerchantID, cfg.AccessToken, 5*time.Second)
	prints := service.NewPrintService(platform)
	poller := worker.NewPrintEventPoller(platform, time.Millisecond, 1)
	return NewRouter(cfg, Services{
		Orders:      service.NewOrderService(platform, prints),
		Prints:      prints,
		Diagnostics: service.NewDiagnosticService(platform, prints, poller),
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, out
}

func TestMissingConfigurationRejectedBeforeRemoteCalls(t *testing.T) {
	fake := platformtest.New(t, devices...)
	h := newTestRouter(fake, &config.Config{BaseURL: fake.URL})

	requests := []struct{ method, path, body string }{
		{http.MethodPost, "/test-print", ""},
		{http.MethodPost, "/test-print/send-print", `{"orderId":"O1"}`},
		{http.MethodPost, "/test-print/debug-print", `{"orderId":"O1"}`},
		{http.MethodGet, "/test-print/devices", ""},
		{http.MethodGet, "/test-print/check", ""},
		{http.MethodGet, "/test-print/verify/O1", ""},
	}
	for _, rq := range requests {
		status, body := do(t, h, rq.method, rq.path, rq.body)
		if status != http.StatusBadRequest {
			t.Errorf("%s %s: status = %d, want 400", rq.method, rq.path, status)
		}
		if body["success"] != false || body["missing"] == nil {
			t.Errorf("%s %s: body = %v", rq.method, rq.path, body)
		}
	}
	if calls := fake.Calls(); len(calls) != 0 {
		t.Errorf("remote calls issued: %v", calls)
	}

	if status, _ := do(t, h, http.MethodGet, "/test-print/how-to-print", ""); status != http.StatusOK {
		t.Errorf("how-to-print status = %d", status)
	}
}

func TestCreateAndPrintThenVerify(t *testing.T) {
	fake := platformtest.New(t, devices...)
	h := newTestRouter(fake, nil)

	status, body := do(t, h, http.MethodPost, "/test-print", "")
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("create: status = %d, body = %v", status, body)
	}
	orderID, _ := body["orderId"].(string)
	if orderID == "" {
		t.Fatalf("no orderId: %v", body)
	}
	conf := body["confirmation"].(map[string]any)
	if conf["lineItemCount"] != float64(2) || conf["orderState"] != "locked" {
		t.Errorf("confirmation = %v", conf)
	}

	var states []any
	var counts []any
	for i := 0; i < 2; i++ {
		status, body = do(t, h, http.MethodGet, "/test-print/verify/"+orderID, "")
		if status != http.StatusOK {
			t.Fatalf("verify: status = %d, body = %v", status, body)
		}
		states = append(states, body["orderState"])
		counts = append(counts, body["lineItemCount"])
	}
	if states[0] != "locked" || counts[0] != float64(2) {
		t.Errorf("verify = %v / %v", states[0], counts[0])
	}
	if !reflect.DeepEqual(states[0], states[1]) || !reflect.DeepEqual(counts[0], counts[1]) {
		t.Errorf("verify not idempotent: %v %v", states, counts)
	}
}

func TestCreateAndPrintStepFailure(t *testing.T) {
	fake := platformtest.New(t)
	fake.OmitItemID = true
	h := newTestRouter(fake, nil)

	status, body := do(t, h, http.MethodPost, "/test-print", `{}`)

	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
	if body["failedStep"] != service.StepCreateItems || body["hint"] == "" {
		t.Errorf("body = %v", body)
	}
	if fake.CallCount("POST /orders") != 0 {
		t.Errorf("order creation was called: %v", fake.Calls())
	}
}

func TestCreateAndPrintForwardsUpstreamStatus(t *testing.T) {
	fake := platformtest.New(t)
	fake.ItemStatus = http.StatusForbidden
	h := newTestRouter(fake, nil)

	status, body := do(t, h, http.MethodPost, "/test-print", "")

	if status != http.StatusForbidden || body["status"] != float64(http.StatusForbidden) {
		t.Errorf("status = %d, body = %v", status, body)
	}
	details, ok := body["details"].(map[string]any)
	if !ok || details["message"] != "item rejected" {
		t.Errorf("details = %v, want upstream body verbatim", body["details"])
	}
}

func TestCreateAndPrintAllDevices(t *testing.T) {
	fake := platformtest.New(t, devices...)
	fake.FailDevices["D1"] = http.StatusInternalServerError
	h := newTestRouter(fake, nil)

	status, body := do(t, h, http.MethodPost, "/test-print", `{"tryAllDevices":true}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}

	pe := body["printEvent"].(map[string]any)
	results := pe["results"].([]any)
	if len(results) != len(devices) {
		t.Fatalf("results = %v", results)
	}
	failed := 0
	for _, r := range results {
		if r.(map[string]any)["success"] == false {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
}

func TestSendPrintRequiresOrderID(t *testing.T) {
	fake := platformtest.New(t, devices...)
	h := newTestRouter(fake, nil)

	for _, path := range []string{"/test-print/send-print", "/test-print/debug-print"} {
		status, body := do(t, h, http.MethodPost, path, `{"deviceId":"D1"}`)
		if status != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, status)
		}
		if msg, _ := body["error"].(string); !strings.Contains(msg, "orderId") {
			t.Errorf("%s: error = %v", path, body["error"])
		}
	}
	if calls := fake.Calls(); len(calls) != 0 {
		t.Errorf("remote calls issued: %v", calls)
	}
}

func TestSendPrint(t *testing.T) {
	fake := platformtest.New(t, devices...)
	fake.SeedOrder("O1", model.OrderStateLocked, 2)
	fake.FailDevices["D2"] = http.StatusBadGateway
	h := newTestRouter(fake, nil)

	status, body := do(t, h, http.MethodPost, "/test-print/send-print", `{"orderId":"O1","deviceId":"D1"}`)
	if status != http.StatusOK || body["success"] != true {
		t.Errorf("single device: status = %d, body = %v", status, body)
	}

	status, body = do(t, h, http.MethodPost, "/test-print/send-print", `{"orderId":"O1","deviceId":"D2"}`)
	if status != http.StatusBadGateway || body["failedStep"] != service.StepPrint {
		t.Errorf("failing device: status = %d, body = %v", status, body)
	}

	status, body = do(t, h, http.MethodPost, "/test-print/send-print", `{"orderId":"O1","tryAllDevices":true}`)
	if status != http.StatusOK {
		t.Fatalf("all devices: status = %d, body = %v", status, body)
	}
	results := body["printEvent"].(map[string]any)["results"].([]any)
	if len(results) != 2 {
		t.Errorf("results = %v", results)
	}
}

func TestSendPrintInvalidJSON(t *testing.T) {
	fake := platformtest.New(t)
	h := newTestRouter(fake, nil)

	status, _ := do(t, h, http.MethodPost, "/test-print/send-print", `{"orderId":`)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestDebugPrintReportsFailedState(t *testing.T) {
	fake := platformtest.New(t, devices...)
	fake.SeedOrder("O1", model.OrderStateLocked, 2)
	fake.EventState = model.PrintStateFailed
	h := newTestRouter(fake, nil)

	status, body := do(t, h, http.MethodPost, "/test-print/debug-print", `{"orderId":"O1","deviceId":"D1"}`)
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("status = %d, body = %v", status, body)
	}

	diag := body["diagnostic"].(map[string]any)
	found := false
	for _, e := range diag["whyNoPrint"].([]any) {
		if strings.Contains(e.(string), "FAILED") {
			found = true
		}
	}
	if !found {
		t.Errorf("whyNoPrint = %v", diag["whyNoPrint"])
	}
}

func TestDebugPrintStaysSuccessfulOnPlatformErrors(t *testing.T) {
	fake := platformtest.New(t, devices...)
	h := newTestRouter(fake, nil)

	status, body := do(t, h, http.MethodPost, "/test-print/debug-print", `{"orderId":"MISSING"}`)
	if status != http.StatusOK || body["success"] != true {
		t.Errorf("status = %d, body = %v", status, body)
	}
}

func TestListDevicesNormalizesShapes(t *testing.T) {
	var baseline any
	for _, shape := range []string{platformtest.ShapeBare, platformtest.ShapeElements, platformtest.ShapeData} {
		fake := platformtest.New(t, devices...)
		fake.DeviceShape = shape
		h := newTestRouter(fake, nil)

		status, body := do(t, h, http.MethodGet, "/test-print/devices", "")
		if status != http.StatusOK || body["deviceCount"] != float64(len(devices)) {
			t.Fatalf("shape %q: status = %d, body = %v", shape, status, body)
		}
		if baseline == nil {
			baseline = body["devices"]
			continue
		}
		if !reflect.DeepEqual(body["devices"], baseline) {
			t.Errorf("shape %q: devices = %v, want %v", shape, body["devices"], baseline)
		}
	}
}

func TestCheck(t *testing.T) {
	fake := platformtest.New(t)
	fake.SeedOrder("O1", model.OrderStateOpen, 0)
	fake.SeedOrder("O2", model.OrderStateOpen, 0)
	h := newTestRouter(fake, nil)

	status, body := do(t, h, http.MethodGet, "/test-print/check", "")
	if status != http.StatusOK || body["recentOrderCount"] != float64(1) {
		t.Errorf("status = %d, body = %v", status, body)
	}
	if body["merchantId"] != platformtest.MerchantID {
		t.Errorf("merchantId = %v", body["merchantId"])
	}
	if fake.CallCount("POST") != 0 {
		t.Errorf("check mutated: %v", fake.Calls())
	}
}

func TestCheckWrongToken(t *testing.T) {
	fake := platformtest.New(t)
	h := newTestRouter(fake, &config.Config{
		BaseURL:     fake.URL,
		MerchantID:  platformtest.MerchantID,
		AccessToken: "expired",
	})

	status, body := do(t, h, http.MethodGet, "/test-print/check", "")
	if status != http.StatusUnauthorized || body["failedStep"] != service.StepCheck {
		t.Errorf("status = %d, body = %v", status, body)
	}
	if hint, _ := body["hint"].(string); !strings.Contains(hint, "CLOVER_ACCESS_TOKEN") {
		t.Errorf("hint = %q", hint)
	}
}

func TestHowToPrintAndHealth(t *testing.T) {
	fake := platformtest.New(t)
	h := newTestRouter(fake, nil)

	status, body := do(t, h, http.MethodGet, "/test-print/how-to-print", "")
	if status != http.StatusOK || len(body["endpoints"].([]any)) == 0 {
		t.Errorf("how-to-print: status = %d, body = %v", status, body)
	}
	status, body = do(t, h, http.MethodGet, "/health", "")
	if status != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health: status = %d, body = %v", status, body)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("remote calls issued: %v", fake.Calls())
	}
}

func TestVerifyAlwaysReportsOrderState(t *testing.T) {
	fake := platformtest.New(t)
	fake.SeedOrder("O1", "", 1)
	h := newTestRouter(fake, nil)

	status, body := do(t, h, http.MethodGet, "/test-print/verify/O1", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	state, ok := body["orderState"]
	if !ok || state != "" {
		t.Errorf("orderState = %v (present %v), want empty string", state, ok)
	}
	if body["lineItemCount"] != float64(1) {
		t.Errorf("lineItemCount = %v", body["lineItemCount"])
	}
}

func TestDebugPrintEventWithoutID(t *testing.T) {
	fake := platformtest.New(t, devices...)
	fake.OmitEventID = true
	fake.SeedOrder("O1", model.OrderStateLocked, 2)
	h := newTestRouter(fake, nil)

	status, body := do(t, h, http.MethodPost, "/test-print/debug-print", `{"orderId":"O1","tryAllDevices":true}`)
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	attempts := body["diagnostic"].(map[string]any)["attempts"].([]any)
	if len(attempts) != len(devices) {
		t.Fatalf("attempts = %v", attempts)
	}
	if fake.CallCount("GET /print_event") != 0 {
		t.Errorf("polled without an event id: %v", fake.Calls())
	}
}

func TestNewServerDoesNotCutSlowResponses(t *testing.T) {
	srv := NewServer(":0", http.NotFoundHandler())

	if srv.WriteTimeout != 0 {
		t.Errorf("WriteTimeout = %v, want unset", srv.WriteTimeout)
	}
	if srv.ReadTimeout == 0 || srv.ReadHeaderTimeout == 0 {
		t.Errorf("read timeouts not set: %v / %v", srv.ReadTimeout, srv.ReadHeaderTimeout)
	}
	if srv.Addr != ":0" {
		t.Errorf("Addr = %q", srv.Addr)
	}
}
