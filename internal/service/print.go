package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"printcheck/internal/model"
)

type PrintOptions struct {
	DeviceID      string
	TryAllDevices bool
}

// Failure is the soft-failure payload embedded in otherwise successful
// responses.
type Failure struct {
	Error   string `json:"error"`
	Status  int    `json:"status,omitempty"`
	Details any    `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func NewFailure(step string, err error) *Failure {
	status := UpstreamStatus(err)
	msg := err.Error()
	var ue *UpstreamError
	if errors.As(err, &ue) {
		msg = fmt.Sprintf("platform returned %d", ue.Status)
	}
	return &Failure{
		Error:   msg,
		Status:  status,
		Details: UpstreamDetails(err),
		Hint:    Hint(step, status, upstreamBody(err)),
	}
}

type PrintResult struct {
	DeviceID   string            `json:"deviceId,omitempty"`
	DeviceName string            `json:"deviceName,omitempty"`
	Success    bool              `json:"success"`
	PrintEvent *model.PrintEvent `json:"printEvent,omitempty"`
	*Failure
}

// PrintOutcome holds either one result or one result per device.
type PrintOutcome struct {
	TriedAllDevices bool          `json:"triedAllDevices"`
	DeviceCount     int           `json:"deviceCount,omitempty"`
	Result          *PrintResult  `json:"result,omitempty"`
	Results         []PrintResult `json:"results,omitempty"`
	*Failure
}

type PrintService struct {
	platform *PlatformClient
}

func NewPrintService(platform *PlatformClient) *PrintService {
	return &PrintService{platform: platform}
}

func (s *PrintService) ListDevices(ctx context.Context) ([]model.Device, error) {
	devices, err := s.platform.ListDevices(ctx)
	if err != nil {
		return nil, stepErr(StepListDevices, err)
	}
	return devices, nil
}

// Send requests printing of an existing order. In all-devices mode every
// device gets its own attempt and a failing device only marks its own
// result; the error return is reserved for the device listing. In
// single-device mode a failed request is returned as a StepError and is
// also described in the outcome.
func (s *PrintService) Send(ctx context.Context, orderID string, opts PrintOptions) (PrintOutcome, error) {
	if opts.TryAllDevices {
		return s.sendToAll(ctx, orderID)
	}

	res, err := s.printOne(ctx, orderID, model.Device{ID: opts.DeviceID})
	out := PrintOutcome{Result: &res}
	if err != nil {
		return out, stepErr(StepPrint, err)
	}
	return out, nil
}

func (s *PrintService) sendToAll(ctx context.Context, orderID string) (PrintOutcome, error) {
	out := PrintOutcome{TriedAllDevices: true}

	devices, err := s.ListDevices(ctx)
	if err != nil {
		out.Failure = NewFailure(StepListDevices, err)
		return out, err
	}

	out.DeviceCount = len(devices)
	out.Results = make([]PrintResult, 0, len(devices))
	for _, d := range devices {
		res, _ := s.printOne(ctx, orderID, d)
		out.Results = append(out.Results, res)
	}
	if len(devices) == 0 {
		out.Failure = &Failure{Error: "no devices registered for this merchant"}
	}

	slog.Info("print requested on all devices", "order", orderID, "devices", len(devices))
	return out, nil
}

func (s *PrintService) printOne(ctx context.Context, orderID string, d model.Device) (PrintResult, error) {
	res := PrintResult{DeviceID: d.ID, DeviceName: d.Name}

	ev, err := s.platform.CreatePrintEvent(ctx, orderID, d.ID)
	if err != nil {
		slog.Error("print request failed", "order", orderID, "device", d.ID, "error", err)
		res.Failure = NewFailure(StepPrint, err)
		return res, err
	}
	if ev.ID == "" {
		err := ErrMissingID
		slog.Error("print event has no id", "order", orderID, "device", d.ID)
		res.Failure = NewFailure(StepPrint, err)
		return res, err
	}

	slog.Info("print event created", "order", orderID, "device", d.ID, "event", ev.ID, "state", ev.State)
	res.Success = true
	res.PrintEvent = ev
	return res, nil
}
