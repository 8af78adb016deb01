package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"printcheck/internal/model"
	"printcheck/internal/worker"
)

type PrintAttempt struct {
	DeviceID     string `json:"deviceId,omitempty"`
	DeviceName   string `json:"deviceName,omitempty"`
	PrintEventID string `json:"printEventId,omitempty"`
	InitialState string `json:"initialState,omitempty"`
	FinalState   string `json:"finalState,omitempty"`
	CreatedTime  int64  `json:"createdTime,omitempty"` // platform clock, epoch millis
	Polls        int    `json:"polls"`
	*Failure
}

type Diagnostic struct {
	OrderID         string         `json:"orderId"`
	OrderState      string         `json:"orderState,omitempty"`
	TriedAllDevices bool           `json:"triedAllDevices"`
	CheckedAfter    string         `json:"checkedAfter"`
	Attempts        []PrintAttempt `json:"attempts"`
	WhyNoPrint      []string       `json:"whyNoPrint"`
}

func (d *Diagnostic) explain(format string, args ...any) {
	d.WhyNoPrint = append(d.WhyNoPrint, fmt.Sprintf(format, args...))
}

type DiagnosticService struct {
	platform *PlatformClient
	prints   *PrintService
	poller   *worker.PrintEventPoller
}

func NewDiagnosticService(platform *PlatformClient, prints *PrintService, poller *worker.PrintEventPoller) *DiagnosticService {
	return &DiagnosticService{platform: platform, prints: prints, poller: poller}
}

// DebugPrint sends print requests for an existing order, waits, polls each
// print event and explains the likely cause of every observed state. All
// failures end up in the diagnostic; nothing is returned as an error.
func (s *DiagnosticService) DebugPrint(ctx context.Context, orderID string, opts PrintOptions) *Diagnostic {
	diag := &Diagnostic{
		OrderID:         orderID,
		TriedAllDevices: opts.TryAllDevices,
		CheckedAfter:    s.poller.Interval().String(),
		Attempts:        []PrintAttempt{},
		WhyNoPrint:      []string{},
	}

	s.checkOrder(ctx, diag)

	targets := []model.Device{{ID: opts.DeviceID}}
	if opts.TryAllDevices {
		devices, err := s.prints.ListDevices(ctx)
		if err != nil {
			f := NewFailure(StepListDevices, err)
			diag.explain("Could not list devices (%s). %s", f.Error, f.Hint)
			return diag
		}
		if len(devices) == 0 {
			diag.explain("No devices are registered for this merchant, so there is nothing to print on.")
			return diag
		}
		targets = devices
	}

	for _, d := range targets {
		attempt := s.attempt(ctx, orderID, d, diag)
		diag.Attempts = append(diag.Attempts, attempt)
	}

	slog.Info("debug print finished", "order", orderID, "attempts", len(diag.Attempts), "findings", len(diag.WhyNoPrint))
	return diag
}

func (s *DiagnosticService) checkOrder(ctx context.Context, diag *Diagnostic) {
	order, _, err := s.platform.GetOrder(ctx, diag.OrderID)
	if err != nil {
		f := NewFailure(StepFetchOrder, err)
		diag.explain("Could not fetch order %s (%s). %s", diag.OrderID, f.Error, f.Hint)
		return
	}

	diag.OrderState = order.State
	if order.State != model.OrderStateLocked {
		diag.explain("Order %s is in state %q, not %q. Automatic printing only fires when an order is locked; create a fresh one with POST /test-print.",
			order.ID, order.State, model.OrderStateLocked)
	}
	if len(order.LineItems) == 0 {
		diag.explain("Order %s has no line items, so an order ticket has nothing to print.", order.ID)
	}
}

func (s *DiagnosticService) attempt(ctx context.Context, orderID string, d model.Device, diag *Diagnostic) PrintAttempt {
	at := PrintAttempt{DeviceID: d.ID, DeviceName: d.Name}
	target := "the firing device"
	if d.ID != "" {
		target = "device " + d.Label()
	}

	res, err := s.prints.printOne(ctx, orderID, d)
	if err != nil {
		at.Failure = res.Failure
		diag.explain("Print request for %s was rejected (%s). %s", target, res.Failure.Error, res.Failure.Hint)
		return at
	}
	at.PrintEventID = res.PrintEvent.ID
	at.InitialState = res.PrintEvent.State
	at.CreatedTime = res.PrintEvent.CreatedTime

	ev, polls, err := s.poller.Wait(ctx, res.PrintEvent.ID)
	at.Polls = polls
	if ev != nil {
		at.FinalState = ev.State
	}
	if err != nil {
		at.Failure = NewFailure(StepPrint, err)
		diag.explain("Could not read the status of print event %s for %s (%s). The event was created; run debug-print again later.",
			at.PrintEventID, target, at.Failure.Error)
		return at
	}

	switch at.FinalState {
	case model.PrintStateFailed:
		diag.explain("Print event %s on %s is FAILED: the job reached the platform but the device could not print it. Check that a printer is attached to the device, powered on, loaded with paper and enabled as an order printer.",
			at.PrintEventID, target)
	case model.PrintStateDone:
		diag.explain("Print event %s on %s is DONE: the job reached the device. If nothing came out, check the physical printer (paper, cover, cable or network) and the device's printer settings.",
			at.PrintEventID, target)
	default:
		diag.explain("Print event %s on %s is still %s after %s: the device may be offline or asleep, or the platform is still processing the job. Wake the device, check it is online, and run debug-print again.",
			at.PrintEventID, target, stateOrUnknown(at.FinalState), s.poller.Interval()*time.Duration(polls))
	}
	return at
}

func stateOrUnknown(state string) string {
	if state == "" {
		return "UNKNOWN"
	}
	return state
}
