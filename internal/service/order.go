package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"printcheck/internal/model"
)

var testItems = []model.Item{
	{Name: "Print Test Item A", Price: 100},
	{Name: "Print Test Item B", Price: 250},
}

type TestPrintResult struct {
	RunID        string       `json:"runId"`
	OrderID      string       `json:"orderId"`
	Items        []model.Item `json:"items"`
	PrintEvent   PrintOutcome `json:"printEvent"`
	Confirmation Confirmation `json:"confirmation"`
}

type Confirmation struct {
	OrderID       string          `json:"orderId,omitempty"`
	OrderState    string          `json:"orderState"`
	LineItemCount int             `json:"lineItemCount"`
	Total         string          `json:"total,omitempty"`
	OrderDetails  json.RawMessage `json:"orderDetails,omitempty"`
	*Failure
}

type OrderService struct {
	platform *PlatformClient
	prints   *PrintService
}

func NewOrderService(platform *PlatformClient, prints *PrintService) *OrderService {
	return &OrderService{platform: platform, prints: prints}
}

// CreateAndPrint runs items -> open order -> line items -> lock -> print ->
// confirm. Anything failing before the print step aborts with a StepError;
// print and confirmation failures are reported inside the result.
func (s *OrderService) CreateAndPrint(ctx context.Context, opts PrintOptions) (*TestPrintResult, error) {
	runID := uuid.NewString()
	log := slog.With("run", runID)

	log.Info("creating test items")
	items := make([]model.Item, 0, len(testItems))
	for _, it := range testItems {
		created, err := s.platform.CreateItem(ctx, it)
		if err != nil {
			return nil, stepErr(StepCreateItems, err)
		}
		if created.ID == "" {
			return nil, stepErr(StepCreateItems, fmt.Errorf("item %q: %w", it.Name, ErrMissingID))
		}
		items = append(items, *created)
	}

	log.Info("creating order")
	order, err := s.platform.CreateOrder(ctx, model.Order{
		State: model.OrderStateOpen,
		Title: "Print test",
		Note:  "printcheck run " + runID,
	})
	if err != nil {
		return nil, stepErr(StepCreateOrder, err)
	}
	if order.ID == "" {
		return nil, stepErr(StepCreateOrder, ErrMissingID)
	}
	log = log.With("order", order.ID)

	log.Info("adding line items", "count", len(items))
	for _, it := range items {
		if _, err := s.platform.AddLineItem(ctx, order.ID, it.ID); err != nil {
			return nil, stepErr(StepAddLineItems, err)
		}
	}

	log.Info("locking order")
	if _, err := s.platform.UpdateOrderState(ctx, order.ID, model.OrderStateLocked); err != nil {
		return nil, stepErr(StepLockOrder, err)
	}
	log.Info("order locked")

	outcome, err := s.prints.Send(ctx, order.ID, opts)
	if err != nil {
		// the order exists and is locked; report the print failure in the payload
		log.Warn("print step failed", "error", err)
	}

	return &TestPrintResult{
		RunID:        runID,
		OrderID:      order.ID,
		Items:        items,
		PrintEvent:   outcome,
		Confirmation: s.confirm(ctx, order.ID),
	}, nil
}

// Verify re-reads an order with its line items. It does not mutate anything.
func (s *OrderService) Verify(ctx context.Context, orderID string) (*Confirmation, error) {
	order, raw, err := s.platform.GetOrder(ctx, orderID)
	if err != nil {
		return nil, stepErr(StepFetchOrder, err)
	}
	c := summarize(order, raw)
	return &c, nil
}

func (s *OrderService) RecentOrders(ctx context.Context, limit int) ([]model.Order, error) {
	orders, err := s.platform.ListOrders(ctx, limit)
	if err != nil {
		return nil, stepErr(StepCheck, err)
	}
	return orders, nil
}

func (s *OrderService) confirm(ctx context.Context, orderID string) Confirmation {
	order, raw, err := s.platform.GetOrder(ctx, orderID)
	if err != nil {
		slog.Warn("confirmation fetch failed", "order", orderID, "error", err)
		return Confirmation{OrderID: orderID, Failure: NewFailure(StepFetchOrder, err)}
	}
	return summarize(order, raw)
}

func summarize(order *model.Order, raw json.RawMessage) Confirmation {
	total := FormatAmount(order.Total)
	if order.Total == 0 {
		prices := make([]int64, 0, len(order.LineItems))
		for _, li := range order.LineItems {
			prices = append(prices, li.Price)
		}
		total = lineItemsTotal(prices)
	}
	return Confirmation{
		OrderID:       order.ID,
		OrderState:    order.State,
		LineItemCount: len(order.LineItems),
		Total:         total,
		OrderDetails:  raw,
	}
}
