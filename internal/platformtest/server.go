// Package platformtest runs an in-process fake of the order/print platform
// for tests. It keeps orders, items and print events in memory and records
// every call it receives.
package platformtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"printcheck/internal/model"
)

const (
	MerchantID = "TESTMERCHANT"
	Token      = "test-token"
)

// Device list shapes the fake can answer with.
const (
	ShapeBare     = ""
	ShapeElements = "elements"
	ShapeData     = "data"
)

type Server struct {
	*httptest.Server

	// Knobs; set them before issuing requests.
	DeviceShape string
	OmitItemID  bool
	OmitOrderID bool
	OmitEventID bool
	LockStatus  int            // non-zero: lock requests answer with this status
	ItemStatus  int            // non-zero: item creation answers with this status
	FailDevices map[string]int // device id -> status answered for its print events
	EventState  string         // state reported when a print event is read back, DONE if empty
	EventStatus int            // non-zero: print event reads answer with this status

	mu      sync.Mutex
	seq     int
	calls   []string
	devices []model.Device
	items   map[string]model.Item
	orders  map[string]*order
	events  map[string]*model.PrintEvent
}

type order struct {
	model.Order
	lineItems []model.LineItem
}

func New(t testing.TB, devices ...model.Device) *Server {
	t.Helper()

	s := &Server{
		FailDevices: map[string]int{},
		devices:     devices,
		items:       map[string]model.Item{},
		orders:      map[string]*order{},
		events:      map[string]*model.PrintEvent{},
	}

	r := chi.NewRouter()
	r.Route("/v3/merchants/{merchantID}", func(r chi.Router) {
		r.Use(s.record, s.auth)
		r.Post("/items", s.createItem)
		r.Get("/orders", s.listOrders)
		r.Post("/orders", s.createOrder)
		r.Get("/orders/{orderID}", s.getOrder)
		r.Post("/orders/{orderID}", s.updateOrder)
		r.Post("/orders/{orderID}/line_items", s.addLineItem)
		r.Get("/devices", s.listDevices)
		r.Post("/print_event", s.createPrintEvent)
		r.Get("/print_event/{eventID}", s.getPrintEvent)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Calls returns "METHOD /path" for every request received so far, with the
// merchant prefix stripped.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CallCount counts recorded calls starting with prefix, e.g. "POST /orders".
func (s *Server) CallCount(prefix string) int {
	n := 0
	for _, c := range s.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// SeedOrder stores an order directly, bypassing the API.
func (s *Server) SeedOrder(id, state string, lineItems int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := &order{Order: model.Order{ID: id, State: state}}
	for i := 0; i < lineItems; i++ {
		o.lineItems = append(o.lineItems, model.LineItem{ID: fmt.Sprintf("%s-LI%d", id, i+1), Name: "Seeded", Price: 100})
	}
	s.orders[id] = o
}

func (s *Server) OrderState(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		return o.State
	}
	return ""
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := "/v3/merchants/" + chi.URLParam(r, "merchantID")
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+strings.TrimPrefix(r.URL.Path, prefix))
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "401 Unauthorized"})
			return
		}
		if chi.URLParam(r, "merchantID") != MerchantID {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Merchant not found"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return prefix + strconv.Itoa(s.seq)
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var it model.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ItemStatus != 0 {
		writeJSON(w, s.ItemStatus, map[string]string{"message": "item rejected"})
		return
	}
	it.ID = s.nextID("ITEM")
	s.items[it.ID] = it
	if s.OmitItemID {
		it.ID = ""
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var o model.Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.nextID("ORDER")
	s.orders[o.ID] = &order{Order: o}
	if s.OmitOrderID {
		o.ID = ""
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.orders))
	for _, o := range s.orders {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, o.doc())
	}
	writeJSON(w, http.StatusOK, map[string]any{"elements": out})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[chi.URLParam(r, "orderID")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Order not found"})
		return
	}
	writeJSON(w, http.StatusOK, o.doc())
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	var patch model.Order
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[chi.URLParam(r, "orderID")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Order not found"})
		return
	}
	if s.LockStatus != 0 && patch.State == model.OrderStateLocked {
		writeJSON(w, s.LockStatus, map[string]string{"message": "cannot lock order"})
		return
	}
	if patch.State != "" {
		o.State = patch.State
	}
	writeJSON(w, http.StatusOK, o.doc())
}

func (s *Server) addLineItem(w http.ResponseWriter, r *http.Request) {
	var li model.LineItem
	if err := json.NewDecoder(r.Body).Decode(&li); err != nil || li.Item == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "item required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[chi.URLParam(r, "orderID")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Order not found"})
		return
	}
	it, ok := s.items[li.Item.ID]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Unknown item"})
		return
	}
	li.ID = s.nextID("LI")
	li.Name = it.Name
	li.Price = it.Price
	o.lineItems = append(o.lineItems, li)
	writeJSON(w, http.StatusOK, li)
}

func (s *Server) listDevices(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	devices := append([]model.Device{}, s.devices...)
	switch s.DeviceShape {
	case ShapeElements:
		writeJSON(w, http.StatusOK, map[string]any{"elements": devices})
	case ShapeData:
		writeJSON(w, http.StatusOK, map[string]any{"data": devices})
	default:
		writeJSON(w, http.StatusOK, devices)
	}
}

func (s *Server) createPrintEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.PrintEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil || ev.OrderRef == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "orderRef required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[ev.OrderRef.ID]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Order not found"})
		return
	}
	if ev.DeviceRef != nil {
		if status, ok := s.FailDevices[ev.DeviceRef.ID]; ok {
			writeJSON(w, status, map[string]string{"message": "device unavailable"})
			return
		}
		if !s.hasDevice(ev.DeviceRef.ID) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid device"})
			return
		}
	}
	ev.ID = s.nextID("EV")
	ev.State = model.PrintStateCreated
	ev.CreatedTime = 1700000000000 + int64(s.seq)
	s.events[ev.ID] = &ev
	if s.OmitEventID {
		writeJSON(w, http.StatusOK, map[string]any{"state": ev.State})
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) getPrintEvent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.EventStatus != 0 {
		writeJSON(w, s.EventStatus, map[string]string{"message": "print event unavailable"})
		return
	}
	ev, ok := s.events[chi.URLParam(r, "eventID")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Print event not found"})
		return
	}
	ev.State = model.PrintStateDone
	if s.EventState != "" {
		ev.State = s.EventState
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) hasDevice(id string) bool {
	for _, d := range s.devices {
		if d.ID == id {
			return true
		}
	}
	return false
}

func (o *order) doc() map[string]any {
	var total int64
	for _, li := range o.lineItems {
		total += li.Price
	}
	lineItems := append([]model.LineItem{}, o.lineItems...)
	return map[string]any{
		"id":        o.ID,
		"state":     o.State,
		"title":     o.Title,
		"note":      o.Note,
		"total":     total,
		"lineItems": map[string]any{"elements": lineItems},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
