package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"printcheck/internal/service"
)

type checkResponse struct {
	Success          bool   `json:"success"`
	RecentOrderCount int    `json:"recentOrderCount"`
	MerchantID       string `json:"merchantId"`
	BaseURL          string `json:"baseUrl"`
}

type verifyResponse struct {
	Success bool `json:"success"`
	*service.Confirmation
}

// CheckHandler reads at most one recent order to prove the credentials work.
func CheckHandler(orderSvc *service.OrderService, merchantID, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := orderSvc.RecentOrders(r.Context(), 1)
		if err != nil {
			writeStepError(w, r, "", err)
			return
		}

		writeJSON(w, http.StatusOK, checkResponse{
			Success:          true,
			RecentOrderCount: len(orders),
			MerchantID:       merchantID,
			BaseURL:          baseURL,
		})
	}
}

func VerifyOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")

		c, err := orderSvc.Verify(r.Context(), orderID)
		if err != nil {
			writeStepError(w, r, orderID, err)
			return
		}

		writeJSON(w, http.StatusOK, verifyResponse{Success: true, Confirmation: c})
	}
}
