package handler

import (
	"net/http"

	"printcheck/internal/model"
	"printcheck/internal/service"
)

type devicesResponse struct {
	Success     bool           `json:"success"`
	DeviceCount int            `json:"deviceCount"`
	Devices     []model.Device `json:"devices"`
}

func ListDevicesHandler(printSvc *service.PrintService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		devices, err := printSvc.ListDevices(r.Context())
		if err != nil {
			writeStepError(w, r, "", err)
			return
		}
		if devices == nil {
			devices = []model.Device{}
		}

		writeJSON(w, http.StatusOK, devicesResponse{
			Success:     true,
			DeviceCount: len(devices),
			Devices:     devices,
		})
	}
}
