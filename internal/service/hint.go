package service

import (
	"bytes"
	"net/http"
)

// Hint maps a failed step and the platform's answer to a short remediation
// note. status is 0 when the platform was never reached.
func Hint(step string, status int, body []byte) string {
	lower := bytes.ToLower(body)

	switch {
	case status == 0 && step != "":
		if step == StepCreateItems || step == StepCreateOrder || step == StepPrint {
			return "The platform answered without an id or could not be reached. Check CLOVER_BASE_URL points at the API host, not the dashboard."
		}
		return "The platform could not be reached or answered unexpectedly. Check CLOVER_BASE_URL and network access."
	case status == http.StatusUnauthorized:
		return "Access token rejected. Check CLOVER_ACCESS_TOKEN and that it was issued for the same environment as CLOVER_BASE_URL (sandbox tokens do not work on production and vice versa)."
	case status == http.StatusForbidden:
		return "Token is valid but lacks permission for this call. Make sure the app has orders, inventory and merchant read/write permissions."
	case status == http.StatusNotFound && step == StepPrint:
		return "Order or device not found. Check the orderId and deviceId (GET /test-print/devices lists valid ids)."
	case status == http.StatusNotFound:
		return "Resource not found. Check CLOVER_MERCHANT_ID and that CLOVER_BASE_URL matches the merchant's environment and region."
	case status == http.StatusUnprocessableEntity && step == StepLockOrder:
		return "The platform rejected the lock request. Try updating the order state with an alternate HTTP verb (PUT instead of POST), or check the order has line items."
	case status == http.StatusBadRequest && step == StepPrint && bytes.Contains(lower, []byte("device")):
		return "The device reference was rejected. Use an id from GET /test-print/devices or omit deviceId to use the firing device."
	case status == http.StatusBadRequest && step == StepPrint:
		return "Print request rejected. The order may not be locked yet, or the merchant has no order printer configured."
	case status == http.StatusTooManyRequests:
		return "Rate limited by the platform. Wait a few seconds before trying again."
	case status >= http.StatusInternalServerError:
		return "Platform-side error. Check the platform status page and try again later."
	}

	switch step {
	case StepCreateItems:
		return "Item creation failed. The token needs inventory write permission."
	case StepCreateOrder, StepAddLineItems:
		return "Order creation failed. The token needs orders write permission."
	case StepListDevices:
		return "Device listing failed. The token needs merchant read permission."
	default:
		return "Check the details field for the platform's own error message."
	}
}
