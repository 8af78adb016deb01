package model

type Device struct {
	ID             string `json:"id"`
	Name           string `json:"name,omitempty"`
	Model          string `json:"model,omitempty"`
	Serial         string `json:"serial,omitempty"`
	DeviceTypeName string `json:"deviceTypeName,omitempty"`
}

// Label is what gets shown in logs and diagnostics for the device.
func (d Device) Label() string {
	if d.Name != "" {
		return d.Name
	}
	if d.Model != "" {
		return d.Model
	}
	return d.ID
}
