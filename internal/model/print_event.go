package model

const (
	PrintStateCreated  = "CREATED"
	PrintStatePrinting = "PRINTING"
	PrintStateFailed   = "FAILED"
	PrintStateDone     = "DONE"
)

type PrintEvent struct {
	ID          string `json:"id,omitempty"`
	State       string `json:"state,omitempty"` // CREATED, PRINTING, FAILED, DONE
	OrderRef    *Ref   `json:"orderRef,omitempty"`
	DeviceRef   *Ref   `json:"deviceRef,omitempty"`
	CreatedTime int64  `json:"createdTime,omitempty"`
}

// Terminal reports whether the platform will not move the event any further.
func (e PrintEvent) Terminal() bool {
	return e.State == PrintStateDone || e.State == PrintStateFailed
}
