package model

const (
	OrderStateOpen   = "open"
	OrderStateLocked = "locked"
)

// Ref is the platform's way of pointing at another record by id.
type Ref struct {
	ID string `json:"id"`
}

type Order struct {
	ID    string `json:"id,omitempty"`
	State string `json:"state,omitempty"` // open, locked
	Title string `json:"title,omitempty"`
	Note  string `json:"note,omitempty"`
	Total int64  `json:"total,omitempty"`

	// Filled from the expanded lineItems collection, whatever shape it arrives in.
	LineItems []LineItem `json:"-"`
}

type LineItem struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Price int64  `json:"price,omitempty"`
	Item  *Ref   `json:"item,omitempty"`
}
