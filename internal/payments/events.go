package payments

// Event is a verified payment processor event. The concrete types below are
// the only implementations.
type Event interface {
	EventID() string
	isEvent()
}

// CheckoutCompleted carries a finished hosted checkout session; chips are
// resolved from the charged total.
type CheckoutCompleted struct {
	ID          string
	SessionID   string
	UserID      string
	AmountTotal int64
}

// PaymentIntentSucceeded carries a confirmed intent; chips are resolved from
// the item id in its metadata.
type PaymentIntentSucceeded struct {
	ID              string
	PaymentIntentID string
	UserID          string
	ItemID          string
	Amount          int64
}

type Unhandled struct {
	ID   string
	Type string
}

func (e CheckoutCompleted) EventID() string      { return e.ID }
func (e PaymentIntentSucceeded) EventID() string { return e.ID }
func (e Unhandled) EventID() string              { return e.ID }

func (CheckoutCompleted) isEvent()      {}
func (PaymentIntentSucceeded) isEvent() {}
func (Unhandled) isEvent()              {}
