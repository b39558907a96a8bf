package models

// CheckoutStep names how far a checkout got. A checkout that fails after
// CheckoutCharged has taken money without a complete record and is reported
// as inconsistent.
type CheckoutStep string

const (
	CheckoutInitiated      CheckoutStep = "INITIATED"
	CheckoutCartLoaded     CheckoutStep = "CART_LOADED"
	CheckoutCharged        CheckoutStep = "CHARGED"
	CheckoutOrderPersisted CheckoutStep = "ORDER_PERSISTED"
	CheckoutCartCleared    CheckoutStep = "CART_CLEARED"
)

var checkoutNext = map[CheckoutStep]CheckoutStep{
	CheckoutInitiated:      CheckoutCartLoaded,
	CheckoutCartLoaded:     CheckoutCharged,
	CheckoutCharged:        CheckoutOrderPersisted,
	CheckoutOrderPersisted: CheckoutCartCleared,
}

// CanTransitionTo reports whether next directly follows s.
func (s CheckoutStep) CanTransitionTo(next CheckoutStep) bool {
	n, ok := checkoutNext[s]
	return ok && n == next
}

// MoneyTaken reports whether the payment was already captured at this step.
func (s CheckoutStep) MoneyTaken() bool {
	return s == CheckoutCharged || s == CheckoutOrderPersisted || s == CheckoutCartCleared
}

func (s CheckoutStep) String() string { return string(s) }
