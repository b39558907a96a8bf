package models

// CartItem is one line of a user's cart. There is at most one per
// (UserID, ItemID); adding the same item again bumps Quantity.
type CartItem struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`

	// Item is filled by reads that join the catalog.
	Item *Item `json:"item,omitempty"`
}

// Subtotal is price*quantity, or 0 when the item was not joined.
func (c *CartItem) Subtotal() int64 {
	if c.Item == nil {
		return 0
	}
	return c.Item.Price * int64(c.Quantity)
}

// CartSnapshot is the cart as read at the start of a checkout. Everything
// after the read works from the snapshot, never from a fresh query.
type CartSnapshot struct {
	UserID string
	Items  []*CartItem
}

func (s *CartSnapshot) Empty() bool { return len(s.Items) == 0 }

// Total sums every line's subtotal.
func (s *CartSnapshot) Total() int64 {
	var total int64
	for _, ci := range s.Items {
		total += ci.Subtotal()
	}
	return total
}

// IDs returns the cart item ids captured in the snapshot.
func (s *CartSnapshot) IDs() []string {
	ids := make([]string, 0, len(s.Items))
	for _, ci := range s.Items {
		ids = append(ids, ci.ID)
	}
	return ids
}
