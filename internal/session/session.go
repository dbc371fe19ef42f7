package session

// Session is the explicit per-login context threaded through every request.
// It replaces any ambient notion of "the current customer": handlers and
// services only ever see the session they were handed.
type Session struct {
	ID         string `json:"id"`
	CustomerID int    `json:"customerId"`
	Schema     string `json:"schema"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	// Balance is the last balance the gateway saw for this customer. It is
	// a snapshot, refreshed on login, profile fetch and issuance; the
	// backend remains authoritative and may still reject a redemption the
	// snapshot would allow.
	Balance int64 `json:"balance"`
}
