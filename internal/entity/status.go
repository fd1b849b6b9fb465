package entity

type ShareStatus string

const (
	SharePending   ShareStatus = "pending"
	ShareApproved  ShareStatus = "approved"
	ShareRejected  ShareStatus = "rejected"
	ShareCancelled ShareStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted.
// Expiration is not a status; it is derived from expires_at at read time.
func (s ShareStatus) Terminal() bool {
	return s == ShareApproved || s == ShareRejected || s == ShareCancelled
}
