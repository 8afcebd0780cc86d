package domain

import "time"

// Friend request statuses
const (
	FriendPending  = "pending"
	FriendAccepted = "accepted"
	FriendRejected = "rejected"
	FriendCanceled = "canceled"
	FriendBlocked  = "blocked"
)

// Friend represents the relationship record between two users. An accepted
// record is a friendship; any other status is a request in that state.
type Friend struct {
	ID           string    `json:"id" db:"id"`
	Requester    string    `json:"requester" db:"requester"`
	Recipient    string    `json:"recipient" db:"recipient"`
	Status       string    `json:"status" db:"status"`
	LastActionAt time.Time `json:"last_action_at" db:"last_action_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// PendingRequest is one entry of the pending-requests listing: the
// counterpart's profile and when the request was made.
type PendingRequest struct {
	User Snapshot  `json:"user"`
	At   time.Time `json:"at"`
}
