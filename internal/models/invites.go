package models

import "time"

// InviteStatus values are persisted verbatim; they must stay in sync with
// the chat_room_invites.status check constraint.
type InviteStatus string

const (
	InviteProposed InviteStatus = "proposed"
	InviteApproved InviteStatus = "approved"
	InviteRejected InviteStatus = "rejected"
	InviteJoined   InviteStatus = "joined"
	InviteExpired  InviteStatus = "expired"
)

// Terminal reports whether no further transitions may leave the status.
func (s InviteStatus) Terminal() bool {
	return s == InviteRejected || s == InviteJoined || s == InviteExpired
}

type Invite struct {
	InviteID   string       `json:"invite_id" db:"invite_id"`
	RoomID     string       `json:"room_id" db:"room_id"`
	ProposerID string       `json:"proposer_id" db:"proposer_id"`
	InviteeID  string       `json:"invitee_id" db:"invitee_id"`
	Status     InviteStatus `json:"status" db:"status"`
	ApprovedBy *string      `json:"approved_by" db:"approved_by"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
	ApprovedAt *time.Time   `json:"approved_at" db:"approved_at"`
	ResolvedAt *time.Time   `json:"resolved_at" db:"resolved_at"`
}
