package models

import "time"

type UpdateKind string

const (
	UpdateRoomCreated   UpdateKind = "room_created"
	UpdateMemberJoined  UpdateKind = "member_joined"
	UpdateMessageSent   UpdateKind = "message_sent"
	UpdateInviteChanged UpdateKind = "invite_changed"
)

type UpdateMeta struct {
	Timestamp time.Time `json:"timestamp"`
	Audience  []string  `json:"audience,omitempty"`
}

// Update is the envelope published to the updates topic and pushed to
// subscribed clients. Exactly one payload field is set, matching Kind.
// Delivery is at-least-once; consumers must merge idempotently.
type Update struct {
	Kind   UpdateKind `json:"kind"`
	RoomID string     `json:"room_id"`
	Meta   UpdateMeta `json:"meta"`

	Room    *Room       `json:"room,omitempty"`
	Member  *Membership `json:"member,omitempty"`
	Message *Message    `json:"message,omitempty"`
	Invite  *Invite     `json:"invite,omitempty"`
}
