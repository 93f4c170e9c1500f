package models

import "time"

type RoomKind string

const (
	RoomKindDirect RoomKind = "dm"
	RoomKindGroup  RoomKind = "group_private"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// CanManageInvites reports whether the role may propose or approve invites.
func (r Role) CanManageInvites() bool {
	return r == RoleOwner || r == RoleAdmin
}

type Room struct {
	RoomID    string    `json:"room_id" db:"room_id"`
	Kind      RoomKind  `json:"room_type" db:"room_type"`
	Name      *string   `json:"name" db:"name"`
	DirectKey *string   `json:"-" db:"direct_key"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Membership struct {
	RoomID   string    `json:"room_id" db:"room_id"`
	UserID   string    `json:"user_id" db:"user_id"`
	Role     Role      `json:"role" db:"role"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}

type RoomWithMembers struct {
	Room
	Members []Membership `json:"members"`
}

// DirectRoomKey builds the canonical key for the unordered pair of direct
// room participants. The unique index on chat_rooms.direct_key makes the
// second concurrent creation for the same pair fail instead of producing a
// duplicate room.
func DirectRoomKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}
