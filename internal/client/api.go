package client

import (
	"context"

	"github.com/habitloop/chat-service/internal/models"
)

// API is the backend surface the sync controller operates against. The
// controller never touches storage directly; everything goes through these
// operations so the controller can be exercised against a fake in tests.
type API interface {
	ResolveDirectRoom(ctx context.Context, friendId string) (string, error)
	CreateGroupRoom(ctx context.Context, name string) (*models.Room, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
	RoleOf(ctx context.Context, roomId string) (models.Role, error)

	RecentMessages(ctx context.Context, roomId string, limit int) ([]models.Message, error)
	SendMessage(ctx context.Context, roomId, body string) (*models.Message, error)

	PendingInvites(ctx context.Context, roomId string) ([]models.Invite, error)
	ProposeInvite(ctx context.Context, roomId, inviteeId string) (*models.Invite, error)
	ApproveInvite(ctx context.Context, inviteId string) (*models.Invite, error)
	RejectInvite(ctx context.Context, inviteId string) (*models.Invite, error)
	JoinInvite(ctx context.Context, inviteId string) (*models.Invite, error)
	ApprovalsRequired(ctx context.Context) ([]models.Invite, error)
	ApprovedForMe(ctx context.Context) ([]models.Invite, error)

	GetProfiles(ctx context.Context, ids []string) (map[string]models.Profile, error)
	FindProfileByUsername(ctx context.Context, username string) (*models.Profile, error)
}

// Stream is one room's live update feed.
type Stream interface {
	Updates() <-chan models.Update
	Close() error
}

// Streamer opens room-scoped update streams.
type Streamer interface {
	Subscribe(ctx context.Context, roomId string) (Stream, error)
}
