package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/habitloop/chat-service/internal/models"
	storage "github.com/habitloop/chat-service/internal/storages"
)

// RoomsUsecase is the room directory: it owns room identity and the
// idempotent direct-room resolution.
type RoomsUsecase struct {
	registry storage.Registry
}

func NewRoomsUsecase(r storage.Registry) *RoomsUsecase {
	return &RoomsUsecase{
		registry: r,
	}
}

// ResolveOrCreateDirectRoom returns the dm room of the (actor, friend) pair,
// creating it when absent. Both participants get the member role; dm rooms
// carry no owner. When two callers race on first creation, the loser hits
// the direct_key unique index and converges on the winner's room.
func (u *RoomsUsecase) ResolveOrCreateDirectRoom(ctx context.Context, actorId, friendId string) (string, error) {
	if actorId == "" {
		return "", ErrAuthenticationRequired
	}
	if friendId == "" || friendId == actorId {
		return "", fmt.Errorf("%w: cannot open a direct chat with yourself", ErrInvalidArgument)
	}

	accepted, err := u.registry.GetProfilesStore().FriendshipAccepted(ctx, actorId, friendId)
	if err != nil {
		return "", err
	}
	if !accepted {
		return "", ErrNotFriends
	}

	room, err := u.registry.GetRoomsStore().FindDirectRoom(ctx, actorId, friendId)
	if err == nil {
		return room.RoomID, nil
	}
	if !errors.Is(err, storage.ErrRoomNotFound) {
		return "", err
	}

	now := time.Now().UTC()
	key := models.DirectRoomKey(actorId, friendId)
	created := models.Room{
		RoomID:    uuid.NewString(),
		Kind:      models.RoomKindDirect,
		DirectKey: &key,
		CreatedAt: now,
	}

	err = u.registry.Atomic(ctx, func(r storage.Registry) error {
		store := r.GetRoomsStore()
		if err := store.CreateRoom(ctx, &created); err != nil {
			return err
		}
		for _, userId := range []string{actorId, friendId} {
			err := store.AddMember(ctx, &models.Membership{
				RoomID:   created.RoomID,
				UserID:   userId,
				Role:     models.RoleMember,
				JoinedAt: now,
			})
			if err != nil {
				return err
			}
		}
		return r.GetUpdatesStore().RoomCreated(&created, []string{actorId, friendId}, now)
	})

	if errors.Is(err, storage.ErrDirectRoomExists) {
		room, err := u.registry.GetRoomsStore().FindDirectRoom(ctx, actorId, friendId)
		if err != nil {
			return "", err
		}
		return room.RoomID, nil
	}
	if err != nil {
		return "", err
	}
	return created.RoomID, nil
}

func (u *RoomsUsecase) CreateGroupRoom(ctx context.Context, actorId, name string) (*models.Room, error) {
	if actorId == "" {
		return nil, ErrAuthenticationRequired
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidArgument)
	}

	now := time.Now().UTC()
	created := models.Room{
		RoomID:    uuid.NewString(),
		Kind:      models.RoomKindGroup,
		Name:      &trimmed,
		CreatedAt: now,
	}

	err := u.registry.Atomic(ctx, func(r storage.Registry) error {
		store := r.GetRoomsStore()
		if err := store.CreateRoom(ctx, &created); err != nil {
			return err
		}
		err := store.AddMember(ctx, &models.Membership{
			RoomID:   created.RoomID,
			UserID:   actorId,
			Role:     models.RoleOwner,
			JoinedAt: now,
		})
		if err != nil {
			return err
		}
		return r.GetUpdatesStore().RoomCreated(&created, []string{actorId}, now)
	})

	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (u *RoomsUsecase) ListRooms(ctx context.Context, actorId string) ([]models.Room, error) {
	if actorId == "" {
		return nil, ErrAuthenticationRequired
	}
	return u.registry.GetRoomsStore().ListRoomsForUser(ctx, actorId)
}

// GetRoomWithMembers returns the room and its member list. Membership is
// required to look.
func (u *RoomsUsecase) GetRoomWithMembers(ctx context.Context, roomId, actorId string) (*models.RoomWithMembers, error) {
	if actorId == "" {
		return nil, ErrAuthenticationRequired
	}

	_, err := u.registry.GetRoomsStore().RoleOf(ctx, roomId, actorId)
	if errors.Is(err, storage.ErrMembershipNotFound) {
		return nil, ErrNotARoomMember
	} else if err != nil {
		return nil, err
	}

	return u.registry.GetRoomsStore().GetRoomWithMembers(ctx, roomId)
}

// RoleOf resolves the actor's own role in a room; ErrNotARoomMember when the
// actor has no membership there.
func (u *RoomsUsecase) RoleOf(ctx context.Context, roomId, actorId string) (models.Role, error) {
	if actorId == "" {
		return "", ErrAuthenticationRequired
	}

	role, err := u.registry.GetRoomsStore().RoleOf(ctx, roomId, actorId)
	if errors.Is(err, storage.ErrMembershipNotFound) {
		return "", ErrNotARoomMember
	}
	return role, err
}
