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

const (
	defaultMessageLimit = 100
	maxMessageLimit     = 500
)

// MessagesUsecase is the append-only per-room message log.
type MessagesUsecase struct {
	registry storage.Registry
}

func NewMessagesUsecase(r storage.Registry) *MessagesUsecase {
	return &MessagesUsecase{
		registry: r,
	}
}

func (u *MessagesUsecase) Send(ctx context.Context, actorId, roomId, body string) (*models.Message, error) {
	if actorId == "" {
		return nil, ErrAuthenticationRequired
	}

	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: message body is required", ErrInvalidArgument)
	}

	message := models.Message{
		MessageID: uuid.NewString(),
		RoomID:    roomId,
		SenderID:  actorId,
		Body:      trimmed,
		SentAt:    time.Now().UTC(),
	}

	err := u.registry.Atomic(ctx, func(r storage.Registry) error {
		rooms := r.GetRoomsStore()

		_, err := rooms.RoleOf(ctx, roomId, actorId)
		if errors.Is(err, storage.ErrMembershipNotFound) {
			return ErrNotARoomMember
		} else if err != nil {
			return err
		}

		if err := r.GetMessagesStore().PutMessage(ctx, &message); err != nil {
			return err
		}

		members, err := rooms.ListMembers(ctx, roomId)
		if err != nil {
			return err
		}
		audience := make([]string, len(members))
		for i, m := range members {
			audience[i] = m.UserID
		}
		return r.GetUpdatesStore().MessageSent(&message, audience)
	})

	if err != nil {
		return nil, err
	}
	return &message, nil
}

// Recent returns the room's newest messages, newest first. Membership is
// required to read.
func (u *MessagesUsecase) Recent(ctx context.Context, actorId, roomId string, limit uint64) ([]models.Message, error) {
	if actorId == "" {
		return nil, ErrAuthenticationRequired
	}
	if limit == 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	_, err := u.registry.GetRoomsStore().RoleOf(ctx, roomId, actorId)
	if errors.Is(err, storage.ErrMembershipNotFound) {
		return nil, ErrNotARoomMember
	} else if err != nil {
		return nil, err
	}

	return u.registry.GetMessagesStore().Recent(ctx, roomId, limit)
}
