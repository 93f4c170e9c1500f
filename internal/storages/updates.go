package storage

import (
	"encoding/json"
	"time"

	"github.com/Shopify/sarama"
	"github.com/habitloop/chat-service/internal/models"
)

// UpdatesStorage publishes room-scoped update envelopes to the updates
// topic. Messages are keyed by room id so one room's updates stay on one
// partition and arrive in order.
type UpdatesStorage struct {
	cfg      *UpdatesStoreConfig
	producer sarama.SyncProducer
}

type UpdatesStoreConfig struct {
	UpdatesTopic string
}

func NewUpdatesStore(p sarama.SyncProducer, cfg *UpdatesStoreConfig) *UpdatesStorage {
	return &UpdatesStorage{
		producer: p,
		cfg:      cfg,
	}
}

func (s *UpdatesStorage) putUpdate(update *models.Update) error {
	bytes, err := json.Marshal(update)
	if err != nil {
		return err
	}

	_, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.cfg.UpdatesTopic,
		Key:   sarama.StringEncoder(update.RoomID),
		Value: sarama.ByteEncoder(bytes),
	})

	return err
}

func (s *UpdatesStorage) RoomCreated(room *models.Room, audience []string, at time.Time) error {
	return s.putUpdate(&models.Update{
		Kind:   models.UpdateRoomCreated,
		RoomID: room.RoomID,
		Meta: models.UpdateMeta{
			Timestamp: at.UTC(),
			Audience:  audience,
		},
		Room: room,
	})
}

func (s *UpdatesStorage) MemberJoined(member *models.Membership, audience []string, at time.Time) error {
	return s.putUpdate(&models.Update{
		Kind:   models.UpdateMemberJoined,
		RoomID: member.RoomID,
		Meta: models.UpdateMeta{
			Timestamp: at.UTC(),
			Audience:  audience,
		},
		Member: member,
	})
}

func (s *UpdatesStorage) MessageSent(message *models.Message, audience []string) error {
	return s.putUpdate(&models.Update{
		Kind:   models.UpdateMessageSent,
		RoomID: message.RoomID,
		Meta: models.UpdateMeta{
			Timestamp: message.SentAt.UTC(),
			Audience:  audience,
		},
		Message: message,
	})
}

func (s *UpdatesStorage) InviteChanged(invite *models.Invite, audience []string) error {
	return s.putUpdate(&models.Update{
		Kind:   models.UpdateInviteChanged,
		RoomID: invite.RoomID,
		Meta: models.UpdateMeta{
			Timestamp: invite.UpdatedAt.UTC(),
			Audience:  audience,
		},
		Invite: invite,
	})
}
