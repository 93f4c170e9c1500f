package storage

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/habitloop/chat-service/internal/models"
)

var (
	ErrMessageAlreadyExists = errors.New("message with provided message_id already exists")
	ErrMessageNotFound      = errors.New("message does not exist")
)

const (
	MessagesPrimaryKey       = "chat_messages_pkey"
	MessagesRoomIdForeignKey = "chat_messages_room_id_fkey"
)

type MessagesStorage struct {
	db Scope
}

func NewMessagesStorage(db Scope) *MessagesStorage {
	return &MessagesStorage{
		db: db,
	}
}

func (s *MessagesStorage) PutMessage(ctx context.Context, message *models.Message) error {
	query, args, err := sq.Insert("chat_messages").
		Columns("message_id", "room_id", "sender_id", "body", "sent_at").
		Values(message.MessageID, message.RoomID, message.SenderID, message.Body, message.SentAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)

	switch GetPgxConstraintName(err) {
	case MessagesPrimaryKey:
		return ErrMessageAlreadyExists
	case MessagesRoomIdForeignKey:
		return ErrRoomNotFound
	default:
		return err
	}
}

// Recent returns the newest messages of a room. Ordering is sent_at with
// message_id as tie-break, newest first, which gives a total order even for
// messages stored within the same timestamp tick.
func (s *MessagesStorage) Recent(ctx context.Context, roomId string, limit uint64) ([]models.Message, error) {
	query, args, err := sq.Select("*").
		From("chat_messages").
		Where(sq.Eq{"room_id": roomId}).
		OrderBy("sent_at DESC", "message_id DESC").
		Limit(limit).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0)
	err = s.db.SelectContext(ctx, &messages, query, args...)
	if err != nil {
		return nil, err
	}
	return messages, nil
}
