package storage

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/habitloop/chat-service/internal/models"
)

var (
	ErrRoomAlreadyExists  = errors.New("room with provided room_id already exists")
	ErrRoomNotFound       = errors.New("room with provided room_id does not exist")
	ErrDirectRoomExists   = errors.New("direct room for this pair of users already exists")
	ErrUserAlreadyMember  = errors.New("user is already a member of this room")
	ErrMembershipNotFound = errors.New("user is not a member of this room")
)

const (
	RoomsPrimaryKey         = "chat_rooms_pkey"
	RoomsDirectKeyUnique    = "chat_rooms_direct_key_key"
	MembersPrimaryKey       = "chat_room_members_pkey"
	MembersRoomIdForeignKey = "chat_room_members_room_id_fkey"
)

type RoomsStorage struct {
	db Scope
}

func NewRoomsStorage(db Scope) *RoomsStorage {
	return &RoomsStorage{
		db: db,
	}
}

func (s *RoomsStorage) CreateRoom(ctx context.Context, room *models.Room) error {
	query, args, err := sq.Insert("chat_rooms").
		Columns("room_id", "room_type", "name", "direct_key", "created_at").
		Values(room.RoomID, room.Kind, room.Name, room.DirectKey, room.CreatedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)

	switch GetPgxConstraintName(err) {
	case RoomsPrimaryKey:
		return ErrRoomAlreadyExists
	case RoomsDirectKeyUnique:
		return ErrDirectRoomExists
	default:
		return err
	}
}

func (s *RoomsStorage) GetRoom(ctx context.Context, roomId string) (*models.Room, error) {
	query, args, err := sq.Select("*").
		From("chat_rooms").
		Where(sq.Eq{"room_id": roomId}).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	room := models.Room{}
	err = s.db.GetContext(ctx, &room, query, args...)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	} else if err != nil {
		return nil, err
	}
	return &room, nil
}

// FindDirectRoom resolves the dm room of an unordered pair of users through
// the canonical direct_key, so both argument orders hit the same row.
func (s *RoomsStorage) FindDirectRoom(ctx context.Context, userA, userB string) (*models.Room, error) {
	query, args, err := sq.Select("*").
		From("chat_rooms").
		Where(sq.Eq{"direct_key": models.DirectRoomKey(userA, userB)}).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	room := models.Room{}
	err = s.db.GetContext(ctx, &room, query, args...)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	} else if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *RoomsStorage) AddMember(ctx context.Context, member *models.Membership) error {
	query, args, err := sq.Insert("chat_room_members").
		Columns("room_id", "user_id", "role", "joined_at").
		Values(member.RoomID, member.UserID, member.Role, member.JoinedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)

	switch GetPgxConstraintName(err) {
	case MembersPrimaryKey:
		return ErrUserAlreadyMember
	case MembersRoomIdForeignKey:
		return ErrRoomNotFound
	default:
		return err
	}
}

// RoleOf returns ErrMembershipNotFound when the user has no membership row,
// which doubles as the authorization miss signal for the usecases.
func (s *RoomsStorage) RoleOf(ctx context.Context, roomId, userId string) (models.Role, error) {
	query, args, err := sq.Select("role").
		From("chat_room_members").
		Where(sq.Eq{
			"room_id": roomId,
			"user_id": userId,
		}).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return "", err
	}

	var role models.Role
	err = s.db.GetContext(ctx, &role, query, args...)

	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrMembershipNotFound
	} else if err != nil {
		return "", err
	}
	return role, nil
}

func (s *RoomsStorage) ListMembers(ctx context.Context, roomId string) ([]models.Membership, error) {
	query, args, err := sq.Select("*").
		From("chat_room_members").
		Where(sq.Eq{"room_id": roomId}).
		OrderBy("user_id").
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	members := make([]models.Membership, 0)
	err = s.db.SelectContext(ctx, &members, query, args...)
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (s *RoomsStorage) GetRoomWithMembers(ctx context.Context, roomId string) (*models.RoomWithMembers, error) {
	room, err := s.GetRoom(ctx, roomId)
	if err != nil {
		return nil, err
	}

	members, err := s.ListMembers(ctx, roomId)
	if err != nil {
		return nil, err
	}

	return &models.RoomWithMembers{
		Room:    *room,
		Members: members,
	}, nil
}

func (s *RoomsStorage) ListRoomsForUser(ctx context.Context, userId string) ([]models.Room, error) {
	query, args, err := sq.Select("r.room_id", "r.room_type", "r.name", "r.direct_key", "r.created_at").
		From("chat_rooms r").
		Join("chat_room_members m ON m.room_id = r.room_id").
		Where(sq.Eq{"m.user_id": userId}).
		OrderBy("r.created_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	rooms := make([]models.Room, 0)
	err = s.db.SelectContext(ctx, &rooms, query, args...)
	if err != nil {
		return nil, err
	}
	return rooms, nil
}
