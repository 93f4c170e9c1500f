package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/habitloop/chat-service/internal/models"
)

var (
	ErrInviteAlreadyExists = errors.New("invite with provided invite_id already exists")
	ErrInviteNotFound      = errors.New("invite with provided invite_id does not exist")
	ErrInviteAlreadyOpen   = errors.New("a live invite for this user in this room already exists")
	ErrInviteStateConflict = errors.New("invite status does not allow the requested transition")
)

const (
	InvitesPrimaryKey       = "chat_room_invites_pkey"
	InvitesLiveUnique       = "chat_room_invites_live_key"
	InvitesRoomIdForeignKey = "chat_room_invites_room_id_fkey"
)

type InvitesStorage struct {
	db Scope
}

func NewInvitesStorage(db Scope) *InvitesStorage {
	return &InvitesStorage{
		db: db,
	}
}

func (s *InvitesStorage) CreateInvite(ctx context.Context, invite *models.Invite) error {
	query, args, err := sq.Insert("chat_room_invites").
		Columns("invite_id", "room_id", "proposer_id", "invitee_id", "status", "created_at", "updated_at").
		Values(invite.InviteID, invite.RoomID, invite.ProposerID, invite.InviteeID, invite.Status, invite.CreatedAt, invite.UpdatedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)

	switch GetPgxConstraintName(err) {
	case InvitesPrimaryKey:
		return ErrInviteAlreadyExists
	case InvitesLiveUnique:
		return ErrInviteAlreadyOpen
	case InvitesRoomIdForeignKey:
		return ErrRoomNotFound
	default:
		return err
	}
}

func (s *InvitesStorage) GetInvite(ctx context.Context, inviteId string) (*models.Invite, error) {
	query, args, err := sq.Select("*").
		From("chat_room_invites").
		Where(sq.Eq{"invite_id": inviteId}).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	invite := models.Invite{}
	err = s.db.GetContext(ctx, &invite, query, args...)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInviteNotFound
	} else if err != nil {
		return nil, err
	}
	return &invite, nil
}

// transition performs the compare-and-swap on status. The WHERE clause on
// the current status makes exactly one of two racing transitions win; the
// loser observes zero affected rows and gets ErrInviteStateConflict.
func (s *InvitesStorage) transition(ctx context.Context, inviteId string, from models.InviteStatus, set map[string]interface{}) error {
	builder := sq.Update("chat_room_invites").
		Where(sq.Eq{
			"invite_id": inviteId,
			"status":    from,
		}).
		PlaceholderFormat(sq.Dollar)

	for column, value := range set {
		builder = builder.Set(column, value)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	count, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if count == 0 {
		if _, err := s.GetInvite(ctx, inviteId); err != nil {
			return err
		}
		return ErrInviteStateConflict
	}
	return nil
}

func (s *InvitesStorage) MarkApproved(ctx context.Context, inviteId, approvedBy string, now time.Time) error {
	return s.transition(ctx, inviteId, models.InviteProposed, map[string]interface{}{
		"status":      models.InviteApproved,
		"approved_by": approvedBy,
		"approved_at": now,
		"resolved_at": now,
		"updated_at":  now,
	})
}

func (s *InvitesStorage) MarkRejected(ctx context.Context, inviteId string, now time.Time) error {
	return s.transition(ctx, inviteId, models.InviteProposed, map[string]interface{}{
		"status":      models.InviteRejected,
		"resolved_at": now,
		"updated_at":  now,
	})
}

func (s *InvitesStorage) MarkJoined(ctx context.Context, inviteId string, now time.Time) error {
	return s.transition(ctx, inviteId, models.InviteApproved, map[string]interface{}{
		"status":      models.InviteJoined,
		"resolved_at": now,
		"updated_at":  now,
	})
}

// ExpireOlderThan sweeps live invites created before the cutoff into the
// expired state and returns the swept rows for update publication.
func (s *InvitesStorage) ExpireOlderThan(ctx context.Context, cutoff time.Time, now time.Time) ([]models.Invite, error) {
	query, args, err := sq.Update("chat_room_invites").
		Set("status", models.InviteExpired).
		Set("resolved_at", now).
		Set("updated_at", now).
		Where(sq.Lt{"created_at": cutoff}).
		Where(sq.Eq{"status": []models.InviteStatus{models.InviteProposed, models.InviteApproved}}).
		Suffix("RETURNING *").
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	expired := make([]models.Invite, 0)
	err = s.db.SelectContext(ctx, &expired, query, args...)
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func (s *InvitesStorage) selectInvites(ctx context.Context, selector sq.Sqlizer) ([]models.Invite, error) {
	query, args, err := sq.Select("i.*").
		From("chat_room_invites i").
		Where(selector).
		OrderBy("i.created_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	invites := make([]models.Invite, 0)
	err = s.db.SelectContext(ctx, &invites, query, args...)
	if err != nil {
		return nil, err
	}
	return invites, nil
}

func (s *InvitesStorage) PendingByRoom(ctx context.Context, roomId string) ([]models.Invite, error) {
	return s.selectInvites(ctx, sq.Eq{
		"i.room_id": roomId,
		"i.status":  models.InviteProposed,
	})
}

func (s *InvitesStorage) ApprovedForInvitee(ctx context.Context, userId string) ([]models.Invite, error) {
	return s.selectInvites(ctx, sq.Eq{
		"i.invitee_id": userId,
		"i.status":     models.InviteApproved,
	})
}

// PendingRequiringApproval returns proposed invites of every room where the
// user holds an owner or admin role.
func (s *InvitesStorage) PendingRequiringApproval(ctx context.Context, userId string) ([]models.Invite, error) {
	query, args, err := sq.Select("i.*").
		From("chat_room_invites i").
		Join("chat_room_members m ON m.room_id = i.room_id").
		Where(sq.Eq{
			"i.status":  models.InviteProposed,
			"m.user_id": userId,
			"m.role":    []models.Role{models.RoleOwner, models.RoleAdmin},
		}).
		OrderBy("i.created_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	invites := make([]models.Invite, 0)
	err = s.db.SelectContext(ctx, &invites, query, args...)
	if err != nil {
		return nil, err
	}
	return invites, nil
}
