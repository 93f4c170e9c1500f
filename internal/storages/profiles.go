package storage

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/habitloop/chat-service/internal/models"
)

var (
	ErrProfileNotFound = errors.New("profile does not exist")
)

type ProfilesStorage struct {
	db Scope
}

func NewProfilesStorage(db Scope) *ProfilesStorage {
	return &ProfilesStorage{
		db: db,
	}
}

// GetByIDs is the batched lookup backing client label hydration. Unknown ids
// are simply absent from the result map.
func (s *ProfilesStorage) GetByIDs(ctx context.Context, ids []string) (map[string]models.Profile, error) {
	profiles := make(map[string]models.Profile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	query, args, err := sq.Select("*").
		From("profiles").
		Where(sq.Eq{"user_id": ids}).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	rows := make([]models.Profile, 0, len(ids))
	err = s.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	for _, p := range rows {
		profiles[p.UserID] = p
	}
	return profiles, nil
}

func (s *ProfilesStorage) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	query, args, err := sq.Select("*").
		From("profiles").
		Where(sq.Eq{"username": username}).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	profile := models.Profile{}
	err = s.db.GetContext(ctx, &profile, query, args...)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	} else if err != nil {
		return nil, err
	}
	return &profile, nil
}

// FriendshipAccepted reports whether an accepted friendship exists between
// the two users in either direction.
func (s *ProfilesStorage) FriendshipAccepted(ctx context.Context, userA, userB string) (bool, error) {
	query, args, err := sq.Select("1").
		From("friendships").
		Where(sq.Eq{"status": "accepted"}).
		Where(sq.Or{
			sq.Eq{"requester_id": userA, "addressee_id": userB},
			sq.Eq{"requester_id": userB, "addressee_id": userA},
		}).
		Limit(1).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return false, err
	}

	ok := 0
	err = s.db.GetContext(ctx, &ok, query, args...)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return ok == 1, nil
}
