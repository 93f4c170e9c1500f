package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/habitloop/chat-service/internal/models"
	storage "github.com/habitloop/chat-service/internal/storages"
)

// ProfilesUsecase is the profile directory consumed for label hydration and
// invite-by-username lookups.
type ProfilesUsecase struct {
	registry storage.Registry
}

func NewProfilesUsecase(r storage.Registry) *ProfilesUsecase {
	return &ProfilesUsecase{
		registry: r,
	}
}

// GetProfiles performs the batched lookup. Ids are deduplicated; unknown ids
// are absent from the result, never an error.
func (u *ProfilesUsecase) GetProfiles(ctx context.Context, actorId string, ids []string) (map[string]models.Profile, error) {
	if actorId == "" {
		return nil, ErrAuthenticationRequired
	}

	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	return u.registry.GetProfilesStore().GetByIDs(ctx, unique)
}

func (u *ProfilesUsecase) FindByUsername(ctx context.Context, actorId, username string) (*models.Profile, error) {
	if actorId == "" {
		return nil, ErrAuthenticationRequired
	}

	normalized := strings.ToLower(strings.TrimSpace(username))
	if normalized == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}

	return u.registry.GetProfilesStore().GetByUsername(ctx, normalized)
}
