package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/habitloop/chat-service/internal/models"
	storage "github.com/habitloop/chat-service/internal/storages"
	"github.com/sirupsen/logrus"
)

// InvitesUsecase drives the invite lifecycle:
//
//	proposed -> approved -> joined
//	proposed -> rejected
//	proposed/approved -> expired (sweep)
//
// Every transition is a compare-and-swap on status inside a transaction, so
// concurrent actors get exactly one winner and losers surface
// storage.ErrInviteStateConflict.
type InvitesUsecase struct {
	registry storage.Registry
	logger   *logrus.Logger
}

func NewInvitesUsecase(r storage.Registry, logger *logrus.Logger) *InvitesUsecase {
	return &InvitesUsecase{
		registry: r,
		logger:   logger,
	}
}

func (u *InvitesUsecase) audience(ctx context.Context, r storage.Registry, roomId string, extra ...string) []string {
	members, err := r.GetRoomsStore().ListMembers(ctx, roomId)
	if err != nil {
		// audience is advisory; the room id on the envelope is what scopes
		// delivery
		u.logger.WithError(err).WithField("room_id", roomId).Warning("can't resolve update audience")
		return extra
	}

	audience := make([]string, 0, len(members)+len(extra))
	for _, m := range members {
		audience = append(audience, m.UserID)
	}
	return append(audience, extra...)
}

// Propose creates an invite in the proposed state. Only owners and admins of
// a group room may propose; direct rooms never take invites.
func (u *InvitesUsecase) Propose(ctx context.Context, actorId, roomId, inviteeId string) (*models.Invite, error) {
	if actorId == "" {
		return nil, ErrAuthenticationRequired
	}
	if inviteeId == "" {
		return nil, fmt.Errorf("%w: invitee id is required", ErrInvalidArgument)
	}

	now := time.Now().UTC()
	invite := models.Invite{
		InviteID:   uuid.NewString(),
		RoomID:     roomId,
		ProposerID: actorId,
		InviteeID:  inviteeId,
		Status:     models.InviteProposed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := u.registry.Atomic(ctx, func(r storage.Registry) error {
		rooms := r.GetRoomsStore()

		room, err := rooms.GetRoom(ctx, roomId)
		if err != nil {
			return err
		}
		if room.Kind == models.RoomKindDirect {
			return ErrDirectRoomInvite
		}

		role, err := rooms.RoleOf(ctx, roomId, actorId)
		if errors.Is(err, storage.ErrMembershipNotFound) {
			return ErrNotARoomMember
		} else if err != nil {
			return err
		}
		if !role.CanManageInvites() {
			return ErrRoleRequired
		}

		_, err = rooms.RoleOf(ctx, roomId, inviteeId)
		if err == nil {
			return storage.ErrUserAlreadyMember
		} else if !errors.Is(err, storage.ErrMembershipNotFound) {
			return err
		}

		if err := r.GetInvitesStore().CreateInvite(ctx, &invite); err != nil {
			return err
		}
		return r.GetUpdatesStore().InviteChanged(&invite, u.audience(ctx, r, roomId, inviteeId))
	})

	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// Approve moves a proposed invite to approved, recording the approver. A
// concurrent second approval loses the CAS and fails with
// storage.ErrInviteStateConflict instead of silently succeeding.
func (u *InvitesUsecase) Approve(ctx context.Context, actorId, inviteId string) (invite *models.Invite, err error) {
	if actorId == "" {
		return nil, ErrAuthenticationRequired
	}

	err = u.registry.Atomic(ctx, func(r storage.Registry) error {
		invites := r.GetInvitesStore()

		current, err := invites.GetInvite(ctx, inviteId)
		if err != nil {
			return err
		}

		role, err := r.GetRoomsStore().RoleOf(ctx, current.RoomID, actorId)
		if errors.Is(err, storage.ErrMembershipNotFound) {
			return ErrNotARoomMember
		} else if err != nil {
			return err
		}
		if !role.CanManageInvites() {
			return ErrRoleRequired
		}

		now := time.Now().UTC()
		if err := invites.MarkApproved(ctx, inviteId, actorId, now); err != nil {
			return err
		}

		invite, err = invites.GetInvite(ctx, inviteId)
		if err != nil {
			return err
		}
		return r.GetUpdatesStore().InviteChanged(invite, u.audience(ctx, r, invite.RoomID, invite.InviteeID))
	})

	if err != nil {
		return nil, err
	}
	return invite, nil
}

// Reject moves a proposed invite to rejected. Like approve it is only valid
// from the proposed state.
func (u *InvitesUsecase) Reject(ctx context.Context, actorId, inviteId string) (invite *models.Invite, err error) {
	if actorId == "" {
		return nil, ErrAuthenticationRequired
	}

	err = u.registry.Atomic(ctx, func(r storage.Registry) error {
		invites := r.GetInvitesStore()

		now := time.Now().UTC()
		if err := invites.MarkRejected(ctx, inviteId, now); err != nil {
			return err
		}

		invite, err = invites.GetInvite(ctx, inviteId)
		if err != nil {
			return err
		}
		return r.GetUpdatesStore().InviteChanged(invite, u.audience(ctx, r, invite.RoomID, invite.InviteeID))
	})

	if err != nil {
		return nil, err
	}
	return invite, nil
}

// Join turns an approved invite into a membership. Only the invitee may
// join; the membership insert and the approved -> joined transition commit
// atomically.
func (u *InvitesUsecase) Join(ctx context.Context, actorId, inviteId string) (invite *models.Invite, err error) {
	if actorId == "" {
		return nil, ErrAuthenticationRequired
	}

	err = u.registry.Atomic(ctx, func(r storage.Registry) error {
		invites := r.GetInvitesStore()

		current, err := invites.GetInvite(ctx, inviteId)
		if err != nil {
			return err
		}
		if current.InviteeID != actorId {
			return ErrNotInvitee
		}
		if current.Status != models.InviteApproved {
			return storage.ErrInviteStateConflict
		}

		now := time.Now().UTC()
		member := models.Membership{
			RoomID:   current.RoomID,
			UserID:   actorId,
			Role:     models.RoleMember,
			JoinedAt: now,
		}
		if err := r.GetRoomsStore().AddMember(ctx, &member); err != nil {
			return err
		}
		if err := invites.MarkJoined(ctx, inviteId, now); err != nil {
			return err
		}

		invite, err = invites.GetInvite(ctx, inviteId)
		if err != nil {
			return err
		}

		upd := r.GetUpdatesStore()
		audience := u.audience(ctx, r, invite.RoomID)
		if err := upd.MemberJoined(&member, audience, now); err != nil {
			return err
		}
		return upd.InviteChanged(invite, audience)
	})

	if err != nil {
		return nil, err
	}
	return invite, nil
}

// PendingForRoom lists a room's proposed invites for its management view.
// Any member may look.
func (u *InvitesUsecase) PendingForRoom(ctx context.Context, actorId, roomId string) ([]models.Invite, error) {
	if actorId == "" {
		return nil, ErrAuthenticationRequired
	}

	_, err := u.registry.GetRoomsStore().RoleOf(ctx, roomId, actorId)
	if errors.Is(err, storage.ErrMembershipNotFound) {
		return nil, ErrNotARoomMember
	} else if err != nil {
		return nil, err
	}

	return u.registry.GetInvitesStore().PendingByRoom(ctx, roomId)
}

// ApprovalsRequired lists proposed invites across every room where the
// actor holds an owner or admin role.
func (u *InvitesUsecase) ApprovalsRequired(ctx context.Context, actorId string) ([]models.Invite, error) {
	if actorId == "" {
		return nil, ErrAuthenticationRequired
	}
	return u.registry.GetInvitesStore().PendingRequiringApproval(ctx, actorId)
}

// ApprovedForMe lists approved invites awaiting the actor's join.
func (u *InvitesUsecase) ApprovedForMe(ctx context.Context, actorId string) ([]models.Invite, error) {
	if actorId == "" {
		return nil, ErrAuthenticationRequired
	}
	return u.registry.GetInvitesStore().ApprovedForInvitee(ctx, actorId)
}

// ExpireStale sweeps live invites older than ttl into the expired state and
// publishes the transitions. Driven by the cron schedule in cmd.
func (u *InvitesUsecase) ExpireStale(ctx context.Context, ttl time.Duration) (int, error) {
	now := time.Now().UTC()
	var expired []models.Invite

	err := u.registry.Atomic(ctx, func(r storage.Registry) error {
		var err error
		expired, err = r.GetInvitesStore().ExpireOlderThan(ctx, now.Add(-ttl), now)
		if err != nil {
			return err
		}

		upd := r.GetUpdatesStore()
		for i := range expired {
			invite := &expired[i]
			if err := upd.InviteChanged(invite, u.audience(ctx, r, invite.RoomID, invite.InviteeID)); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return 0, err
	}
	return len(expired), nil
}
