package usecases

import (
	"time"

	"github.com/habitloop/chat-service/internal/models"
	storage "github.com/habitloop/chat-service/internal/storages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedGroup creates a group room owned by iraId with petyaId as a plain
// member, and returns the room id.
func (s *UsecasesTestSuite) seedGroup() string {
	ctx, cancel := s.testContext()
	defer cancel()

	s.expectPublishes(1)
	room, err := NewRoomsUsecase(s.registry).CreateGroupRoom(ctx, iraId, "book club")
	require.NoError(s.T(), err, "can't seed group room")

	err = s.registry.GetRoomsStore().AddMember(ctx, &models.Membership{
		RoomID:   room.RoomID,
		UserID:   petyaId,
		Role:     models.RoleMember,
		JoinedAt: time.Now().UTC(),
	})
	require.NoError(s.T(), err, "can't seed plain member")

	return room.RoomID
}

func (s *UsecasesTestSuite) Test_Propose() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewInvitesUsecase(s.registry, s.logger)

	s.expectPublishes(1)
	invite, err := usecase.Propose(ctx, iraId, roomId, vasyaId)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.InviteProposed, invite.Status)
	assert.Equal(s.T(), iraId, invite.ProposerID)
	assert.Equal(s.T(), vasyaId, invite.InviteeID)

	pending, err := usecase.PendingForRoom(ctx, iraId, roomId)
	require.NoError(s.T(), err)
	require.Len(s.T(), pending, 1)
	assert.Equal(s.T(), invite.InviteID, pending[0].InviteID)
}

func (s *UsecasesTestSuite) Test_Propose_PlainMemberRefused() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewInvitesUsecase(s.registry, s.logger)

	_, err := usecase.Propose(ctx, petyaId, roomId, vasyaId)
	assert.ErrorIs(s.T(), err, ErrRoleRequired)
	assert.ErrorIs(s.T(), err, ErrPermissionDenied)
}

func (s *UsecasesTestSuite) Test_Propose_OutsiderRefused() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewInvitesUsecase(s.registry, s.logger)

	_, err := usecase.Propose(ctx, vasyaId, roomId, vasyaId)
	assert.ErrorIs(s.T(), err, ErrNotARoomMember)
}

func (s *UsecasesTestSuite) Test_Propose_ExistingMemberRefused() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewInvitesUsecase(s.registry, s.logger)

	_, err := usecase.Propose(ctx, iraId, roomId, petyaId)
	assert.ErrorIs(s.T(), err, storage.ErrUserAlreadyMember)
}

func (s *UsecasesTestSuite) Test_Propose_DirectRoomRefused() {
	ctx, cancel := s.testContext()
	defer cancel()
	s.seedFriends()

	s.expectPublishes(1)
	roomId, err := NewRoomsUsecase(s.registry).ResolveOrCreateDirectRoom(ctx, iraId, petyaId)
	require.NoError(s.T(), err, "can't seed direct room")

	usecase := NewInvitesUsecase(s.registry, s.logger)
	_, err = usecase.Propose(ctx, iraId, roomId, vasyaId)
	assert.ErrorIs(s.T(), err, ErrDirectRoomInvite)
}

func (s *UsecasesTestSuite) Test_ApproveThenJoin() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewInvitesUsecase(s.registry, s.logger)

	s.expectPublishes(1)
	invite, err := usecase.Propose(ctx, iraId, roomId, vasyaId)
	require.NoError(s.T(), err)

	s.expectPublishes(1)
	approved, err := usecase.Approve(ctx, iraId, invite.InviteID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.InviteApproved, approved.Status)
	require.NotNil(s.T(), approved.ApprovedBy)
	assert.Equal(s.T(), iraId, *approved.ApprovedBy)

	// joinable only by the invitee
	_, err = usecase.Join(ctx, petyaId, invite.InviteID)
	assert.ErrorIs(s.T(), err, ErrNotInvitee)

	// member joined + invite changed
	s.expectPublishes(2)
	joined, err := usecase.Join(ctx, vasyaId, invite.InviteID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.InviteJoined, joined.Status)

	role, err := NewRoomsUsecase(s.registry).RoleOf(ctx, roomId, vasyaId)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.RoleMember, role, "joined invitee becomes a plain member")
}

func (s *UsecasesTestSuite) Test_Approve_PlainMemberRefused() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewInvitesUsecase(s.registry, s.logger)

	s.expectPublishes(1)
	invite, err := usecase.Propose(ctx, iraId, roomId, vasyaId)
	require.NoError(s.T(), err)

	_, err = usecase.Approve(ctx, petyaId, invite.InviteID)
	assert.ErrorIs(s.T(), err, ErrRoleRequired)
}

func (s *UsecasesTestSuite) Test_Approve_SecondApprovalConflicts() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewInvitesUsecase(s.registry, s.logger)

	s.expectPublishes(1)
	invite, err := usecase.Propose(ctx, iraId, roomId, vasyaId)
	require.NoError(s.T(), err)

	s.expectPublishes(1)
	_, err = usecase.Approve(ctx, iraId, invite.InviteID)
	require.NoError(s.T(), err)

	_, err = usecase.Approve(ctx, iraId, invite.InviteID)
	assert.ErrorIs(s.T(), err, storage.ErrInviteStateConflict,
		"second approval must lose, never silently succeed")
}

func (s *UsecasesTestSuite) Test_Reject_ThenJoinImpossible() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewInvitesUsecase(s.registry, s.logger)

	s.expectPublishes(1)
	invite, err := usecase.Propose(ctx, iraId, roomId, vasyaId)
	require.NoError(s.T(), err)

	s.expectPublishes(1)
	rejected, err := usecase.Reject(ctx, iraId, invite.InviteID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.InviteRejected, rejected.Status)

	_, err = usecase.Join(ctx, vasyaId, invite.InviteID)
	assert.ErrorIs(s.T(), err, storage.ErrInviteStateConflict)

	_, err = NewRoomsUsecase(s.registry).RoleOf(ctx, roomId, vasyaId)
	assert.ErrorIs(s.T(), err, ErrNotARoomMember, "rejected invitee never became a member")
}

func (s *UsecasesTestSuite) Test_Join_FromProposedConflicts() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewInvitesUsecase(s.registry, s.logger)

	s.expectPublishes(1)
	invite, err := usecase.Propose(ctx, iraId, roomId, vasyaId)
	require.NoError(s.T(), err)

	_, err = usecase.Join(ctx, vasyaId, invite.InviteID)
	assert.ErrorIs(s.T(), err, storage.ErrInviteStateConflict,
		"join requires a prior approval")
}

func (s *UsecasesTestSuite) Test_ApprovalQueues() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewInvitesUsecase(s.registry, s.logger)

	s.expectPublishes(1)
	invite, err := usecase.Propose(ctx, iraId, roomId, vasyaId)
	require.NoError(s.T(), err)

	queue, err := usecase.ApprovalsRequired(ctx, iraId)
	require.NoError(s.T(), err)
	require.Len(s.T(), queue, 1, "owner sees the proposal in their approval queue")

	queue, err = usecase.ApprovalsRequired(ctx, petyaId)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), queue, "plain member has no approval queue")

	mine, err := usecase.ApprovedForMe(ctx, vasyaId)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), mine, "proposed invite is not joinable yet")

	s.expectPublishes(1)
	_, err = usecase.Approve(ctx, iraId, invite.InviteID)
	require.NoError(s.T(), err)

	mine, err = usecase.ApprovedForMe(ctx, vasyaId)
	require.NoError(s.T(), err)
	require.Len(s.T(), mine, 1)
	assert.Equal(s.T(), invite.InviteID, mine[0].InviteID)
}

func (s *UsecasesTestSuite) Test_PendingForRoom_MemberOnly() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewInvitesUsecase(s.registry, s.logger)

	_, err := usecase.PendingForRoom(ctx, vasyaId, roomId)
	assert.ErrorIs(s.T(), err, ErrNotARoomMember)

	pending, err := usecase.PendingForRoom(ctx, petyaId, roomId)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), pending, "plain members may look at the pending list")
}

func (s *UsecasesTestSuite) Test_ExpireStale() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewInvitesUsecase(s.registry, s.logger)

	s.expectPublishes(1)
	invite, err := usecase.Propose(ctx, iraId, roomId, vasyaId)
	require.NoError(s.T(), err)

	// age the invite past the ttl
	_, err = s.db.Exec(
		"UPDATE chat_room_invites SET created_at = now() - interval '30 days' WHERE invite_id = $1::uuid",
		invite.InviteID,
	)
	require.NoError(s.T(), err, "can't age invite")

	s.expectPublishes(1)
	count, err := usecase.ExpireStale(ctx, 14*24*time.Hour)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, count)

	_, err = usecase.Join(ctx, vasyaId, invite.InviteID)
	assert.ErrorIs(s.T(), err, storage.ErrInviteStateConflict, "expired invite is not joinable")

	count, err = usecase.ExpireStale(ctx, 14*24*time.Hour)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), count, "sweep is idempotent")
}
