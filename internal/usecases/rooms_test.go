package usecases

import (
	"sync"

	"github.com/habitloop/chat-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	iraId   = "74cccd17-9c56-490b-b721-88c027976863"
	petyaId = "67f85047-09d0-42a2-a5ee-9ce8db28cb07"
	vasyaId = "0aef4f46-25a4-4dd0-93b1-340a2e273fcd"
)

func (s *UsecasesTestSuite) seedFriends() {
	s.seedProfile(iraId, "ira", "Ira")
	s.seedProfile(petyaId, "petya", "Petya")
	s.seedFriendship(iraId, petyaId)
}

func (s *UsecasesTestSuite) Test_ResolveOrCreateDirectRoom_IsIdempotent() {
	ctx, cancel := s.testContext()
	defer cancel()
	s.seedFriends()

	usecase := NewRoomsUsecase(s.registry)

	s.expectPublishes(1)
	first, err := usecase.ResolveOrCreateDirectRoom(ctx, iraId, petyaId)
	require.NoError(s.T(), err, "first resolve should create the room")

	second, err := usecase.ResolveOrCreateDirectRoom(ctx, iraId, petyaId)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), first, second, "repeated resolve must return the same room")

	// the reversed pair maps onto the same room
	reversed, err := usecase.ResolveOrCreateDirectRoom(ctx, petyaId, iraId)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), first, reversed)

	row := s.db.QueryRow("SELECT count(*) FROM chat_rooms")
	count := 0
	require.NoError(s.T(), row.Scan(&count))
	assert.Equal(s.T(), 1, count, "exactly one room must exist for the pair")
}

func (s *UsecasesTestSuite) Test_ResolveOrCreateDirectRoom_ConcurrentCallersConverge() {
	ctx, cancel := s.testContext()
	defer cancel()
	s.seedFriends()

	usecase := NewRoomsUsecase(s.registry)

	// the loser of the unique-index race must converge on the winner's room
	s.expectPublishes(1)

	results := make([]string, 2)
	errs := make([]error, 2)
	wg := sync.WaitGroup{}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = usecase.ResolveOrCreateDirectRoom(ctx, iraId, petyaId)
		}(i)
	}
	wg.Wait()

	require.NoError(s.T(), errs[0])
	require.NoError(s.T(), errs[1])
	assert.Equal(s.T(), results[0], results[1], "both callers must observe the same room")
}

func (s *UsecasesTestSuite) Test_ResolveOrCreateDirectRoom_BothGetMemberRole() {
	ctx, cancel := s.testContext()
	defer cancel()
	s.seedFriends()

	usecase := NewRoomsUsecase(s.registry)

	s.expectPublishes(1)
	roomId, err := usecase.ResolveOrCreateDirectRoom(ctx, iraId, petyaId)
	require.NoError(s.T(), err)

	for _, userId := range []string{iraId, petyaId} {
		role, err := usecase.RoleOf(ctx, roomId, userId)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), models.RoleMember, role, "direct rooms carry no owner")
	}
}

func (s *UsecasesTestSuite) Test_ResolveOrCreateDirectRoom_SelfChatRefused() {
	ctx, cancel := s.testContext()
	defer cancel()
	s.seedFriends()

	usecase := NewRoomsUsecase(s.registry)
	_, err := usecase.ResolveOrCreateDirectRoom(ctx, iraId, iraId)
	assert.ErrorIs(s.T(), err, ErrInvalidArgument)
}

func (s *UsecasesTestSuite) Test_ResolveOrCreateDirectRoom_RequiresFriendship() {
	ctx, cancel := s.testContext()
	defer cancel()
	s.seedProfile(iraId, "ira", "Ira")
	s.seedProfile(vasyaId, "vasya", "Vasya")

	usecase := NewRoomsUsecase(s.registry)
	_, err := usecase.ResolveOrCreateDirectRoom(ctx, iraId, vasyaId)
	assert.ErrorIs(s.T(), err, ErrNotFriends)
}

func (s *UsecasesTestSuite) Test_CreateGroupRoom() {
	ctx, cancel := s.testContext()
	defer cancel()

	usecase := NewRoomsUsecase(s.registry)

	s.expectPublishes(1)
	room, err := usecase.CreateGroupRoom(ctx, iraId, "  book club  ")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.RoomKindGroup, room.Kind)
	require.NotNil(s.T(), room.Name)
	assert.Equal(s.T(), "book club", *room.Name, "name should be trimmed")

	role, err := usecase.RoleOf(ctx, room.RoomID, iraId)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.RoleOwner, role, "creator becomes owner")
}

func (s *UsecasesTestSuite) Test_CreateGroupRoom_NameRequired() {
	ctx, cancel := s.testContext()
	defer cancel()

	usecase := NewRoomsUsecase(s.registry)
	_, err := usecase.CreateGroupRoom(ctx, iraId, "   ")
	assert.ErrorIs(s.T(), err, ErrInvalidArgument)
}

func (s *UsecasesTestSuite) Test_RoleOf_NonMember() {
	ctx, cancel := s.testContext()
	defer cancel()

	usecase := NewRoomsUsecase(s.registry)

	s.expectPublishes(1)
	room, err := usecase.CreateGroupRoom(ctx, iraId, "book club")
	require.NoError(s.T(), err)

	_, err = usecase.RoleOf(ctx, room.RoomID, petyaId)
	assert.ErrorIs(s.T(), err, ErrNotARoomMember)
	assert.ErrorIs(s.T(), err, ErrPermissionDenied)
}

func (s *UsecasesTestSuite) Test_ListRooms_OnlyMemberships() {
	ctx, cancel := s.testContext()
	defer cancel()

	usecase := NewRoomsUsecase(s.registry)

	s.expectPublishes(2)
	mine, err := usecase.CreateGroupRoom(ctx, iraId, "mine")
	require.NoError(s.T(), err)
	_, err = usecase.CreateGroupRoom(ctx, petyaId, "not mine")
	require.NoError(s.T(), err)

	rooms, err := usecase.ListRooms(ctx, iraId)
	require.NoError(s.T(), err)
	require.Len(s.T(), rooms, 1)
	assert.Equal(s.T(), mine.RoomID, rooms[0].RoomID)
}

func (s *UsecasesTestSuite) Test_GetRoomWithMembers() {
	ctx, cancel := s.testContext()
	defer cancel()
	s.seedFriends()

	usecase := NewRoomsUsecase(s.registry)

	s.expectPublishes(1)
	roomId, err := usecase.ResolveOrCreateDirectRoom(ctx, iraId, petyaId)
	require.NoError(s.T(), err)

	room, err := usecase.GetRoomWithMembers(ctx, roomId, iraId)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.RoomKindDirect, room.Kind)
	assert.Len(s.T(), room.Members, 2)

	_, err = usecase.GetRoomWithMembers(ctx, roomId, vasyaId)
	assert.ErrorIs(s.T(), err, ErrNotARoomMember, "outsiders may not inspect the room")
}

func (s *UsecasesTestSuite) Test_Unauthenticated() {
	ctx, cancel := s.testContext()
	defer cancel()

	usecase := NewRoomsUsecase(s.registry)

	_, err := usecase.ListRooms(ctx, "")
	assert.ErrorIs(s.T(), err, ErrAuthenticationRequired)
	assert.ErrorIs(s.T(), err, ErrPermissionDenied)

	_, err = usecase.ResolveOrCreateDirectRoom(ctx, "", petyaId)
	assert.ErrorIs(s.T(), err, ErrAuthenticationRequired)
}
