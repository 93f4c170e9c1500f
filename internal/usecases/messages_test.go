package usecases

import (
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *UsecasesTestSuite) Test_Send() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewMessagesUsecase(s.registry)

	s.expectPublishes(1)
	message, err := usecase.Send(ctx, iraId, roomId, "  hello there  ")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "hello there", message.Body, "body should be trimmed")
	assert.Equal(s.T(), iraId, message.SenderID)

	recent, err := usecase.Recent(ctx, petyaId, roomId, 0)
	require.NoError(s.T(), err)
	require.Len(s.T(), recent, 1)
	assert.Equal(s.T(), message.MessageID, recent[0].MessageID)
}

func (s *UsecasesTestSuite) Test_Send_NonMemberRefused() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewMessagesUsecase(s.registry)

	_, err := usecase.Send(ctx, vasyaId, roomId, "hello")
	assert.ErrorIs(s.T(), err, ErrNotARoomMember)

	recent, err := usecase.Recent(ctx, iraId, roomId, 0)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), recent, "refused send must not land in the log")
}

func (s *UsecasesTestSuite) Test_Send_EmptyBodyRefused() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewMessagesUsecase(s.registry)

	_, err := usecase.Send(ctx, iraId, roomId, "   ")
	assert.ErrorIs(s.T(), err, ErrInvalidArgument)
}

func (s *UsecasesTestSuite) Test_Recent_NonMemberRefused() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewMessagesUsecase(s.registry)

	_, err := usecase.Recent(ctx, vasyaId, roomId, 0)
	assert.ErrorIs(s.T(), err, ErrNotARoomMember)
	assert.ErrorIs(s.T(), err, ErrPermissionDenied)
}

func (s *UsecasesTestSuite) Test_Recent_NewestFirst() {
	ctx, cancel := s.testContext()
	defer cancel()
	roomId := s.seedGroup()

	usecase := NewMessagesUsecase(s.registry)

	s.expectPublishes(3)
	for _, body := range []string{"first", "second", "third"} {
		_, err := usecase.Send(ctx, iraId, roomId, body)
		require.NoError(s.T(), err)
		time.Sleep(2 * time.Millisecond) // distinct sent_at per message
	}

	recent, err := usecase.Recent(ctx, iraId, roomId, 2)
	require.NoError(s.T(), err)
	require.Len(s.T(), recent, 2, "limit should be honored")
	assert.Equal(s.T(), "third", recent[0].Body)
	assert.Equal(s.T(), "second", recent[1].Body)
}
