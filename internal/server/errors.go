package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	storage "github.com/habitloop/chat-service/internal/storages"
	usecase "github.com/habitloop/chat-service/internal/usecases"
)

var errorMapper = []struct {
	from error
	code int
}{
	{usecase.ErrPermissionDenied, http.StatusForbidden},
	{usecase.ErrNotFriends, http.StatusForbidden},
	{usecase.ErrInvalidArgument, http.StatusBadRequest},
	{usecase.ErrDirectRoomInvite, http.StatusUnprocessableEntity},
	{storage.ErrUserAlreadyMember, http.StatusConflict},
	{storage.ErrInviteAlreadyOpen, http.StatusConflict},
	{storage.ErrInviteStateConflict, http.StatusConflict},
	{storage.ErrDirectRoomExists, http.StatusConflict},
	{storage.ErrRoomNotFound, http.StatusNotFound},
	{storage.ErrInviteNotFound, http.StatusNotFound},
	{storage.ErrProfileNotFound, http.StatusNotFound},
	{storage.ErrMessageNotFound, http.StatusNotFound},
}

// abortWithError maps domain sentinels to HTTP statuses; anything unmapped
// is an internal error and gets logged with the request path.
func (s *Server) abortWithError(c *gin.Context, err error) {
	for _, mapping := range errorMapper {
		if errors.Is(err, mapping.from) {
			c.AbortWithStatusJSON(mapping.code, gin.H{"error": err.Error()})
			return
		}
	}

	s.logger.
		WithError(err).
		WithField("path", c.FullPath()).
		Error("request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
