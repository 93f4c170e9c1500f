package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

func (s *Server) sendMessage(c *gin.Context) {
	roomId, ok := s.uuidParam(c, "room_id")
	if !ok {
		return
	}

	req := sendMessageRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := s.messages.Send(c.Request.Context(), UserID(c), roomId, req.Body)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

func (s *Server) listMessages(c *gin.Context) {
	roomId, ok := s.uuidParam(c, "room_id")
	if !ok {
		return
	}

	limit := uint64(0)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	messages, err := s.messages.Recent(c.Request.Context(), UserID(c), roomId, limit)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}
