package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type resolveDirectRoomRequest struct {
	FriendID string `json:"friend_id" binding:"required,uuid"`
}

func (s *Server) resolveDirectRoom(c *gin.Context) {
	req := resolveDirectRoomRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomId, err := s.rooms.ResolveOrCreateDirectRoom(c.Request.Context(), UserID(c), req.FriendID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"room_id": roomId})
}

type createGroupRoomRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) createGroupRoom(c *gin.Context) {
	req := createGroupRoomRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := s.rooms.CreateGroupRoom(c.Request.Context(), UserID(c), req.Name)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, room)
}

func (s *Server) listRooms(c *gin.Context) {
	rooms, err := s.rooms.ListRooms(c.Request.Context(), UserID(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, rooms)
}

func (s *Server) getRoom(c *gin.Context) {
	roomId, ok := s.uuidParam(c, "room_id")
	if !ok {
		return
	}

	room, err := s.rooms.GetRoomWithMembers(c.Request.Context(), roomId, UserID(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

func (s *Server) roleOf(c *gin.Context) {
	roomId, ok := s.uuidParam(c, "room_id")
	if !ok {
		return
	}

	role, err := s.rooms.RoleOf(c.Request.Context(), roomId, UserID(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": role})
}
