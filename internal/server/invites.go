package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type proposeInviteRequest struct {
	InviteeID string `json:"invitee_id" binding:"required,uuid"`
}

func (s *Server) proposeInvite(c *gin.Context) {
	roomId, ok := s.uuidParam(c, "room_id")
	if !ok {
		return
	}

	req := proposeInviteRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invite, err := s.invites.Propose(c.Request.Context(), UserID(c), roomId, req.InviteeID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invite)
}

func (s *Server) listPendingInvites(c *gin.Context) {
	roomId, ok := s.uuidParam(c, "room_id")
	if !ok {
		return
	}

	invites, err := s.invites.PendingForRoom(c.Request.Context(), UserID(c), roomId)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invites)
}

func (s *Server) approveInvite(c *gin.Context) {
	inviteId, ok := s.uuidParam(c, "invite_id")
	if !ok {
		return
	}

	invite, err := s.invites.Approve(c.Request.Context(), UserID(c), inviteId)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invite)
}

func (s *Server) rejectInvite(c *gin.Context) {
	inviteId, ok := s.uuidParam(c, "invite_id")
	if !ok {
		return
	}

	invite, err := s.invites.Reject(c.Request.Context(), UserID(c), inviteId)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invite)
}

func (s *Server) joinInvite(c *gin.Context) {
	inviteId, ok := s.uuidParam(c, "invite_id")
	if !ok {
		return
	}

	invite, err := s.invites.Join(c.Request.Context(), UserID(c), inviteId)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invite)
}

func (s *Server) listApprovalsRequired(c *gin.Context) {
	invites, err := s.invites.ApprovalsRequired(c.Request.Context(), UserID(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invites)
}

func (s *Server) listApprovedForMe(c *gin.Context) {
	invites, err := s.invites.ApprovedForMe(c.Request.Context(), UserID(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invites)
}
