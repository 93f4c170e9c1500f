package server

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/habitloop/chat-service/internal/notify"
	usecase "github.com/habitloop/chat-service/internal/usecases"
	"github.com/sirupsen/logrus"
)

type Server struct {
	rooms    *usecase.RoomsUsecase
	invites  *usecase.InvitesUsecase
	messages *usecase.MessagesUsecase
	profiles *usecase.ProfilesUsecase
	hub      *notify.Hub
	validate *validator.Validate
	logger   *logrus.Logger
	upgrader websocket.Upgrader
}

func NewServer(
	rooms *usecase.RoomsUsecase,
	invites *usecase.InvitesUsecase,
	messages *usecase.MessagesUsecase,
	profiles *usecase.ProfilesUsecase,
	hub *notify.Hub,
	validate *validator.Validate,
	logger *logrus.Logger,
) *Server {
	return &Server{
		rooms:    rooms,
		invites:  invites,
		messages: messages,
		profiles: profiles,
		hub:      hub,
		validate: validate,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (s *Server) Router(jwtSecret []byte) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	authed := router.Group("/", RequireIdentity(jwtSecret))

	api := authed.Group("/api")
	{
		api.POST("/rooms/direct", s.resolveDirectRoom)
		api.POST("/rooms/group", s.createGroupRoom)
		api.GET("/rooms", s.listRooms)
		api.GET("/rooms/:room_id", s.getRoom)
		api.GET("/rooms/:room_id/role", s.roleOf)

		api.GET("/rooms/:room_id/messages", s.listMessages)
		api.POST("/rooms/:room_id/messages", s.sendMessage)

		api.GET("/rooms/:room_id/invites", s.listPendingInvites)
		api.POST("/rooms/:room_id/invites", s.proposeInvite)
		api.POST("/invites/:invite_id/approve", s.approveInvite)
		api.POST("/invites/:invite_id/reject", s.rejectInvite)
		api.POST("/invites/:invite_id/join", s.joinInvite)
		api.GET("/invites/approvals", s.listApprovalsRequired)
		api.GET("/invites/approved", s.listApprovedForMe)

		api.GET("/profiles", s.getProfiles)
		api.GET("/profiles/by-username/:username", s.findProfileByUsername)
	}

	authed.GET("/ws/rooms/:room_id", s.streamRoomUpdates)

	return router
}

// uuidParam validates a uuid path parameter before it reaches a query.
func (s *Server) uuidParam(c *gin.Context, name string) (string, bool) {
	value := c.Param(name)
	if err := s.validate.Var(value, "required,uuid"); err != nil {
		c.AbortWithStatusJSON(400, gin.H{"error": name + " must be a uuid"})
		return "", false
	}
	return value, true
}
