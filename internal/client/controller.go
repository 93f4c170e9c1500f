package client

import (
	"context"
	"sort"
	"sync"

	"github.com/habitloop/chat-service/internal/models"
	"github.com/sirupsen/logrus"
)

// PlaceholderLabel is rendered for a user or room whose profile has not been
// hydrated yet. Rendering never blocks on label availability.
const PlaceholderLabel = "unknown"

// Controller keeps a device's view of rooms, invites and messages loosely in
// sync with the server. Caches are projections of server state: they are
// written only from confirmed responses and from push updates, never
// speculatively. All cache access goes through one mutex, and every stream
// or in-flight fetch is tagged with the epoch of the room it was started
// for, so responses landing after the user has moved on are discarded.
type Controller struct {
	api      API
	streamer Streamer
	logger   *logrus.Logger
	me       string

	mu sync.Mutex
	st state
}

type state struct {
	rooms []models.Room

	activeRoomId string
	activeRole   models.Role
	messages     []models.Message
	pending      []models.Invite

	approvalsRequired []models.Invite
	approvedForMe     []models.Invite

	labels map[string]string

	epoch  int
	stream Stream
	cancel context.CancelFunc
}

func NewController(me string, api API, streamer Streamer, logger *logrus.Logger) *Controller {
	return &Controller{
		api:      api,
		streamer: streamer,
		logger:   logger,
		me:       me,
		st: state{
			labels: make(map[string]string),
		},
	}
}

// RefreshInbox reloads the room list and both invite queues.
func (c *Controller) RefreshInbox(ctx context.Context) error {
	rooms, err := c.api.ListRooms(ctx)
	if err != nil {
		return err
	}
	approvals, err := c.api.ApprovalsRequired(ctx)
	if err != nil {
		return err
	}
	approved, err := c.api.ApprovedForMe(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.st.rooms = rooms
	c.st.approvalsRequired = approvals
	c.st.approvedForMe = approved
	c.mu.Unlock()

	c.hydrateInviteLabels(ctx, append(approvals, approved...))
	return nil
}

// OpenRoom makes roomId the active room: it tears down the previous
// subscription, loads the authoritative role, message history and pending
// invites, then subscribes to the room's update stream. At most one stream
// is live per controller.
func (c *Controller) OpenRoom(ctx context.Context, roomId string) error {
	c.mu.Lock()
	c.teardownLocked()
	c.st.epoch++
	epoch := c.st.epoch
	c.st.activeRoomId = roomId
	c.st.activeRole = ""
	c.st.messages = nil
	c.st.pending = nil
	c.mu.Unlock()

	role, err := c.api.RoleOf(ctx, roomId)
	if err != nil {
		return err
	}
	messages, err := c.api.RecentMessages(ctx, roomId, 100)
	if err != nil {
		return err
	}
	pending, err := c.api.PendingInvites(ctx, roomId)
	if err != nil {
		return err
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	stream, err := c.streamer.Subscribe(streamCtx, roomId)
	if err != nil {
		cancel()
		return err
	}

	stale := false
	c.mu.Lock()
	if c.st.epoch != epoch {
		// the user already navigated elsewhere
		stale = true
	} else {
		c.st.activeRole = role
		for _, msg := range messages {
			c.mergeMessageLocked(msg)
		}
		c.st.pending = pending
		c.st.stream = stream
		c.st.cancel = cancel
	}
	c.mu.Unlock()

	if stale {
		cancel()
		_ = stream.Close()
		return nil
	}

	go c.consume(stream, roomId, epoch)

	c.hydrateInviteLabels(ctx, pending)
	c.hydrateMessageLabels(ctx, messages)
	return nil
}

// CloseRoom drops the active room and its subscription.
func (c *Controller) CloseRoom() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.st.epoch++
	c.st.activeRoomId = ""
	c.st.activeRole = ""
	c.st.messages = nil
	c.st.pending = nil
}

func (c *Controller) teardownLocked() {
	if c.st.cancel != nil {
		c.st.cancel()
		c.st.cancel = nil
	}
	if c.st.stream != nil {
		_ = c.st.stream.Close()
		c.st.stream = nil
	}
}

// consume merges push updates for one room until its stream closes. The
// epoch check makes late deliveries for a room the user already left no-ops.
func (c *Controller) consume(stream Stream, roomId string, epoch int) {
	for update := range stream.Updates() {
		if update.RoomID != roomId {
			continue
		}

		switch update.Kind {
		case models.UpdateMessageSent:
			if update.Message == nil {
				continue
			}
			c.mu.Lock()
			if c.st.epoch == epoch {
				c.mergeMessageLocked(*update.Message)
			}
			c.mu.Unlock()
			c.hydrateMessageLabels(context.Background(), []models.Message{*update.Message})

		case models.UpdateInviteChanged:
			// any status transition invalidates the room's pending list;
			// refetch rather than patch (push delivery is at-least-once and
			// unordered relative to this client's own writes)
			ctx := context.Background()
			pending, err := c.api.PendingInvites(ctx, roomId)
			if err != nil {
				c.logger.WithError(err).Warning("can't refresh pending invites")
				continue
			}
			c.mu.Lock()
			if c.st.epoch == epoch {
				c.st.pending = pending
			}
			c.mu.Unlock()
			c.hydrateInviteLabels(ctx, pending)
		}
	}
}

// mergeMessageLocked applies the idempotent merge rule: insert only when the
// id is unseen, then restore newest-first (sent_at, message_id) order. The
// same message arriving via fetch and push lands exactly once, and the final
// order does not depend on arrival order.
func (c *Controller) mergeMessageLocked(message models.Message) {
	for _, existing := range c.st.messages {
		if existing.MessageID == message.MessageID {
			return
		}
	}
	c.st.messages = append(c.st.messages, message)
	sort.Slice(c.st.messages, func(i, j int) bool {
		a, b := c.st.messages[i], c.st.messages[j]
		if !a.SentAt.Equal(b.SentAt) {
			return a.SentAt.After(b.SentAt)
		}
		return a.MessageID > b.MessageID
	})
}

// SendMessage sends to the active room and merges the confirmed message.
// The push copy of the same message arriving later is absorbed by the merge
// rule.
func (c *Controller) SendMessage(ctx context.Context, body string) (*models.Message, error) {
	c.mu.Lock()
	roomId := c.st.activeRoomId
	epoch := c.st.epoch
	c.mu.Unlock()

	message, err := c.api.SendMessage(ctx, roomId, body)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.st.epoch == epoch {
		c.mergeMessageLocked(*message)
	}
	c.mu.Unlock()
	return message, nil
}

func (c *Controller) OpenDirectRoom(ctx context.Context, friendId string) (string, error) {
	roomId, err := c.api.ResolveDirectRoom(ctx, friendId)
	if err != nil {
		return "", err
	}
	if err := c.RefreshInbox(ctx); err != nil {
		return "", err
	}
	return roomId, c.OpenRoom(ctx, roomId)
}

func (c *Controller) CreateGroup(ctx context.Context, name string) (*models.Room, error) {
	room, err := c.api.CreateGroupRoom(ctx, name)
	if err != nil {
		return nil, err
	}
	return room, c.RefreshInbox(ctx)
}

// ProposeInvite resolves the username through the profile directory and
// proposes the invite into the active room.
func (c *Controller) ProposeInvite(ctx context.Context, username string) (*models.Invite, error) {
	c.mu.Lock()
	roomId := c.st.activeRoomId
	epoch := c.st.epoch
	c.mu.Unlock()

	profile, err := c.api.FindProfileByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	invite, err := c.api.ProposeInvite(ctx, roomId, profile.UserID)
	if err != nil {
		return nil, err
	}

	pending, err := c.api.PendingInvites(ctx, roomId)
	if err != nil {
		return invite, err
	}
	c.mu.Lock()
	if c.st.epoch == epoch {
		c.st.pending = pending
	}
	c.mu.Unlock()

	c.hydrateInviteLabels(ctx, pending)
	return invite, nil
}

// ApproveInvite confirms the transition with the server and refreshes the
// approval queue. A lost race surfaces the server's conflict error
// untouched; local state stays at the last confirmed view.
func (c *Controller) ApproveInvite(ctx context.Context, inviteId string) error {
	if _, err := c.api.ApproveInvite(ctx, inviteId); err != nil {
		return err
	}
	return c.RefreshInbox(ctx)
}

func (c *Controller) RejectInvite(ctx context.Context, inviteId string) error {
	if _, err := c.api.RejectInvite(ctx, inviteId); err != nil {
		return err
	}
	return c.RefreshInbox(ctx)
}

// JoinInvite joins an approved invite addressed to this user and reloads
// the room list, which now contains the joined room.
func (c *Controller) JoinInvite(ctx context.Context, inviteId string) error {
	if _, err := c.api.JoinInvite(ctx, inviteId); err != nil {
		return err
	}
	return c.RefreshInbox(ctx)
}
