package client

import "github.com/habitloop/chat-service/internal/models"

// Snapshot accessors. Each returns a copy, so presentation code can iterate
// without holding the controller's lock.

func (c *Controller) Rooms() []models.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Room(nil), c.st.rooms...)
}

func (c *Controller) ActiveRoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.activeRoomId
}

func (c *Controller) ActiveRole() models.Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.activeRole
}

// Messages returns the active room's cached messages, newest first.
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Message(nil), c.st.messages...)
}

// PendingInvites returns the active room's proposed invites.
func (c *Controller) PendingInvites() []models.Invite {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Invite(nil), c.st.pending...)
}

// ApprovalsRequired returns proposed invites this user may approve, across
// all rooms where they hold an owner or admin role.
func (c *Controller) ApprovalsRequired() []models.Invite {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Invite(nil), c.st.approvalsRequired...)
}

// ApprovedForMe returns approved invites awaiting this user's join.
func (c *Controller) ApprovedForMe() []models.Invite {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Invite(nil), c.st.approvedForMe...)
}
