package client

import (
	"context"

	"github.com/habitloop/chat-service/internal/models"
)

// hydrateInviteLabels resolves proposer and invitee ids of the given invites
// into display labels. Failures degrade to the placeholder; they never fail
// the operation that collected the invites.
func (c *Controller) hydrateInviteLabels(ctx context.Context, invites []models.Invite) {
	ids := make([]string, 0, len(invites)*2)
	for _, invite := range invites {
		ids = append(ids, invite.ProposerID, invite.InviteeID)
	}
	c.hydrateLabels(ctx, ids)
}

func (c *Controller) hydrateMessageLabels(ctx context.Context, messages []models.Message) {
	ids := make([]string, 0, len(messages))
	for _, message := range messages {
		ids = append(ids, message.SenderID)
	}
	c.hydrateLabels(ctx, ids)
}

func (c *Controller) hydrateLabels(ctx context.Context, ids []string) {
	missing := make([]string, 0, len(ids))
	c.mu.Lock()
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := c.st.labels[id]; !ok {
			missing = append(missing, id)
		}
	}
	c.mu.Unlock()

	if len(missing) == 0 {
		return
	}

	profiles, err := c.api.GetProfiles(ctx, missing)
	if err != nil {
		c.logger.WithError(err).Warning("label hydration failed, placeholders kept")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, profile := range profiles {
		c.st.labels[id] = profile.Label()
	}
}

// Label returns the hydrated display label for a user id, or the
// placeholder when the profile is unknown or not yet resolved.
func (c *Controller) Label(userId string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if label, ok := c.st.labels[userId]; ok {
		return label
	}
	return PlaceholderLabel
}

// RoomLabel renders a room's display name from the cached room list.
func (c *Controller) RoomLabel(roomId string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, room := range c.st.rooms {
		if room.RoomID != roomId {
			continue
		}
		if room.Name != nil && *room.Name != "" {
			return *room.Name
		}
		if room.Kind == models.RoomKindDirect {
			return "Direct Room"
		}
		return "Untitled Group"
	}
	return PlaceholderLabel
}
