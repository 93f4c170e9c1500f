package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/habitloop/chat-service/internal/models"
)

// APIError carries the HTTP status and server-reported message of a failed
// call, so callers can distinguish authorization and state conflicts from
// transient failures.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Conflict() bool  { return e.StatusCode == http.StatusConflict }
func (e *APIError) Forbidden() bool { return e.StatusCode == http.StatusForbidden }

// HTTPAPI implements API against the service's REST surface.
type HTTPAPI struct {
	base   string
	token  string
	client *http.Client
}

func NewHTTPAPI(base, token string) *HTTPAPI {
	return &HTTPAPI{
		base:  strings.TrimRight(base, "/"),
		token: token,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (a *HTTPAPI) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		payload := struct {
			Error string `json:"error"`
		}{}
		_ = json.NewDecoder(res.Body).Decode(&payload)
		return &APIError{
			StatusCode: res.StatusCode,
			Message:    payload.Error,
		}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (a *HTTPAPI) ResolveDirectRoom(ctx context.Context, friendId string) (string, error) {
	out := struct {
		RoomID string `json:"room_id"`
	}{}
	err := a.do(ctx, http.MethodPost, "/api/rooms/direct", map[string]string{"friend_id": friendId}, &out)
	return out.RoomID, err
}

func (a *HTTPAPI) CreateGroupRoom(ctx context.Context, name string) (*models.Room, error) {
	room := models.Room{}
	err := a.do(ctx, http.MethodPost, "/api/rooms/group", map[string]string{"name": name}, &room)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (a *HTTPAPI) ListRooms(ctx context.Context) ([]models.Room, error) {
	rooms := make([]models.Room, 0)
	err := a.do(ctx, http.MethodGet, "/api/rooms", nil, &rooms)
	return rooms, err
}

func (a *HTTPAPI) RoleOf(ctx context.Context, roomId string) (models.Role, error) {
	out := struct {
		Role models.Role `json:"role"`
	}{}
	err := a.do(ctx, http.MethodGet, "/api/rooms/"+roomId+"/role", nil, &out)
	return out.Role, err
}

func (a *HTTPAPI) RecentMessages(ctx context.Context, roomId string, limit int) ([]models.Message, error) {
	messages := make([]models.Message, 0)
	path := fmt.Sprintf("/api/rooms/%s/messages?limit=%d", roomId, limit)
	err := a.do(ctx, http.MethodGet, path, nil, &messages)
	return messages, err
}

func (a *HTTPAPI) SendMessage(ctx context.Context, roomId, body string) (*models.Message, error) {
	message := models.Message{}
	err := a.do(ctx, http.MethodPost, "/api/rooms/"+roomId+"/messages", map[string]string{"body": body}, &message)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (a *HTTPAPI) PendingInvites(ctx context.Context, roomId string) ([]models.Invite, error) {
	invites := make([]models.Invite, 0)
	err := a.do(ctx, http.MethodGet, "/api/rooms/"+roomId+"/invites", nil, &invites)
	return invites, err
}

func (a *HTTPAPI) ProposeInvite(ctx context.Context, roomId, inviteeId string) (*models.Invite, error) {
	invite := models.Invite{}
	err := a.do(ctx, http.MethodPost, "/api/rooms/"+roomId+"/invites", map[string]string{"invitee_id": inviteeId}, &invite)
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (a *HTTPAPI) inviteAction(ctx context.Context, inviteId, action string) (*models.Invite, error) {
	invite := models.Invite{}
	err := a.do(ctx, http.MethodPost, "/api/invites/"+inviteId+"/"+action, nil, &invite)
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (a *HTTPAPI) ApproveInvite(ctx context.Context, inviteId string) (*models.Invite, error) {
	return a.inviteAction(ctx, inviteId, "approve")
}

func (a *HTTPAPI) RejectInvite(ctx context.Context, inviteId string) (*models.Invite, error) {
	return a.inviteAction(ctx, inviteId, "reject")
}

func (a *HTTPAPI) JoinInvite(ctx context.Context, inviteId string) (*models.Invite, error) {
	return a.inviteAction(ctx, inviteId, "join")
}

func (a *HTTPAPI) ApprovalsRequired(ctx context.Context) ([]models.Invite, error) {
	invites := make([]models.Invite, 0)
	err := a.do(ctx, http.MethodGet, "/api/invites/approvals", nil, &invites)
	return invites, err
}

func (a *HTTPAPI) ApprovedForMe(ctx context.Context) ([]models.Invite, error) {
	invites := make([]models.Invite, 0)
	err := a.do(ctx, http.MethodGet, "/api/invites/approved", nil, &invites)
	return invites, err
}

func (a *HTTPAPI) GetProfiles(ctx context.Context, ids []string) (map[string]models.Profile, error) {
	profiles := make(map[string]models.Profile)
	path := "/api/profiles?ids=" + url.QueryEscape(strings.Join(ids, ","))
	err := a.do(ctx, http.MethodGet, path, nil, &profiles)
	return profiles, err
}

func (a *HTTPAPI) FindProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	profile := models.Profile{}
	err := a.do(ctx, http.MethodGet, "/api/profiles/by-username/"+url.PathEscape(username), nil, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// WSStreamer opens websocket update streams against the service.
type WSStreamer struct {
	base  string
	token string
}

func NewWSStreamer(base, token string) *WSStreamer {
	return &WSStreamer{
		base:  strings.TrimRight(base, "/"),
		token: token,
	}
}

func (s *WSStreamer) Subscribe(ctx context.Context, roomId string) (Stream, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.token)

	conn, res, err := websocket.DefaultDialer.DialContext(ctx, s.base+"/ws/rooms/"+roomId, header)
	if err != nil {
		if res != nil {
			return nil, &APIError{StatusCode: res.StatusCode, Message: err.Error()}
		}
		return nil, err
	}

	stream := &wsStream{
		conn: conn,
		ch:   make(chan models.Update, 64),
	}
	go stream.readLoop(ctx)
	return stream, nil
}

type wsStream struct {
	conn *websocket.Conn
	ch   chan models.Update
}

func (s *wsStream) readLoop(ctx context.Context) {
	defer close(s.ch)

	go func() {
		<-ctx.Done()
		_ = s.conn.Close()
	}()

	for {
		update := models.Update{}
		if err := s.conn.ReadJSON(&update); err != nil {
			return
		}
		select {
		case s.ch <- update:
		case <-ctx.Done():
			return
		}
	}
}

func (s *wsStream) Updates() <-chan models.Update {
	return s.ch
}

func (s *wsStream) Close() error {
	return s.conn.Close()
}
