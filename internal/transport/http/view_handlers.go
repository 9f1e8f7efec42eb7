package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/chat"
	"github.com/vovakirdan/wirechat-client/internal/sync"
)

// ViewHandlers provides HTTP handlers over the synchronization controller.
type ViewHandlers struct {
	ctrl *sync.Controller
	log  *zerolog.Logger
}

// NewViewHandlers creates a new view handlers instance.
func NewViewHandlers(ctrl *sync.Controller, logger *zerolog.Logger) *ViewHandlers {
	return &ViewHandlers{
		ctrl: ctrl,
		log:  logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FileResponse represents a message attachment in API responses.
type FileResponse struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// SenderResponse is the sender identity attached to each message.
type SenderResponse struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// MessageResponse represents one rendered message.
type MessageResponse struct {
	ID         string         `json:"id"`
	ReceiverID string         `json:"receiver_id,omitempty"`
	Content    string         `json:"content,omitempty"`
	File       *FileResponse  `json:"file,omitempty"`
	IsPublic   bool           `json:"is_public"`
	CreatedAt  string         `json:"created_at"`
	Sender     SenderResponse `json:"sender"`
	Own        bool           `json:"own"`
}

// ProfileResponse represents a roster entry.
type ProfileResponse struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Online    bool   `json:"online"`
	LastSeen  string `json:"last_seen"`
	Seen      string `json:"seen"` // human label, e.g. "5m ago"
}

// ViewResponse is the full synchronized view.
type ViewResponse struct {
	State    string            `json:"state"`
	Scope    string            `json:"scope"`
	Peer     *ProfileResponse  `json:"peer,omitempty"`
	Messages []MessageResponse `json:"messages"`
	Users    []ProfileResponse `json:"users"`
}

// GetView returns the current synchronized view.
// GET /api/view
func (h *ViewHandlers) GetView(c *gin.Context) {
	view := h.ctrl.Snapshot()
	now := time.Now()

	resp := ViewResponse{
		State:    view.State.String(),
		Scope:    view.Scope.Key(),
		Messages: make([]MessageResponse, 0, len(view.Messages)),
		Users:    make([]ProfileResponse, 0, len(view.Roster)),
	}
	if view.Peer != nil {
		peer := profileResponse(*view.Peer, now)
		resp.Peer = &peer
	}
	for _, m := range view.Messages {
		resp.Messages = append(resp.Messages, messageResponse(m, h.ctrl.UserID()))
	}
	for _, p := range view.Roster {
		resp.Users = append(resp.Users, profileResponse(p, now))
	}

	c.JSON(http.StatusOK, resp)
}

// ScopeRequest selects the active scope; a null or empty peer means the
// public room.
type ScopeRequest struct {
	PeerID *string `json:"peer_id"`
}

// SetScope switches the active scope.
// PUT /api/scope
func (h *ViewHandlers) SetScope(c *gin.Context) {
	var req ScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid scope request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	peer := ""
	if req.PeerID != nil {
		peer = *req.PeerID
	}
	h.ctrl.SelectPeer(peer)

	c.JSON(http.StatusOK, gin.H{"scope": h.ctrl.ActiveScope().Key()})
}

// SendRequest is the JSON body for a text-only send.
type SendRequest struct {
	Content string `json:"content"`
}

// SendMessage creates a message in the active scope. Accepts a JSON body with
// text content, or a multipart form with a "content" field and/or a "file".
// POST /api/messages
func (h *ViewHandlers) SendMessage(c *gin.Context) {
	var content string
	var att *sync.Outgoing

	if form, err := c.MultipartForm(); err == nil && form != nil {
		if values := form.Value["content"]; len(values) > 0 {
			content = values[0]
		}
		if files := form.File["file"]; len(files) > 0 {
			fileHeader := files[0]
			f, err := fileHeader.Open()
			if err != nil {
				h.log.Error().Err(err).Msg("failed to open uploaded file")
				c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
				return
			}
			defer f.Close()
			att = &sync.Outgoing{
				Name: fileHeader.Filename,
				MIME: fileHeader.Header.Get("Content-Type"),
				Size: fileHeader.Size,
				Data: f,
			}
		}
	} else {
		var req SendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.log.Debug().Err(err).Msg("invalid send request")
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
		content = req.Content
	}

	if err := h.ctrl.Send(c.Request.Context(), content, att); err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message is empty"})
		case errors.Is(err, sync.ErrAttachmentTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file larger than 10 MiB"})
		case errors.Is(err, sync.ErrAttachmentType):
			c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Error: "file type not supported"})
		default:
			h.log.Error().Err(err).Msg("failed to send message")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}

// Refresh triggers a manual reload of the active scope.
// POST /api/refresh
func (h *ViewHandlers) Refresh(c *gin.Context) {
	h.ctrl.Refresh()
	c.JSON(http.StatusAccepted, gin.H{"status": "refreshing"})
}

// SignOut marks the user offline and ends the session.
// POST /api/signout
func (h *ViewHandlers) SignOut(c *gin.Context) {
	if err := h.ctrl.SignOut(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("failed to sign out")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "signed out"})
}

func messageResponse(m chat.Rendered, selfID string) MessageResponse {
	resp := MessageResponse{
		ID:         m.ID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		IsPublic:   m.Public,
		CreatedAt:  m.CreatedAt.UTC().Format(time.RFC3339),
		Sender: SenderResponse{
			UserID:    m.Sender.UserID,
			Username:  m.Sender.Username,
			AvatarURL: m.Sender.AvatarURL,
		},
		Own: m.SenderID == selfID,
	}
	if m.Attachment != nil {
		resp.File = &FileResponse{
			URL:  m.Attachment.URL,
			Name: m.Attachment.Name,
			Type: m.Attachment.MIME,
		}
	}
	return resp
}

func profileResponse(p chat.Profile, now time.Time) ProfileResponse {
	return ProfileResponse{
		UserID:    p.UserID,
		Username:  p.Username,
		AvatarURL: p.AvatarURL,
		Online:    p.Online,
		LastSeen:  p.LastSeen.UTC().Format(time.RFC3339),
		Seen:      lastSeenLabel(p.LastSeen, now),
	}
}

// lastSeenLabel renders a coarse human label for a last-seen timestamp.
func lastSeenLabel(lastSeen, now time.Time) string {
	d := now.Sub(lastSeen)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return strconv.Itoa(int(d.Minutes())) + "m ago"
	case d < 24*time.Hour:
		return strconv.Itoa(int(d.Hours())) + "h ago"
	default:
		return strconv.Itoa(int(d.Hours()/24)) + "d ago"
	}
}
