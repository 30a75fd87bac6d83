package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/voicespaces-server/internal/media"
	"github.com/vovakirdan/voicespaces-server/internal/state"
)

// RoomHandlers serves the in-memory room list and media credentials.
type RoomHandlers struct {
	state *state.Coordinator
	media media.Issuer
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance. A nil issuer
// disables media tokens.
func NewRoomHandlers(coord *state.Coordinator, issuer media.Issuer, logger *zerolog.Logger) *RoomHandlers {
	if issuer == nil {
		issuer = media.Disabled{}
	}
	return &RoomHandlers{
		state: coord,
		media: issuer,
		log:   logger,
	}
}

// ListRooms returns every room in memory, empty ones included.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms := h.state.Summaries()
	if rooms == nil {
		rooms = []state.RoomSummary{}
	}
	c.JSON(http.StatusOK, rooms)
}

// MediaToken issues SFU credentials for a known room.
// GET /api/rooms/:id/media-token?identity=&name=
func (h *RoomHandlers) MediaToken(c *gin.Context) {
	roomID := c.Param("id")
	if _, ok := h.state.Room(roomID); !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	identity := c.Query("identity")
	if identity == "" {
		identity = c.GetString(ContextKeyAccountID)
	}
	name := c.Query("name")
	if name == "" {
		name = c.GetString(ContextKeyUsername)
	}

	info, err := h.media.JoinInfo(c.Request.Context(), roomID, identity, name)
	if err != nil {
		if errors.Is(err, media.ErrDisabled) {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "media is not configured"})
			return
		}
		h.log.Error().Err(err).Str("room_id", roomID).Msg("failed to issue media token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Debug().Str("room_id", roomID).Str("identity", identity).Msg("media token issued")
	c.JSON(http.StatusOK, info)
}
