package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"quizarena/game"
	"quizarena/services"
)

const qrSize = 320

type GameHandler struct {
	registry  *game.Registry
	snapshots services.SnapshotStore
	log       *slog.Logger
}

func NewGameHandler(registry *game.Registry, snapshots services.SnapshotStore, log *slog.Logger) *GameHandler {
	if snapshots == nil {
		snapshots = services.NopSnapshotStore{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &GameHandler{
		registry:  registry,
		snapshots: snapshots,
		log:       log,
	}
}

// ListGames returns the rooms that can still be joined.
func (h *GameHandler) ListGames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": h.registry.WaitingRooms()})
}

func (h *GameHandler) GetGame(c *gin.Context) {
	info, live, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": info, "live": live})
}

func (h *GameHandler) GetLeaderboard(c *gin.Context) {
	info, live, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": info.Leaderboard, "live": live})
}

// QRCode renders a PNG that opens the join page for a live game.
func (h *GameHandler) QRCode(c *gin.Context) {
	code := game.NormalizeCode(c.Param("code"))
	if _, ok := h.registry.Room(code); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": game.ErrRoomNotFound.Message})
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	join := url.URL{Scheme: scheme, Host: c.Request.Host, Path: "/", RawQuery: url.Values{"game": {code}}.Encode()}

	png, err := qrcode.Encode(join.String(), qrcode.Medium, qrSize)
	if err != nil {
		h.log.Error("qr generation failed", "code", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "QR generation failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// lookup serves the live room when present and falls back to the stored
// snapshot. It writes the error response itself.
func (h *GameHandler) lookup(c *gin.Context) (game.Info, bool, bool) {
	code := game.NormalizeCode(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Game code required"})
		return game.Info{}, false, false
	}

	if room, ok := h.registry.Room(code); ok {
		return room.Info(), true, true
	}

	info, err := h.snapshots.Load(c.Request.Context(), code)
	if err != nil {
		if !errors.Is(err, services.ErrSnapshotNotFound) {
			h.log.Warn("snapshot lookup failed", "code", code, "error", err)
		}
		c.JSON(http.StatusNotFound, gin.H{"error": game.ErrRoomNotFound.Message})
		return game.Info{}, false, false
	}
	return *info, false, true
}
