package game

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

const (
	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeAttempts = 16
)

// NewCode returns a random room code of six uppercase alphanumerics.
func NewCode() (string, error) {
	var b strings.Builder
	b.Grow(codeLength)
	limit := big.NewInt(int64(len(codeAlphabet)))
	for range codeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeCode upper-cases and trims a user supplied room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Registry maps room codes and connections to rooms. It holds no gameplay
// logic; each Room serializes its own state.
type Registry struct {
	opts *Options
	log  *slog.Logger

	mu    sync.RWMutex
	rooms map[string]*Room
	conns map[string]string
}

// NewRegistry builds an empty registry.
func NewRegistry(opts Options) *Registry {
	o := opts.withDefaults()
	return &Registry{
		opts:  &o,
		log:   o.Logger,
		rooms: make(map[string]*Room),
		conns: make(map[string]string),
	}
}

// Create allocates a unique code and a room hosted by hostConn.
func (g *Registry) Create(hostConn, name, avatar string, settings Settings) (*Room, PlayerView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.conns[hostConn]; ok {
		return nil, PlayerView{}, ErrAlreadyInGame
	}

	var code string
	for range codeAttempts {
		c, err := g.opts.CodeGenerator()
		if err != nil {
			return nil, PlayerView{}, err
		}
		if _, taken := g.rooms[c]; !taken {
			code = c
			break
		}
	}
	if code == "" {
		return nil, PlayerView{}, ErrCodeExhausted
	}

	room := newRoom(code, hostConn, settings, g.opts)
	host, err := room.AddPlayer(hostConn, name, avatar)
	if err != nil {
		return nil, PlayerView{}, err
	}
	g.rooms[code] = room
	g.conns[hostConn] = code
	g.log.Info("game created", "code", code, "host", hostConn)
	return room, host, nil
}

// Join adds conn as a player of the room with the given code.
func (g *Registry) Join(code, conn, name, avatar string) (*Room, PlayerView, error) {
	code = NormalizeCode(code)
	g.mu.RLock()
	_, busy := g.conns[conn]
	room, ok := g.rooms[code]
	g.mu.RUnlock()

	if busy {
		return nil, PlayerView{}, ErrAlreadyInGame
	}
	if !ok {
		return nil, PlayerView{}, ErrRoomNotFound
	}

	player, err := room.AddPlayer(conn, name, avatar)
	if err != nil {
		return nil, PlayerView{}, err
	}
	if !g.bind(code, room, conn) {
		return nil, PlayerView{}, ErrRoomNotFound
	}
	return room, player, nil
}

// Spectate attaches conn to a room as a spectator.
func (g *Registry) Spectate(code, conn string) (*Room, Info, error) {
	code = NormalizeCode(code)
	g.mu.RLock()
	_, busy := g.conns[conn]
	room, ok := g.rooms[code]
	g.mu.RUnlock()

	if busy {
		return nil, Info{}, ErrAlreadyInGame
	}
	if !ok {
		return nil, Info{}, ErrRoomNotFound
	}
	info, err := room.AddSpectator(conn)
	if err != nil {
		return nil, Info{}, err
	}
	if !g.bind(code, room, conn) {
		return nil, Info{}, ErrRoomNotFound
	}
	return room, info, nil
}

// Reconnect rebinds conn to an existing player of the room.
func (g *Registry) Reconnect(code, playerID, conn string) (*Room, Rejoin, error) {
	code = NormalizeCode(code)
	g.mu.RLock()
	_, busy := g.conns[conn]
	room, ok := g.rooms[code]
	g.mu.RUnlock()

	if busy {
		return nil, Rejoin{}, ErrAlreadyInGame
	}
	if !ok {
		return nil, Rejoin{}, ErrRoomNotFound
	}
	rj, err := room.Reconnect(conn, playerID)
	if err != nil {
		return nil, Rejoin{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rooms[code] != room {
		return nil, Rejoin{}, ErrRoomNotFound
	}
	if rj.Replaced != "" {
		delete(g.conns, rj.Replaced)
	}
	g.conns[conn] = code
	return room, rj, nil
}

func (g *Registry) bind(code string, room *Room, conn string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rooms[code] != room {
		return false
	}
	g.conns[conn] = code
	return true
}

// Leave removes conn from its room and evicts the room when it says so.
func (g *Registry) Leave(conn string) (*Room, Departure, error) {
	g.mu.RLock()
	code, ok := g.conns[conn]
	room := g.rooms[code]
	g.mu.RUnlock()

	if !ok || room == nil {
		return nil, Departure{}, ErrNotInGame
	}

	d, err := room.RemovePlayer(conn)

	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.conns, conn)
	if err != nil {
		return room, Departure{}, err
	}
	if d.Evict {
		g.evictLocked(code, room, d.Audience)
	}
	return room, d, nil
}

func (g *Registry) evictLocked(code string, room *Room, conns []string) {
	if g.rooms[code] != room {
		return
	}
	delete(g.rooms, code)
	for _, c := range conns {
		if g.conns[c] == code {
			delete(g.conns, c)
		}
	}
	g.log.Info("game evicted", "code", code)
}

// Evict closes and removes a room, returning the connections it released.
func (g *Registry) Evict(code string) []string {
	code = NormalizeCode(code)
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[code]
	if !ok {
		return nil
	}
	conns := room.Audience()
	room.Close()
	g.evictLocked(code, room, conns)
	return conns
}

// Room looks a room up by code.
func (g *Registry) Room(code string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[NormalizeCode(code)]
	return room, ok
}

// RoomFor looks up the room conn is bound to.
func (g *Registry) RoomFor(conn string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	code, ok := g.conns[conn]
	if !ok {
		return nil, false
	}
	room, ok := g.rooms[code]
	return room, ok
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// WaitingRooms lists joinable rooms, oldest first.
func (g *Registry) WaitingRooms() []Info {
	g.mu.RLock()
	rooms := lo.Values(g.rooms)
	g.mu.RUnlock()

	infos := make([]Info, 0, len(rooms))
	for _, room := range rooms {
		info := room.Info()
		if info.State == StateWaiting && info.PlayerCount < info.MaxPlayers {
			infos = append(infos, info)
		}
	}
	slices.SortFunc(infos, func(a, b Info) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return infos
}

// Reap evicts rooms with no activity for longer than the idle timeout and
// returns their codes.
func (g *Registry) Reap() []string {
	now := g.opts.Clock.Now()
	g.mu.RLock()
	var stale []string
	for code, room := range g.rooms {
		if now.Sub(room.IdleSince()) > g.opts.IdleTimeout {
			stale = append(stale, code)
		}
	}
	g.mu.RUnlock()

	for _, code := range stale {
		g.Evict(code)
	}
	if len(stale) > 0 {
		g.log.Info("reaped idle games", "count", len(stale))
	}
	return stale
}

// RunReaper calls Reap every interval until ctx is done.
func (g *Registry) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Reap()
		}
	}
}
