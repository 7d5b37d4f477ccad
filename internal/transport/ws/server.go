package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dwarfhold.dev/internal/protocol"
	"dwarfhold.dev/internal/sim/grid"
	"dwarfhold.dev/internal/sim/world"
)

const defaultQueue = 16

// Pauser toggles the simulation clock.
type Pauser interface {
	TogglePause() bool
	Paused() bool
}

type Server struct {
	world  *world.World
	pauser Pauser
	log    *zap.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	out chan []byte
}

func NewServer(w *world.World, p Pauser, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		world:  w,
		pauser: p,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: map[*client]struct{}{},
	}
}

func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if err := s.greet(conn); err != nil {
			return
		}

		c := &client{out: make(chan []byte, defaultQueue)}
		n := s.add(c)
		s.log.Info("client connected", zap.Int("clients", n))
		defer func() {
			n := s.remove(c)
			s.log.Info("client disconnected", zap.Int("clients", n))
		}()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.handle(c, msg)
		}
	}
}

// greet sends the world metadata and the level just above the surface.
func (s *Server) greet(conn *websocket.Conn) error {
	dims := s.world.Dims()
	paused := false
	if s.pauser != nil {
		paused = s.pauser.Paused()
	}
	snap := protocol.SnapshotMsg{
		Type:            protocol.TypeSnapshot,
		ProtocolVersion: protocol.Version,
		Tick:            s.world.CurrentTick(),
		Paused:          paused,
		Width:           dims.Width,
		Height:          dims.Height,
		Depth:           dims.Depth,
		SurfaceZ:        dims.SurfaceZ,
		Creatures:       s.world.CreatureRecords(),
		Items:           []any{},
	}
	if err := writeJSON(conn, snap); err != nil {
		return err
	}
	z := dims.SurfaceZ + 1
	if z >= dims.Depth {
		z = dims.Depth - 1
	}
	msg, ok := s.zLevel(z, "")
	if !ok {
		return errors.New("surface level unavailable")
	}
	return writeJSON(conn, msg)
}

func (s *Server) zLevel(z int, enc string) (any, bool) {
	l, ok := s.world.ZLevel(z)
	if !ok {
		return nil, false
	}
	if enc == protocol.EncodingRLE {
		return protocol.NewZLevelRLE(l.Z, l.Width, l.Height, l.Walls, l.Floors, l.Flags), true
	}
	return protocol.NewZLevel(l.Z, l.Width, l.Height, l.Walls, l.Floors, l.Flags), true
}

func (s *Server) handle(c *client, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		s.reply(c, protocol.NewError(protocol.ErrProtoBadRequest, "bad json"))
		return
	}
	switch base.Type {
	case protocol.TypeRequestZLevel:
		var req protocol.RequestZLevelMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			s.reply(c, protocol.NewError(protocol.ErrProtoBadRequest, "bad request_z_level"))
			return
		}
		out, ok := s.zLevel(req.Z, req.Encoding)
		if !ok {
			s.reply(c, protocol.NewError(protocol.ErrOutOfBounds, "z out of range"))
			return
		}
		s.reply(c, out)

	case protocol.TypePause:
		if s.pauser == nil {
			return
		}
		paused := s.pauser.TogglePause()
		s.log.Info("pause toggled", zap.Bool("paused", paused))
		s.broadcastJSON(protocol.PauseStateMsg{Type: protocol.TypePauseState, Paused: paused})

	case protocol.TypeDesignate:
		// Accepted; designations do not feed the job board yet.

	case protocol.TypeTerrainEdit:
		var req protocol.TerrainEditMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			s.reply(c, protocol.NewError(protocol.ErrProtoBadRequest, "bad terrain_edit"))
			return
		}
		err := s.world.QueueEdit(world.Edit{
			Op:    world.EditOp(req.Op),
			Pos:   grid.P(req.X, req.Y, req.Z),
			Actor: "client",
		})
		switch {
		case errors.Is(err, grid.ErrOutOfBounds):
			s.reply(c, protocol.NewError(protocol.ErrOutOfBounds, err.Error()))
		case err != nil:
			s.reply(c, protocol.NewError(protocol.ErrBadEdit, err.Error()))
		}

	default:
		s.reply(c, protocol.NewError(protocol.ErrUnknownType, "unknown message type: "+base.Type))
	}
}

// Broadcast sends the changes of the tick that just finished. Changed tiles
// are popped even when no client is connected so the set stays bounded.
func (s *Server) Broadcast(tick uint64) {
	views := s.world.PopChangedTileViews()
	if s.Clients() == 0 {
		return
	}
	d := protocol.DeltaMsg{Type: protocol.TypeDelta, Tick: tick}
	for _, v := range views {
		d.Tiles = append(d.Tiles, protocol.TileChange{X: v.X, Y: v.Y, Z: v.Z, Wall: v.Wall, Floor: v.Floor, Flags: v.Flags})
	}
	d.Creatures = s.world.CreatureRecords()
	if d.Empty() {
		return
	}
	s.broadcastJSON(d)
}

func (s *Server) broadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Error("marshal broadcast", zap.Error(err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		sendLatest(c.out, b)
	}
}

func (s *Server) reply(c *client, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Error("marshal reply", zap.Error(err))
		return
	}
	sendLatest(c.out, b)
}

func (s *Server) add(c *client) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
	return len(s.clients)
}

func (s *Server) remove(c *client) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
	return len(s.clients)
}

// sendLatest never blocks: when the queue is full the oldest message is
// dropped.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
