// Package gateway is the connection lifecycle controller. It upgrades HTTP
// requests to WebSocket connections, dispatches inbound events to the
// registry, room index, presence tracker and delivery pipeline, and tears
// everything down again on disconnect.
//
// Each connection's events are handled by its own read loop, so events from
// one connection are processed in arrival order while independent
// connections proceed concurrently.
package gateway

import (
	"context"
	"net/http"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/server-craftsman/restApi-social-media-conversation/internal/config"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/delivery"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/logging"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/presence"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/rooms"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/websocket"
	"github.com/server-craftsman/restApi-social-media-conversation/pkg/types"
)

var upgrader = gorilla.Upgrader{
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin: func(r *http.Request) bool {
		// Mirrors the permissive CORS posture of the REST surface.
		return true
	},
}

// Gateway owns every live connection from upgrade to disconnect.
type Gateway struct {
	cfg      config.WebSocketConfig
	registry *websocket.Registry
	set      *websocket.ConnectionSet
	rooms    *rooms.Index
	presence *presence.Tracker
	pipeline *delivery.Pipeline
	log      zerolog.Logger
}

// New wires the gateway against the shared realtime components.
func New(cfg config.WebSocketConfig, registry *websocket.Registry, set *websocket.ConnectionSet,
	index *rooms.Index, tracker *presence.Tracker, pipeline *delivery.Pipeline) *Gateway {
	return &Gateway{
		cfg:      cfg,
		registry: registry,
		set:      set,
		rooms:    index,
		presence: tracker,
		pipeline: pipeline,
		log:      logging.With("gateway"),
	}
}

// HandleWebSocket upgrades the request and starts the connection's event
// loop. The connection starts unbound; identity arrives with a join event.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := websocket.NewConnection(wsConn, g.cfg.SendBuffer, g.cfg.WriteTimeout)
	g.set.Add(conn)
	g.log.Debug().Str("conn", conn.ID()).Msg("client connected")

	go g.handleConnection(conn)
}

// handleConnection runs the read loop and performs full cleanup on exit:
// room subscriptions are removed eagerly, and losing the registry entry
// triggers the presence-offline announcement.
func (g *Gateway) handleConnection(conn *websocket.Connection) {
	defer func() {
		g.rooms.LeaveAll(conn.ID())
		g.set.Remove(conn.ID())
		if userID, ok := g.registry.Unregister(conn); ok {
			g.presence.MarkOffline(userID)
		}
		_ = conn.Close()
		g.log.Debug().Str("conn", conn.ID()).Msg("client disconnected")
	}()

	if err := conn.RefreshReadDeadline(g.cfg.ReadTimeout); err != nil {
		return
	}
	conn.OnPong(func() {
		_ = conn.RefreshReadDeadline(g.cfg.ReadTimeout)
	})
	go g.heartbeat(conn)

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if gorilla.IsUnexpectedCloseError(err, gorilla.CloseGoingAway, gorilla.CloseNormalClosure, gorilla.CloseAbnormalClosure) {
				g.log.Warn().Err(err).Str("conn", conn.ID()).Msg("read error")
			}
			return
		}

		env, err := websocket.Decode(data)
		if err != nil {
			g.log.Warn().Str("conn", conn.ID()).Msg("ignoring malformed event frame")
			continue
		}
		g.dispatch(conn, env)
	}
}

func (g *Gateway) heartbeat(conn *websocket.Connection) {
	ticker := time.NewTicker(g.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.Ping(g.cfg.WriteTimeout); err != nil {
				return
			}
		case <-conn.Done():
			return
		}
	}
}

// dispatch routes one decoded event. Signaling events are fire-and-forget;
// only sendMessage and markAsRead report failures back, and only to the
// originating connection.
func (g *Gateway) dispatch(conn *websocket.Connection, env *websocket.Envelope) {
	switch env.Event {
	case websocket.EventJoin:
		var p websocket.JoinPayload
		if websocket.DecodePayload(env, &p) != nil || p.UserID == "" {
			g.log.Warn().Str("conn", conn.ID()).Msg("ignoring join without userId")
			return
		}
		g.handleJoin(conn, p.UserID)

	case websocket.EventLeave:
		var p websocket.LeavePayload
		if websocket.DecodePayload(env, &p) != nil || p.UserID == "" {
			return
		}
		g.handleLeave(conn, p.UserID)

	case websocket.EventJoinChat:
		var p websocket.JoinChatPayload
		if websocket.DecodePayload(env, &p) != nil || p.ChatID == "" {
			return
		}
		// Known gap: any connection may subscribe to any room without a
		// chat membership check. Membership is enforced on every write path.
		g.rooms.Join(p.ChatID, conn)
		g.log.Debug().Str("conn", conn.ID()).Str("chat", p.ChatID).Msg("joined room")

	case websocket.EventLeaveChat:
		var p websocket.LeaveChatPayload
		if websocket.DecodePayload(env, &p) != nil || p.ChatID == "" {
			return
		}
		g.rooms.Leave(p.ChatID, conn.ID())

	case websocket.EventSendMessage:
		var p websocket.SendMessagePayload
		if websocket.DecodePayload(env, &p) != nil {
			g.sendError(conn, "Failed to send message", websocket.ErrMalformedEvent)
			return
		}
		g.handleSendMessage(conn, &p)

	case websocket.EventTyping:
		var p websocket.TypingPayload
		if websocket.DecodePayload(env, &p) != nil {
			return
		}
		g.pipeline.Typing(p.ChatID, p.UserID, conn.ID())

	case websocket.EventStopTyping:
		var p websocket.TypingPayload
		if websocket.DecodePayload(env, &p) != nil {
			return
		}
		g.pipeline.StopTyping(p.ChatID, p.UserID, conn.ID())

	case websocket.EventMarkAsRead:
		var p websocket.MarkAsReadPayload
		if websocket.DecodePayload(env, &p) != nil {
			g.sendError(conn, "Failed to mark message as read", websocket.ErrMalformedEvent)
			return
		}
		g.handleMarkAsRead(conn, &p)

	default:
		g.log.Warn().Str("conn", conn.ID()).Str("event", env.Event).Msg("unknown event")
	}
}

func (g *Gateway) handleJoin(conn *websocket.Connection, userID string) {
	conn.BindUser(userID)
	replaced, err := g.registry.Register(userID, conn)
	if err != nil {
		g.log.Error().Err(err).Str("user", userID).Msg("registration failed")
		return
	}
	if replaced != nil {
		g.log.Info().Str("user", userID).Str("old_conn", replaced.ID()).
			Str("new_conn", conn.ID()).Msg("user rejoined on a new connection")
	}
	g.presence.MarkOnline(userID)
	g.log.Info().Str("user", userID).Str("conn", conn.ID()).Msg("user joined")
}

func (g *Gateway) handleLeave(conn *websocket.Connection, userID string) {
	g.registry.UnregisterUser(userID)
	conn.ClearUser()
	g.presence.MarkOffline(userID)
	g.log.Info().Str("user", userID).Str("conn", conn.ID()).Msg("user left")
}

func (g *Gateway) handleSendMessage(conn *websocket.Connection, p *websocket.SendMessagePayload) {
	input := &types.NewMessageInput{
		ChatID:           p.ChatID,
		SenderID:         p.UserID,
		Content:          p.Message.Content,
		Type:             p.Message.Type,
		MediaURL:         p.Message.MediaURL,
		ReplyToMessageID: p.Message.ReplyToMessageID,
	}
	if _, err := g.pipeline.Send(context.Background(), input); err != nil {
		g.log.Warn().Err(err).Str("conn", conn.ID()).Str("chat", p.ChatID).Msg("sendMessage failed")
		g.sendError(conn, "Failed to send message", err)
	}
}

func (g *Gateway) handleMarkAsRead(conn *websocket.Connection, p *websocket.MarkAsReadPayload) {
	if _, err := g.pipeline.MarkRead(context.Background(), p.MessageID, p.UserID); err != nil {
		g.log.Warn().Err(err).Str("conn", conn.ID()).Str("message", p.MessageID).Msg("markAsRead failed")
		g.sendError(conn, "Failed to mark message as read", err)
	}
}

// sendError reports a failure to the originating connection only. The
// connection stays usable for subsequent events.
func (g *Gateway) sendError(conn *websocket.Connection, message string, cause error) {
	err := conn.SendEvent(websocket.EventError, &websocket.ErrorPayload{
		Message: message,
		Error:   cause.Error(),
	})
	if err != nil {
		g.log.Warn().Err(err).Str("conn", conn.ID()).Msg("failed to deliver error event")
	}
}
