// Package api exposes the REST surface of the chat backend. REST message
// sends and read receipts go through the same delivery pipeline as the
// realtime path, so room subscribers see them as live events either way.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/server-craftsman/restApi-social-media-conversation/internal/config"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/delivery"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/logging"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/presence"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/websocket"
	"github.com/server-craftsman/restApi-social-media-conversation/pkg/chaterr"
	"github.com/server-craftsman/restApi-social-media-conversation/pkg/interfaces"
	"github.com/server-craftsman/restApi-social-media-conversation/pkg/types"
)

// Server handles the REST endpoints.
type Server struct {
	store     interfaces.MessageStore
	pipeline  *delivery.Pipeline
	presence  *presence.Tracker
	set       *websocket.ConnectionSet
	validate  *validator.Validate
	jwtSecret string
	router    chi.Router
	log       zerolog.Logger
}

// NewServer builds the REST server and its route tree.
func NewServer(authCfg config.AuthConfig, store interfaces.MessageStore, pipeline *delivery.Pipeline,
	tracker *presence.Tracker, set *websocket.ConnectionSet) *Server {
	s := &Server{
		store:     store,
		pipeline:  pipeline,
		presence:  tracker,
		set:       set,
		validate:  validator.New(),
		jwtSecret: authCfg.JWTSecret,
		log:       logging.With("api"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-User-ID"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(httprate.LimitByIP(300, time.Minute))
		r.Use(s.authenticate)

		r.Route("/chats", func(r chi.Router) {
			r.Post("/", s.handleCreateChat)
			r.Get("/", s.handleListChats)
			r.Route("/{chatID}", func(r chi.Router) {
				r.Get("/", s.handleGetChat)
				r.Get("/messages", s.handleListMessages)
				r.Post("/messages", s.handleSendMessage)
				r.Patch("/messages/{messageID}/read", s.handleMarkRead)
			})
		})

		r.Get("/users/online", s.handleOnlineUsers)
	})

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)

	var req CreateChatRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	chat, err := s.store.CreateChat(r.Context(), req.Name, userID, req.MemberIDs)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, &ChatResponse{Chat: chat})
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.store.ListUserChats(r.Context(), UserID(r))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if chats == nil {
		chats = []*types.Chat{}
	}
	s.writeJSON(w, http.StatusOK, &ChatListResponse{Chats: chats})
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	chat, err := s.requireMemberChat(w, r, chatID)
	if chat == nil || err != nil {
		return
	}
	s.writeJSON(w, http.StatusOK, &ChatResponse{Chat: chat})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	if chat, err := s.requireMemberChat(w, r, chatID); chat == nil || err != nil {
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	messages, err := s.store.ListChatMessages(r.Context(), chatID, limit, offset)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if messages == nil {
		messages = []*types.Message{}
	}
	s.writeJSON(w, http.StatusOK, &MessageListResponse{Messages: messages, Limit: limit, Offset: offset})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	userID := UserID(r)

	var req SendMessageRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	message, err := s.pipeline.Send(r.Context(), &types.NewMessageInput{
		ChatID:           chatID,
		SenderID:         userID,
		Content:          req.Content,
		Type:             req.Type,
		MediaURL:         req.MediaURL,
		ReplyToMessageID: req.ReplyToMessageID,
	})
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, &MessageResponse{Message: message})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	messageID := chi.URLParam(r, "messageID")

	message, err := s.pipeline.MarkRead(r.Context(), messageID, UserID(r))
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	if message.ChatID != chatID {
		s.writeError(w, http.StatusNotFound, "message not found in this chat")
		return
	}
	s.writeJSON(w, http.StatusOK, &MessageResponse{Message: message})
}

func (s *Server) handleOnlineUsers(w http.ResponseWriter, r *http.Request) {
	users := s.presence.Online()
	if users == nil {
		users = []string{}
	}
	s.writeJSON(w, http.StatusOK, &OnlineUsersResponse{Users: users})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.HealthCheck(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("health check failed")
		s.writeJSON(w, http.StatusServiceUnavailable, &HealthResponse{Status: "unhealthy"})
		return
	}
	s.writeJSON(w, http.StatusOK, &HealthResponse{
		Status:      "healthy",
		Connections: s.set.Len(),
		OnlineUsers: len(s.presence.Online()),
	})
}

// requireMemberChat loads the chat and enforces membership, writing the
// error response itself. Returns nil when the caller should stop.
func (s *Server) requireMemberChat(w http.ResponseWriter, r *http.Request, chatID string) (*types.Chat, error) {
	chat, err := s.store.GetChat(r.Context(), chatID)
	if err != nil {
		s.writeStoreError(w, err)
		return nil, err
	}
	if chat == nil {
		s.writeError(w, http.StatusNotFound, "chat not found")
		return nil, nil
	}

	userID := UserID(r)
	for _, member := range chat.Members {
		if member.UserID == userID {
			return chat, nil
		}
	}
	s.writeError(w, http.StatusForbidden, "you are not a member of this chat")
	return nil, nil
}

func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chaterr.ErrPermissionDenied):
		s.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, chaterr.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chaterr.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error().Err(err).Msg("pipeline operation failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("store operation failed")
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, &ErrorResponse{Error: message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
