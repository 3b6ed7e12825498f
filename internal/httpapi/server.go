// Package httpapi serves the web widget chat endpoint.
package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/hamdanlabs/concierge/internal/lang"
	. "github.com/hamdanlabs/concierge/internal/logging"
	"github.com/hamdanlabs/concierge/internal/types"
)

const maxChatBody = 64 * 1024

// Engine is the slice of the pipeline the server needs.
type Engine interface {
	Handle(ctx context.Context, msg *types.InboundMessage, dialect lang.Dialect) *types.OutboundReply
}

// Server hosts the web widget API.
type Server struct {
	engine Engine
	http   *http.Server
}

// New builds the HTTP server on addr. allowedOrigins controls CORS;
// empty means allow any origin.
func New(addr string, allowedOrigins []string, engine Engine) *Server {
	s := &Server{engine: engine}

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Post("/api/ai/chat", s.handleChat)
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start listens and serves until Shutdown. Blocks.
func (s *Server) Start() error {
	L_info("httpapi: listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type chatResponse struct {
	Response  string     `json:"response"`
	SessionID string     `json:"sessionId"`
	Image     *chatImage `json:"image,omitempty"`
}

// chatImage carries a generated image inline; the widget renders it from the
// base64 data.
type chatImage struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
	Caption  string `json:"caption,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, maxChatBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	msg := &types.InboundMessage{
		ChannelID: "web",
		SenderID:  sessionID,
		Text:      req.Message,
		Received:  time.Now(),
	}

	reply := s.engine.Handle(r.Context(), msg, lang.DialectWeb)

	resp := chatResponse{
		Response:  reply.Text,
		SessionID: sessionID,
	}
	if reply.Image != nil {
		resp.Image = &chatImage{
			Data:     base64.StdEncoding.EncodeToString(reply.Image.Data),
			MimeType: reply.Image.MimeType,
			Caption:  reply.Image.Caption,
		}
		// Never answer with a blank response field: widgets that ignore
		// the image block still show the caption.
		if resp.Response == "" {
			resp.Response = reply.Image.Caption
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		L_error("httpapi: failed to encode response", "error", err)
	}
}
