package websocket

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/atlas-vision/backend/domain"
	"github.com/atlas-vision/backend/utils/log"
)

type Chatter interface {
	Ask(ctx context.Context, turn domain.ChatTurn) (string, error)
}

type Server struct {
	upgrader websocket.Upgrader
	chat     Chatter
	hub      *Hub
}

func NewServer(chat Chatter) *Server {
	return &Server{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		chat:     chat,
		hub:      NewHub(),
	}
}

func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler serves "/ws/chat" and blocks until the connection is done.
func (s *Server) Handler(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.WithCtx(c.Request().Context()).Warn("WebSocket upgrade failed", zap.Error(err))
		return nil
	}

	client := NewClient(context.WithoutCancel(c.Request().Context()), conn, s.chat)
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	log.WithCtx(client.Context()).Debug("WebSocket client connected")
	client.Run()

	<-client.Context().Done()
	log.WithCtx(client.Context()).Debug("WebSocket client disconnected")
	return nil
}
