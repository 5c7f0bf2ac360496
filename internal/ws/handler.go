package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/aksjevakt/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub    *Hub
	logger *zap.Logger
}

func NewWebSocketHandler(hub *Hub, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// HandleConnection upgrades an authenticated request; the auth middleware has
// already stored user_id on the context.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := h.hub.RegisterClient(conn, userID)

	go h.readPump(client)
	go h.writePump(client)
}

func (h *WebSocketHandler) readPump(client *models.Client) {
	defer func() {
		h.hub.UnregisterClient(client)
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", zap.String("client_id", client.ID), zap.Error(err))
			}
			break
		}

		var socketMsg models.SocketMessage
		if err := json.Unmarshal(message, &socketMsg); err != nil {
			client.Conn.WriteJSON(models.ErrorResponse{Error: "Invalid message format"})
			continue
		}

		symbol := strings.ToUpper(strings.TrimSpace(socketMsg.Symbol))

		switch socketMsg.Action {
		case "subscribe":
			client.Subscribe(symbol)
			client.Conn.WriteJSON(models.SubscriptionResponse{
				Status:  "success",
				Message: "Subscribed to " + symbol,
				Symbols: client.SubscribedSymbols(),
			})

		case "unsubscribe":
			client.Unsubscribe(symbol)
			client.Conn.WriteJSON(models.SubscriptionResponse{
				Status:  "success",
				Message: "Unsubscribed from " + symbol,
				Symbols: client.SubscribedSymbols(),
			})

		default:
			client.Conn.WriteJSON(models.ErrorResponse{Error: "Unknown action"})
		}
	}
}

func (h *WebSocketHandler) writePump(client *models.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-client.SendAlert:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(event); err != nil {
				return
			}

		case quote, ok := <-client.SendQuote:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(quote); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
