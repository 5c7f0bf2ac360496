package ws

import (
	"context"

	"github.com/aksjevakt/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type userEvent struct {
	userID string
	event  *models.AlertEvent
}

// Hub tracks connected browser clients per user. Quotes fan out to symbol
// subscribers; alert events go only to the owning user's connections.
type Hub struct {
	clients map[string]*models.Client
	byUser  map[string]map[string]*models.Client

	register   chan *models.Client
	unregister chan *models.Client
	quotes     chan *models.Quote
	events     chan userEvent

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*models.Client),
		byUser:     make(map[string]map[string]*models.Client),
		register:   make(chan *models.Client),
		unregister: make(chan *models.Client),
		quotes:     make(chan *models.Quote, 64),
		events:     make(chan userEvent, 64),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, client := range h.clients {
				client.Close()
			}
			return

		case client := <-h.register:
			h.clients[client.ID] = client
			if _, ok := h.byUser[client.UserID]; !ok {
				h.byUser[client.UserID] = make(map[string]*models.Client)
			}
			h.byUser[client.UserID][client.ID] = client

		case client := <-h.unregister:
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				if userClients, ok := h.byUser[client.UserID]; ok {
					delete(userClients, client.ID)
					if len(userClients) == 0 {
						delete(h.byUser, client.UserID)
					}
				}
				client.Close()
			}

		case quote := <-h.quotes:
			for _, client := range h.clients {
				if !client.IsSubscribed(quote.Symbol) {
					continue
				}
				select {
				case client.SendQuote <- quote:
				default:
					h.logger.Warn("client quote buffer full, dropping", zap.String("client_id", client.ID))
				}
			}

		case ev := <-h.events:
			for _, client := range h.byUser[ev.userID] {
				select {
				case client.SendAlert <- ev.event:
				default:
					h.logger.Warn("client alert buffer full, dropping", zap.String("client_id", client.ID))
				}
			}
		}
	}
}

func (h *Hub) RegisterClient(conn *websocket.Conn, userID string) *models.Client {
	client := models.NewClient(uuid.New().String(), userID, conn)
	h.register <- client
	return client
}

func (h *Hub) UnregisterClient(client *models.Client) {
	h.unregister <- client
}

func (h *Hub) BroadcastQuote(quote *models.Quote) {
	select {
	case h.quotes <- quote:
	default:
	}
}

// NotifyUser delivers a triggered-alert event to every connection the user
// currently has open. Users without connections drop the event silently.
func (h *Hub) NotifyUser(userID string, event *models.AlertEvent) {
	select {
	case h.events <- userEvent{userID: userID, event: event}:
	default:
		h.logger.Warn("hub event buffer full, dropping alert event", zap.String("user_id", userID))
	}
}
