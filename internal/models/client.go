package models

import (
	"sync"

	"github.com/gorilla/websocket"
)

// AlertEvent is pushed to a user's connected browsers when one of their
// alerts triggers.
type AlertEvent struct {
	Type        string         `json:"type"`
	AlertID     string         `json:"alert_id"`
	Symbol      string         `json:"symbol"`
	Direction   AlertDirection `json:"direction"`
	TargetPrice float64        `json:"target_price"`
	Price       float64        `json:"price"`
	Message     string         `json:"message"`
	TriggeredAt int64          `json:"triggered_at"`
}

type Client struct {
	ID           string
	UserID       string
	Conn         *websocket.Conn
	SendAlert    chan *AlertEvent
	SendQuote    chan *Quote
	Symbols      map[string]bool
	SymbolsMu    sync.RWMutex
	CloseHandler func()
}

func NewClient(id, userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:        id,
		UserID:    userID,
		Conn:      conn,
		SendAlert: make(chan *AlertEvent, 64),
		SendQuote: make(chan *Quote, 256),
		Symbols:   make(map[string]bool),
	}
}

func (c *Client) Subscribe(symbol string) {
	c.SymbolsMu.Lock()
	c.Symbols[symbol] = true
	c.SymbolsMu.Unlock()
}

func (c *Client) Unsubscribe(symbol string) {
	c.SymbolsMu.Lock()
	delete(c.Symbols, symbol)
	c.SymbolsMu.Unlock()
}

func (c *Client) IsSubscribed(symbol string) bool {
	c.SymbolsMu.RLock()
	defer c.SymbolsMu.RUnlock()
	return c.Symbols[symbol]
}

func (c *Client) SubscribedSymbols() []string {
	c.SymbolsMu.RLock()
	defer c.SymbolsMu.RUnlock()
	symbols := make([]string, 0, len(c.Symbols))
	for symbol := range c.Symbols {
		symbols = append(symbols, symbol)
	}
	return symbols
}

func (c *Client) Close() {
	if c.CloseHandler != nil {
		c.CloseHandler()
	}
	c.Conn.Close()
}

type SocketMessage struct {
	Action string `json:"action"`
	Symbol string `json:"symbol"`
}

type SubscriptionResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Symbols []string `json:"symbols,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
