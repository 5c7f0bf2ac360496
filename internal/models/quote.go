package models

type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	ChangePercent float64 `json:"change_percent"`
	Timestamp     int64   `json:"timestamp"`
}
