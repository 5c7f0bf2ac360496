package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aksjevakt/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeAlertRepo keeps alerts in memory and mirrors the Mongo repository's
// contract closely enough for the service tests: reads hand out copies, and
// only UpdateCheckState writes check results back.
type fakeAlertRepo struct {
	mu     sync.Mutex
	alerts map[primitive.ObjectID]*models.PriceAlert

	activeErr error
	updateErr error

	updateCalls [][]*models.PriceAlert
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{alerts: make(map[primitive.ObjectID]*models.PriceAlert)}
}

func (r *fakeAlertRepo) put(alert *models.PriceAlert) *models.PriceAlert {
	r.mu.Lock()
	defer r.mu.Unlock()
	if alert.ID.IsZero() {
		alert.ID = primitive.NewObjectID()
	}
	stored := *alert
	r.alerts[alert.ID] = &stored
	return alert
}

func (r *fakeAlertRepo) SaveAlert(alert *models.PriceAlert) error {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	r.put(alert)
	return nil
}

func (r *fakeAlertRepo) GetAlertByID(id primitive.ObjectID) (*models.PriceAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.alerts[id]; ok {
		copied := *stored
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeAlertRepo) GetAlertsByUserID(userID primitive.ObjectID) ([]*models.PriceAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PriceAlert
	for _, stored := range r.alerts {
		if stored.UserID == userID {
			copied := *stored
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) GetActiveAlerts() ([]*models.PriceAlert, error) {
	if r.activeErr != nil {
		return nil, r.activeErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PriceAlert
	for _, stored := range r.alerts {
		if stored.Active && !stored.Triggered {
			copied := *stored
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) CountActiveAlerts() (int64, error) {
	alerts, _ := r.GetActiveAlerts()
	return int64(len(alerts)), nil
}

func (r *fakeAlertRepo) CountActiveByUserID(userID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, stored := range r.alerts {
		if stored.UserID == userID && stored.Active && !stored.Triggered {
			n++
		}
	}
	return n, nil
}

func (r *fakeAlertRepo) UpdateCheckState(alerts []*models.PriceAlert) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls = append(r.updateCalls, alerts)
	for _, alert := range alerts {
		stored, ok := r.alerts[alert.ID]
		if !ok {
			continue
		}
		stored.LastPrice = alert.LastPrice
		stored.LastCheckedAt = alert.LastCheckedAt
		stored.Active = alert.Active
		stored.Triggered = alert.Triggered
		stored.TriggeredAt = alert.TriggeredAt
	}
	return nil
}

func (r *fakeAlertRepo) DeleteByIDAndUserID(id, userID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.alerts[id]
	if !ok || stored.UserID != userID {
		return false, nil
	}
	delete(r.alerts, id)
	return true, nil
}

func (r *fakeAlertRepo) DeleteTriggeredBefore(cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, stored := range r.alerts {
		if stored.Triggered && !stored.Active && stored.TriggeredAt != nil && stored.TriggeredAt.Before(cutoff) {
			delete(r.alerts, id)
			removed++
		}
	}
	return removed, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.UserAccount
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.UserAccount)}
}

func (r *fakeUserRepo) SaveUser(user *models.UserAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) UpdateUser(user *models.UserAccount) error {
	return r.SaveUser(user)
}

func (r *fakeUserRepo) GetUserByID(id primitive.ObjectID) (*models.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.users[id]; ok {
		copied := *stored
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*models.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.users {
		if stored.Email == email {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetAllUsers(page, limit int64) ([]*models.UserAccount, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.UserAccount
	for _, stored := range r.users {
		copied := *stored
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings map[primitive.ObjectID]*models.NotificationSettings
	getErr   error
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: make(map[primitive.ObjectID]*models.NotificationSettings)}
}

func (r *fakeSettingsRepo) GetOrCreate(userID primitive.ObjectID) (*models.NotificationSettings, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.settings[userID]; ok {
		copied := *stored
		return &copied, nil
	}
	created := models.DefaultNotificationSettings(userID)
	r.settings[userID] = created
	copied := *created
	return &copied, nil
}

func (r *fakeSettingsRepo) Update(settings *models.NotificationSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *settings
	r.settings[settings.UserID] = &stored
	return nil
}

var errNoQuote = errors.New("symbol unavailable")

type fakeQuoteClient struct {
	mu     sync.Mutex
	prices map[string]float64
	failed map[string]bool
	calls  map[string]int
}

func newFakeQuoteClient(prices map[string]float64) *fakeQuoteClient {
	return &fakeQuoteClient{
		prices: prices,
		failed: make(map[string]bool),
		calls:  make(map[string]int),
	}
}

func (c *fakeQuoteClient) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[symbol]++
	if c.failed[symbol] {
		return nil, errNoQuote
	}
	price, ok := c.prices[symbol]
	if !ok {
		return nil, errNoQuote
	}
	return &models.Quote{Symbol: symbol, Price: price, Currency: "NOK", Timestamp: time.Now().Unix()}, nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	batches []map[primitive.ObjectID][]TriggeredAlert
}

func (n *fakeNotifier) DispatchTriggered(ctx context.Context, batches map[primitive.ObjectID][]TriggeredAlert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.batches = append(n.batches, batches)
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []sentMail
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type fakePusher struct {
	mu     sync.Mutex
	events map[string][]*models.AlertEvent
}

func newFakePusher() *fakePusher {
	return &fakePusher{events: make(map[string][]*models.AlertEvent)}
}

func (p *fakePusher) NotifyUser(userID string, event *models.AlertEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[userID] = append(p.events[userID], event)
}
