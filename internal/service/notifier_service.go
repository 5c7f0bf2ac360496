package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aksjevakt/backend/internal/i18n"
	"github.com/aksjevakt/backend/internal/metrics"
	"github.com/aksjevakt/backend/internal/models"
	"github.com/aksjevakt/backend/internal/repository"

	"github.com/dustin/go-humanize"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TriggeredAlert pairs an alert that fired this cycle with the price that
// fired it.
type TriggeredAlert struct {
	Alert *models.PriceAlert
	Price float64
}

// Notifier delivers one batch per user for the alerts that triggered in a
// monitor cycle. Delivery is best-effort: the alerts have already
// transitioned, so failures are logged and swallowed.
type Notifier interface {
	DispatchTriggered(ctx context.Context, batches map[primitive.ObjectID][]TriggeredAlert)
}

// AlertPusher pushes a triggered-alert event to a user's open browser
// connections.
type AlertPusher interface {
	NotifyUser(userID string, event *models.AlertEvent)
}

type notifierService struct {
	settingsRepo repository.SettingsRepository
	userRepo     repository.UserRepository
	pusher       AlertPusher
	mailer       Mailer
	metrics      *metrics.MonitorMetrics
	logger       *zap.Logger
	defaultLang  string

	mu    sync.Mutex
	sends map[primitive.ObjectID][]time.Time
}

func NewNotifierService(
	settingsRepo repository.SettingsRepository,
	userRepo repository.UserRepository,
	pusher AlertPusher,
	mailer Mailer,
	m *metrics.MonitorMetrics,
	logger *zap.Logger,
	defaultLang string,
) Notifier {
	return &notifierService{
		settingsRepo: settingsRepo,
		userRepo:     userRepo,
		pusher:       pusher,
		mailer:       mailer,
		metrics:      m,
		logger:       logger,
		defaultLang:  defaultLang,
		sends:        make(map[primitive.ObjectID][]time.Time),
	}
}

func (s *notifierService) DispatchTriggered(ctx context.Context, batches map[primitive.ObjectID][]TriggeredAlert) {
	for userID, triggered := range batches {
		if ctx.Err() != nil {
			return
		}
		s.dispatchUser(userID, triggered)
	}
}

func (s *notifierService) dispatchUser(userID primitive.ObjectID, triggered []TriggeredAlert) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil || user == nil {
		s.logger.Warn("cannot resolve user for notification", zap.String("user_id", userID.Hex()), zap.Error(err))
		return
	}

	lang := s.defaultLang
	settings, err := s.settingsRepo.GetOrCreate(userID)
	if err != nil {
		s.logger.Warn("cannot load notification settings, using defaults",
			zap.String("user_id", userID.Hex()), zap.Error(err))
		settings = models.DefaultNotificationSettings(userID)
	}
	if settings.Language != "" {
		lang = settings.Language
	}

	for _, t := range triggered {
		if !t.Alert.BrowserEnabled || s.pusher == nil {
			continue
		}
		s.pusher.NotifyUser(userID.Hex(), &models.AlertEvent{
			Type:        "alert_triggered",
			AlertID:     t.Alert.ID.Hex(),
			Symbol:      t.Alert.Symbol,
			Direction:   t.Alert.Direction,
			TargetPrice: t.Alert.TargetPrice,
			Price:       t.Price,
			Message:     alertLine(lang, t),
			TriggeredAt: time.Now().Unix(),
		})
	}

	emailAlerts := make([]TriggeredAlert, 0, len(triggered))
	for _, t := range triggered {
		if t.Alert.EmailEnabled {
			emailAlerts = append(emailAlerts, t)
		}
	}
	if len(emailAlerts) == 0 || user.Email == "" {
		return
	}
	if !settings.EmailEnabled || !settings.EmailInstant {
		// The trigger is never lost; the daily digest picks these up.
		return
	}
	if !s.allowSend(userID, settings, time.Now()) {
		s.logger.Info("notification rate cap reached, suppressing email", zap.String("user_id", userID.Hex()))
		return
	}

	subject := i18n.GetN(lang, "%d price alert triggered", "%d price alerts triggered", len(emailAlerts), len(emailAlerts))
	lines := make([]string, 0, len(emailAlerts))
	for _, t := range emailAlerts {
		lines = append(lines, alertLine(lang, t))
	}
	body := strings.Join(lines, "\n")

	if err := s.mailer.Send(user.Email, subject, body); err != nil {
		s.logger.Warn("alert email delivery failed",
			zap.String("user_id", userID.Hex()), zap.Int("alerts", len(emailAlerts)), zap.Error(err))
		if s.metrics != nil {
			s.metrics.EmailsFailedTotal.Inc()
		}
		return
	}
	s.recordSend(userID, time.Now())
	if s.metrics != nil {
		s.metrics.EmailsSentTotal.Inc()
	}
}

func alertLine(lang string, t TriggeredAlert) string {
	return i18n.Get(lang, "%s reached %s (your target: %s)",
		t.Alert.Symbol,
		humanize.CommafWithDigits(t.Price, 2),
		humanize.CommafWithDigits(t.Alert.TargetPrice, 2),
	)
}

// allowSend enforces the per-hour and per-day caps from the user's settings.
// Caps of zero or below mean unlimited.
func (s *notifierService) allowSend(userID primitive.ObjectID, settings *models.NotificationSettings, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	dayAgo := now.Add(-24 * time.Hour)
	hourAgo := now.Add(-time.Hour)

	kept := s.sends[userID][:0]
	var lastHour, lastDay int
	for _, ts := range s.sends[userID] {
		if ts.Before(dayAgo) {
			continue
		}
		kept = append(kept, ts)
		lastDay++
		if ts.After(hourAgo) {
			lastHour++
		}
	}
	s.sends[userID] = kept

	if settings.MaxPerHour > 0 && lastHour >= settings.MaxPerHour {
		return false
	}
	if settings.MaxPerDay > 0 && lastDay >= settings.MaxPerDay {
		return false
	}
	return true
}

func (s *notifierService) recordSend(userID primitive.ObjectID, now time.Time) {
	s.mu.Lock()
	s.sends[userID] = append(s.sends[userID], now)
	s.mu.Unlock()
}
