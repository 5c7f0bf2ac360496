package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aksjevakt/backend/internal/marketdata"
	"github.com/aksjevakt/backend/internal/metrics"
	"github.com/aksjevakt/backend/internal/models"
	"github.com/aksjevakt/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var ErrMonitorRunning = errors.New("price monitor already running")

const cleanupEvery = 24 * time.Hour

// QuoteBroadcaster fans freshly fetched quotes out to live subscribers.
type QuoteBroadcaster interface {
	BroadcastQuote(quote *models.Quote)
}

type MonitorStatus struct {
	MonitoringActive     bool       `json:"monitoring_active"`
	LastCheck            *time.Time `json:"last_check"`
	CheckIntervalMinutes float64    `json:"check_interval_minutes"`
	TotalActiveAlerts    int64      `json:"total_active_alerts"`
}

// MonitorService owns the polling loop: every interval it loads active
// alerts, fetches one quote per distinct symbol, evaluates the alerts,
// persists the cycle's state changes in one bulk write and dispatches
// per-user notification batches. A failed cycle backs off and retries;
// the loop never crashes.
type MonitorService struct {
	alertRepo   repository.AlertRepository
	quotes      marketdata.QuoteClient
	notifier    Notifier
	broadcaster QuoteBroadcaster
	metrics     *metrics.MonitorMetrics
	logger      *zap.Logger

	interval time.Duration
	backoff  time.Duration
	maxAge   time.Duration

	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	done        chan struct{}
	lastCheck   time.Time
	lastCleanup time.Time
}

func NewMonitorService(
	alertRepo repository.AlertRepository,
	quotes marketdata.QuoteClient,
	notifier Notifier,
	broadcaster QuoteBroadcaster,
	m *metrics.MonitorMetrics,
	logger *zap.Logger,
	interval, backoff, maxAge time.Duration,
) *MonitorService {
	return &MonitorService{
		alertRepo:   alertRepo,
		quotes:      quotes,
		notifier:    notifier,
		broadcaster: broadcaster,
		metrics:     m,
		logger:      logger,
		interval:    interval,
		backoff:     backoff,
		maxAge:      maxAge,
	}
}

func (s *MonitorService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrMonitorRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.running = true

	go func() {
		defer close(done)
		s.run(runCtx)
	}()

	s.logger.Info("price monitor started", zap.Duration("interval", s.interval))
	return nil
}

// Stop signals the loop and waits for the in-flight cycle to finish. The
// cycle is never cancelled mid-step; shutdown is cooperative.
func (s *MonitorService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
		s.logger.Info("price monitor stopped")
	case <-time.After(30 * time.Second):
		s.logger.Warn("timeout waiting for price monitor to stop")
	}
}

func (s *MonitorService) run(ctx context.Context) {
	for {
		wait := s.interval
		if err := s.runCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("monitor cycle failed", zap.Error(err))
			if s.metrics != nil {
				s.metrics.CycleErrorsTotal.Inc()
			}
			wait = s.backoff
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (s *MonitorService) runCycle(ctx context.Context) error {
	now := time.Now()

	alerts, err := s.alertRepo.GetActiveAlerts()
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ActiveAlerts.Set(float64(len(alerts)))
	}

	// One lookup per distinct symbol, however many alerts reference it.
	bySymbol := make(map[string][]*models.PriceAlert)
	for _, alert := range alerts {
		bySymbol[alert.Symbol] = append(bySymbol[alert.Symbol], alert)
	}

	var checked []*models.PriceAlert
	triggered := make(map[primitive.ObjectID][]TriggeredAlert)
	var triggeredCount int

	for symbol, group := range bySymbol {
		quote, err := s.quotes.GetQuote(ctx, symbol)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Alerts on this symbol keep their state and are retried
			// next cycle.
			s.logger.Warn("quote lookup failed, skipping symbol",
				zap.String("symbol", symbol), zap.Int("alerts", len(group)), zap.Error(err))
			if s.metrics != nil {
				s.metrics.QuoteErrorsTotal.Inc()
			}
			continue
		}
		if s.broadcaster != nil {
			s.broadcaster.BroadcastQuote(quote)
		}

		for _, alert := range group {
			if alert.CheckAndTrigger(quote.Price, now) {
				triggered[alert.UserID] = append(triggered[alert.UserID], TriggeredAlert{Alert: alert, Price: quote.Price})
				triggeredCount++
				s.logger.Info("alert triggered",
					zap.String("alert_id", alert.ID.Hex()),
					zap.String("symbol", alert.Symbol),
					zap.Float64("target", alert.TargetPrice),
					zap.Float64("price", quote.Price))
			}
			checked = append(checked, alert)
		}
	}

	if err := s.alertRepo.UpdateCheckState(checked); err != nil {
		return err
	}

	s.mu.Lock()
	s.lastCheck = now
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.CyclesTotal.Inc()
		s.metrics.AlertsTriggered.Add(float64(triggeredCount))
	}

	if len(triggered) > 0 {
		s.notifier.DispatchTriggered(ctx, triggered)
	}

	s.maybeCleanup(now)
	return nil
}

// maybeCleanup removes long-triggered alerts once a day; failures only log,
// the next day's sweep catches up.
func (s *MonitorService) maybeCleanup(now time.Time) {
	s.mu.Lock()
	due := now.Sub(s.lastCleanup) >= cleanupEvery
	if due {
		s.lastCleanup = now
	}
	s.mu.Unlock()
	if !due {
		return
	}

	removed, err := s.alertRepo.DeleteTriggeredBefore(now.Add(-s.maxAge))
	if err != nil {
		s.logger.Warn("triggered-alert cleanup failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("removed expired triggered alerts", zap.Int64("count", removed))
	}
}

func (s *MonitorService) Status() MonitorStatus {
	s.mu.Lock()
	running := s.running
	last := s.lastCheck
	s.mu.Unlock()

	var lastCheck *time.Time
	if !last.IsZero() {
		lastCheck = &last
	}

	total, err := s.alertRepo.CountActiveAlerts()
	if err != nil {
		s.logger.Warn("cannot count active alerts", zap.Error(err))
	}

	return MonitorStatus{
		MonitoringActive:     running,
		LastCheck:            lastCheck,
		CheckIntervalMinutes: s.interval.Minutes(),
		TotalActiveAlerts:    total,
	}
}
