package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aksjevakt/backend/internal/metrics"
	"github.com/aksjevakt/backend/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestMonitor(alertRepo *fakeAlertRepo, quotes *fakeQuoteClient, notifier *fakeNotifier) *MonitorService {
	m := metrics.NewMonitorMetrics(prometheus.NewRegistry())
	return NewMonitorService(
		alertRepo, quotes, notifier, nil, m, zap.NewNop(),
		300*time.Second, 60*time.Second, 30*24*time.Hour,
	)
}

func activeAlert(userID primitive.ObjectID, symbol string, direction models.AlertDirection, target float64) *models.PriceAlert {
	return &models.PriceAlert{
		ID:             primitive.NewObjectID(),
		UserID:         userID,
		Symbol:         symbol,
		Direction:      direction,
		TargetPrice:    target,
		Active:         true,
		EmailEnabled:   true,
		BrowserEnabled: true,
		CreatedAt:      time.Now(),
	}
}

func TestRunCycleTriggersCrossedAlerts(t *testing.T) {
	alertRepo := newFakeAlertRepo()
	userID := primitive.NewObjectID()

	hit := alertRepo.put(activeAlert(userID, "EQNR.OL", models.AlertDirectionAbove, 300))
	miss := alertRepo.put(activeAlert(userID, "EQNR.OL", models.AlertDirectionAbove, 400))

	quotes := newFakeQuoteClient(map[string]float64{"EQNR.OL": 305})
	notifier := &fakeNotifier{}
	monitor := newTestMonitor(alertRepo, quotes, notifier)

	if err := monitor.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}

	stored, _ := alertRepo.GetAlertByID(hit.ID)
	if !stored.Triggered || stored.Active {
		t.Errorf("crossed alert: Triggered=%v Active=%v", stored.Triggered, stored.Active)
	}
	if stored.LastPrice == nil || *stored.LastPrice != 305 {
		t.Errorf("crossed alert LastPrice = %v, want 305", stored.LastPrice)
	}

	stored, _ = alertRepo.GetAlertByID(miss.ID)
	if stored.Triggered || !stored.Active {
		t.Errorf("uncrossed alert: Triggered=%v Active=%v", stored.Triggered, stored.Active)
	}
	if stored.LastPrice == nil || *stored.LastPrice != 305 {
		t.Errorf("uncrossed alert LastPrice = %v, want 305", stored.LastPrice)
	}

	if len(notifier.batches) != 1 {
		t.Fatalf("dispatch count = %d, want 1", len(notifier.batches))
	}
	batch := notifier.batches[0]
	if len(batch) != 1 || len(batch[userID]) != 1 {
		t.Fatalf("batch = %v, want one alert for one user", batch)
	}
	if batch[userID][0].Alert.ID != hit.ID || batch[userID][0].Price != 305 {
		t.Errorf("batch entry = %+v", batch[userID][0])
	}
}

func TestRunCycleOneLookupPerSymbol(t *testing.T) {
	alertRepo := newFakeAlertRepo()
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()

	alertRepo.put(activeAlert(userA, "EQNR.OL", models.AlertDirectionAbove, 1000))
	alertRepo.put(activeAlert(userA, "EQNR.OL", models.AlertDirectionBelow, 1))
	alertRepo.put(activeAlert(userB, "EQNR.OL", models.AlertDirectionAbove, 1000))
	alertRepo.put(activeAlert(userB, "DNB.OL", models.AlertDirectionBelow, 1))

	quotes := newFakeQuoteClient(map[string]float64{"EQNR.OL": 305, "DNB.OL": 200})
	monitor := newTestMonitor(alertRepo, quotes, &fakeNotifier{})

	if err := monitor.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}

	if quotes.calls["EQNR.OL"] != 1 {
		t.Errorf("EQNR.OL lookups = %d, want 1", quotes.calls["EQNR.OL"])
	}
	if quotes.calls["DNB.OL"] != 1 {
		t.Errorf("DNB.OL lookups = %d, want 1", quotes.calls["DNB.OL"])
	}
}

func TestRunCycleBatchesPerUser(t *testing.T) {
	alertRepo := newFakeAlertRepo()
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()

	alertRepo.put(activeAlert(userA, "EQNR.OL", models.AlertDirectionAbove, 300))
	alertRepo.put(activeAlert(userA, "DNB.OL", models.AlertDirectionBelow, 250))
	alertRepo.put(activeAlert(userB, "EQNR.OL", models.AlertDirectionAbove, 290))

	quotes := newFakeQuoteClient(map[string]float64{"EQNR.OL": 305, "DNB.OL": 200})
	notifier := &fakeNotifier{}
	monitor := newTestMonitor(alertRepo, quotes, notifier)

	if err := monitor.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}

	if len(notifier.batches) != 1 {
		t.Fatalf("dispatch count = %d, want one call per cycle", len(notifier.batches))
	}
	batch := notifier.batches[0]
	if len(batch[userA]) != 2 {
		t.Errorf("user A batch = %d alerts, want 2", len(batch[userA]))
	}
	if len(batch[userB]) != 1 {
		t.Errorf("user B batch = %d alerts, want 1", len(batch[userB]))
	}
}

func TestRunCycleSkipsFailedSymbols(t *testing.T) {
	alertRepo := newFakeAlertRepo()
	userID := primitive.NewObjectID()

	broken := alertRepo.put(activeAlert(userID, "GHOST.OL", models.AlertDirectionAbove, 10))
	healthy := alertRepo.put(activeAlert(userID, "EQNR.OL", models.AlertDirectionAbove, 300))

	quotes := newFakeQuoteClient(map[string]float64{"EQNR.OL": 305})
	quotes.failed["GHOST.OL"] = true
	notifier := &fakeNotifier{}
	monitor := newTestMonitor(alertRepo, quotes, notifier)

	if err := monitor.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle should not fail on a single symbol: %v", err)
	}

	stored, _ := alertRepo.GetAlertByID(broken.ID)
	if stored.Triggered || !stored.Active || stored.LastCheckedAt != nil {
		t.Errorf("failed-symbol alert changed state: %+v", stored)
	}

	stored, _ = alertRepo.GetAlertByID(healthy.ID)
	if !stored.Triggered {
		t.Error("healthy symbol alert should have triggered")
	}
	if len(notifier.batches) != 1 {
		t.Errorf("dispatch count = %d, want 1", len(notifier.batches))
	}
}

func TestRunCycleIgnoresDeletedAlerts(t *testing.T) {
	alertRepo := newFakeAlertRepo()
	userID := primitive.NewObjectID()

	deleted := alertRepo.put(activeAlert(userID, "EQNR.OL", models.AlertDirectionAbove, 300))
	if ok, _ := alertRepo.DeleteByIDAndUserID(deleted.ID, userID); !ok {
		t.Fatal("setup delete failed")
	}

	quotes := newFakeQuoteClient(map[string]float64{"EQNR.OL": 305})
	notifier := &fakeNotifier{}
	monitor := newTestMonitor(alertRepo, quotes, notifier)

	if err := monitor.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}

	if quotes.calls["EQNR.OL"] != 0 {
		t.Error("deleted alert still drove a quote lookup")
	}
	if len(notifier.batches) != 0 {
		t.Error("deleted alert produced a notification")
	}
}

func TestRunCyclePropagatesRepoErrors(t *testing.T) {
	alertRepo := newFakeAlertRepo()
	alertRepo.activeErr = errors.New("db down")

	monitor := newTestMonitor(alertRepo, newFakeQuoteClient(nil), &fakeNotifier{})
	if err := monitor.runCycle(context.Background()); err == nil {
		t.Error("runCycle should fail when active alerts cannot be read")
	}

	alertRepo = newFakeAlertRepo()
	alertRepo.put(activeAlert(primitive.NewObjectID(), "EQNR.OL", models.AlertDirectionAbove, 300))
	alertRepo.updateErr = errors.New("write failed")

	notifier := &fakeNotifier{}
	monitor = newTestMonitor(alertRepo, newFakeQuoteClient(map[string]float64{"EQNR.OL": 305}), notifier)
	if err := monitor.runCycle(context.Background()); err == nil {
		t.Error("runCycle should fail when the check state cannot be persisted")
	}
	if len(notifier.batches) != 0 {
		t.Error("notifications must not go out before the state is persisted")
	}
}

func TestRunCycleCleanupRemovesOldTriggered(t *testing.T) {
	alertRepo := newFakeAlertRepo()
	userID := primitive.NewObjectID()

	old := time.Now().Add(-31 * 24 * time.Hour)
	recent := time.Now().Add(-29 * 24 * time.Hour)

	expired := alertRepo.put(&models.PriceAlert{
		UserID: userID, Symbol: "EQNR.OL", Direction: models.AlertDirectionAbove,
		TargetPrice: 300, Triggered: true, TriggeredAt: &old,
	})
	kept := alertRepo.put(&models.PriceAlert{
		UserID: userID, Symbol: "EQNR.OL", Direction: models.AlertDirectionAbove,
		TargetPrice: 300, Triggered: true, TriggeredAt: &recent,
	})

	monitor := newTestMonitor(alertRepo, newFakeQuoteClient(nil), &fakeNotifier{})
	if err := monitor.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}

	if stored, _ := alertRepo.GetAlertByID(expired.ID); stored != nil {
		t.Error("expired triggered alert should have been removed")
	}
	if stored, _ := alertRepo.GetAlertByID(kept.ID); stored == nil {
		t.Error("recently triggered alert should survive cleanup")
	}
}

func TestMonitorStartStop(t *testing.T) {
	alertRepo := newFakeAlertRepo()
	monitor := newTestMonitor(alertRepo, newFakeQuoteClient(nil), &fakeNotifier{})

	if err := monitor.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := monitor.Start(context.Background()); !errors.Is(err, ErrMonitorRunning) {
		t.Errorf("second Start = %v, want ErrMonitorRunning", err)
	}

	monitor.Stop()
	if status := monitor.Status(); status.MonitoringActive {
		t.Error("monitor still reported active after Stop")
	}

	// A stopped monitor can be started again.
	if err := monitor.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	monitor.Stop()
}

func TestMonitorStatus(t *testing.T) {
	alertRepo := newFakeAlertRepo()
	alertRepo.put(activeAlert(primitive.NewObjectID(), "EQNR.OL", models.AlertDirectionAbove, 1000))
	alertRepo.put(activeAlert(primitive.NewObjectID(), "DNB.OL", models.AlertDirectionBelow, 1))

	quotes := newFakeQuoteClient(map[string]float64{"EQNR.OL": 305})
	monitor := newTestMonitor(alertRepo, quotes, &fakeNotifier{})

	status := monitor.Status()
	if status.MonitoringActive {
		t.Error("fresh monitor reported active")
	}
	if status.LastCheck != nil {
		t.Errorf("LastCheck = %v, want nil before first cycle", status.LastCheck)
	}
	if status.CheckIntervalMinutes != 5 {
		t.Errorf("CheckIntervalMinutes = %v, want 5", status.CheckIntervalMinutes)
	}
	if status.TotalActiveAlerts != 2 {
		t.Errorf("TotalActiveAlerts = %d, want 2", status.TotalActiveAlerts)
	}

	if err := monitor.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if status := monitor.Status(); status.LastCheck == nil {
		t.Error("LastCheck still nil after a cycle")
	}
}
