package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aksjevakt/backend/internal/metrics"
	"github.com/aksjevakt/backend/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type notifierFixture struct {
	userRepo     *fakeUserRepo
	settingsRepo *fakeSettingsRepo
	pusher       *fakePusher
	mailer       *fakeMailer
	notifier     Notifier
}

func newNotifierFixture() *notifierFixture {
	f := &notifierFixture{
		userRepo:     newFakeUserRepo(),
		settingsRepo: newFakeSettingsRepo(),
		pusher:       newFakePusher(),
		mailer:       &fakeMailer{},
	}
	m := metrics.NewMonitorMetrics(prometheus.NewRegistry())
	f.notifier = NewNotifierService(f.settingsRepo, f.userRepo, f.pusher, f.mailer, m, zap.NewNop(), "en")
	return f
}

func (f *notifierFixture) addUser(t *testing.T, email string) *models.UserAccount {
	t.Helper()
	user := &models.UserAccount{Email: email, IsActive: true}
	if err := f.userRepo.SaveUser(user); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	return user
}

func triggeredAlert(userID primitive.ObjectID, symbol string, target, price float64) TriggeredAlert {
	now := time.Now()
	return TriggeredAlert{
		Alert: &models.PriceAlert{
			ID:             primitive.NewObjectID(),
			UserID:         userID,
			Symbol:         symbol,
			Direction:      models.AlertDirectionAbove,
			TargetPrice:    target,
			Triggered:      true,
			TriggeredAt:    &now,
			EmailEnabled:   true,
			BrowserEnabled: true,
		},
		Price: price,
	}
}

func TestDispatchSendsOneEmailPerUser(t *testing.T) {
	f := newNotifierFixture()
	user := f.addUser(t, "ola@example.no")

	batches := map[primitive.ObjectID][]TriggeredAlert{
		user.ID: {
			triggeredAlert(user.ID, "EQNR.OL", 300, 305),
			triggeredAlert(user.ID, "DNB.OL", 200, 210),
		},
	}
	f.notifier.DispatchTriggered(context.Background(), batches)

	if len(f.mailer.sent) != 1 {
		t.Fatalf("emails sent = %d, want one batched email", len(f.mailer.sent))
	}
	mail := f.mailer.sent[0]
	if mail.to != "ola@example.no" {
		t.Errorf("to = %q", mail.to)
	}
	if !strings.Contains(mail.body, "EQNR.OL") || !strings.Contains(mail.body, "DNB.OL") {
		t.Errorf("body missing symbols: %q", mail.body)
	}
	if !strings.Contains(mail.subject, "2") {
		t.Errorf("plural subject = %q, want the batch count", mail.subject)
	}

	events := f.pusher.events[user.ID.Hex()]
	if len(events) != 2 {
		t.Fatalf("browser events = %d, want 2", len(events))
	}
	if events[0].Type != "alert_triggered" {
		t.Errorf("event type = %q", events[0].Type)
	}
}

func TestDispatchSingularSubject(t *testing.T) {
	f := newNotifierFixture()
	user := f.addUser(t, "ola@example.no")

	f.notifier.DispatchTriggered(context.Background(), map[primitive.ObjectID][]TriggeredAlert{
		user.ID: {triggeredAlert(user.ID, "EQNR.OL", 300, 305)},
	})

	if len(f.mailer.sent) != 1 {
		t.Fatalf("emails sent = %d", len(f.mailer.sent))
	}
	if got := f.mailer.sent[0].subject; strings.Contains(got, "%d") {
		t.Errorf("subject not formatted: %q", got)
	}
}

func TestDispatchHonorsChannelFlags(t *testing.T) {
	f := newNotifierFixture()
	user := f.addUser(t, "ola@example.no")

	emailOnly := triggeredAlert(user.ID, "EQNR.OL", 300, 305)
	emailOnly.Alert.BrowserEnabled = false
	browserOnly := triggeredAlert(user.ID, "DNB.OL", 200, 210)
	browserOnly.Alert.EmailEnabled = false

	f.notifier.DispatchTriggered(context.Background(), map[primitive.ObjectID][]TriggeredAlert{
		user.ID: {emailOnly, browserOnly},
	})

	if len(f.mailer.sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(f.mailer.sent))
	}
	if body := f.mailer.sent[0].body; strings.Contains(body, "DNB.OL") {
		t.Errorf("email included browser-only alert: %q", body)
	}

	events := f.pusher.events[user.ID.Hex()]
	if len(events) != 1 || events[0].Symbol != "DNB.OL" {
		t.Errorf("browser events = %+v, want only DNB.OL", events)
	}
}

func TestDispatchRespectsSettingsGate(t *testing.T) {
	f := newNotifierFixture()
	user := f.addUser(t, "ola@example.no")

	settings := models.DefaultNotificationSettings(user.ID)
	settings.EmailEnabled = false
	if err := f.settingsRepo.Update(settings); err != nil {
		t.Fatalf("Update: %v", err)
	}

	f.notifier.DispatchTriggered(context.Background(), map[primitive.ObjectID][]TriggeredAlert{
		user.ID: {triggeredAlert(user.ID, "EQNR.OL", 300, 305)},
	})

	if len(f.mailer.sent) != 0 {
		t.Errorf("emails sent = %d, want 0 with email disabled", len(f.mailer.sent))
	}
	if len(f.pusher.events[user.ID.Hex()]) != 1 {
		t.Error("browser push should not be gated by the email setting")
	}
}

func TestDispatchFallsBackToDefaultsOnSettingsError(t *testing.T) {
	f := newNotifierFixture()
	user := f.addUser(t, "ola@example.no")
	f.settingsRepo.getErr = errNoQuote

	f.notifier.DispatchTriggered(context.Background(), map[primitive.ObjectID][]TriggeredAlert{
		user.ID: {triggeredAlert(user.ID, "EQNR.OL", 300, 305)},
	})

	if len(f.mailer.sent) != 1 {
		t.Errorf("emails sent = %d, defaults should allow the send", len(f.mailer.sent))
	}
}

func TestDispatchRateCap(t *testing.T) {
	f := newNotifierFixture()
	user := f.addUser(t, "ola@example.no")

	settings := models.DefaultNotificationSettings(user.ID)
	settings.MaxPerHour = 2
	if err := f.settingsRepo.Update(settings); err != nil {
		t.Fatalf("Update: %v", err)
	}

	for i := 0; i < 4; i++ {
		f.notifier.DispatchTriggered(context.Background(), map[primitive.ObjectID][]TriggeredAlert{
			user.ID: {triggeredAlert(user.ID, "EQNR.OL", 300, 305)},
		})
	}

	if len(f.mailer.sent) != 2 {
		t.Errorf("emails sent = %d, want hourly cap of 2", len(f.mailer.sent))
	}
	if len(f.pusher.events[user.ID.Hex()]) != 4 {
		t.Error("browser push should not be rate capped")
	}
}

func TestDispatchSkipsUnknownUser(t *testing.T) {
	f := newNotifierFixture()
	ghost := primitive.NewObjectID()

	f.notifier.DispatchTriggered(context.Background(), map[primitive.ObjectID][]TriggeredAlert{
		ghost: {triggeredAlert(ghost, "EQNR.OL", 300, 305)},
	})

	if len(f.mailer.sent) != 0 || len(f.pusher.events) != 0 {
		t.Error("unknown user should produce no notifications")
	}
}

func TestDispatchMailerFailureDoesNotPanic(t *testing.T) {
	f := newNotifierFixture()
	user := f.addUser(t, "ola@example.no")
	f.mailer.err = errNoQuote

	f.notifier.DispatchTriggered(context.Background(), map[primitive.ObjectID][]TriggeredAlert{
		user.ID: {triggeredAlert(user.ID, "EQNR.OL", 300, 305)},
	})

	if len(f.pusher.events[user.ID.Hex()]) != 1 {
		t.Error("browser push should still go out when the mailer fails")
	}
}
