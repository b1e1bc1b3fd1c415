package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"fujin.app/metrics"
	"fujin.app/models"
	"fujin.app/repository"
)

type sinkCall struct {
	ruleID   string
	value    float64
	location string
}

// recordingSink captures dispatches and optionally fails them
type recordingSink struct {
	mu    sync.Mutex
	calls []sinkCall
	err   error
}

func (r *recordingSink) Dispatch(_ context.Context, rule models.AlertRule, value float64, locationName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, sinkCall{ruleID: rule.ID, value: value, location: locationName})
	return r.err
}

func (r *recordingSink) recorded() []sinkCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sinkCall(nil), r.calls...)
}

func storeSnapshot(t *testing.T, db *gorm.DB, locationID string, snapshot *models.WeatherSnapshot) {
	t.Helper()
	require.NoError(t, repository.NewSnapshotRepository(db).Replace(locationID, snapshot))
}

func seedRule(t *testing.T, db *gorm.DB, locationID, field, operator string, threshold float64) *models.AlertRule {
	t.Helper()

	rule := &models.AlertRule{
		UserID:     "user-1",
		LocationID: locationID,
		Field:      field,
		Operator:   operator,
		Threshold:  threshold,
	}
	require.NoError(t, repository.NewAlertRuleRepository(db).Create(rule))
	return rule
}

func newAlertService(db *gorm.DB, sink NotificationSink, cooldown time.Duration) *AlertService {
	return NewAlertService(
		repository.NewAlertRuleRepository(db),
		repository.NewSnapshotRepository(db),
		sink,
		cooldown,
	)
}

func TestAlertService_FiresOnlyWhenThresholdCrossed(t *testing.T) {
	db := setupTestDB(t)
	location := seedLocation(t, db, "Home", -23.18, -45.89)
	storeSnapshot(t, db, location.ID, &models.WeatherSnapshot{Timestamp: time.Now().UTC(), Temperature: 32})

	firing := seedRule(t, db, location.ID, "temperature", models.OpGT, 30)
	seedRule(t, db, location.ID, "temperature", models.OpGT, 35)
	seedRule(t, db, location.ID, "barometricSurprise", models.OpGT, 0)

	sink := &recordingSink{}
	svc := newAlertService(db, sink, 0)

	require.NoError(t, svc.EvaluateAll(context.Background()))

	calls := sink.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, firing.ID, calls[0].ruleID)
	assert.InDelta(t, 32, calls[0].value, 0.0001)
	assert.Equal(t, "Home", calls[0].location)
}

func TestAlertService_EveryOperator(t *testing.T) {
	tests := []struct {
		operator  string
		threshold float64
		fires     bool
	}{
		{models.OpGT, 31.9, true},
		{models.OpGT, 32, false},
		{models.OpGTE, 32, true},
		{models.OpLT, 32, false},
		{models.OpLT, 32.1, true},
		{models.OpLTE, 32, true},
		{models.OpEQ, 32, true},
		{models.OpEQ, 32.0000001, false},
	}

	for _, tt := range tests {
		t.Run(tt.operator, func(t *testing.T) {
			fired, err := compare(32, tt.operator, tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.fires, fired)
		})
	}

	_, err := compare(32, "BETWEEN", 30)
	assert.Error(t, err)
}

func TestAlertService_NoSnapshotIsSilentSkip(t *testing.T) {
	db := setupTestDB(t)
	location := seedLocation(t, db, "Home", -23.18, -45.89)
	seedRule(t, db, location.ID, "temperature", models.OpGT, 0)

	sink := &recordingSink{}
	svc := newAlertService(db, sink, 0)

	require.NoError(t, svc.EvaluateAll(context.Background()))
	assert.Empty(t, sink.recorded())
}

func TestAlertService_CooldownSuppressesRepeatFiring(t *testing.T) {
	db := setupTestDB(t)
	location := seedLocation(t, db, "Home", -23.18, -45.89)
	storeSnapshot(t, db, location.ID, &models.WeatherSnapshot{Timestamp: time.Now().UTC(), Temperature: 32})
	seedRule(t, db, location.ID, "temperature", models.OpGT, 30)

	sink := &recordingSink{}
	svc := newAlertService(db, sink, time.Hour)

	require.NoError(t, svc.EvaluateAll(context.Background()))
	require.NoError(t, svc.EvaluateAll(context.Background()))
	assert.Len(t, sink.recorded(), 1, "second tick within cooldown must be suppressed")

	// once the cooldown elapses the still-true rule fires again
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.NoError(t, svc.EvaluateAll(context.Background()))
	assert.Len(t, sink.recorded(), 2)
}

func TestAlertService_CooldownSuppressionNotCountedAsFired(t *testing.T) {
	db := setupTestDB(t)
	location := seedLocation(t, db, "Home", -23.18, -45.89)
	storeSnapshot(t, db, location.ID, &models.WeatherSnapshot{Timestamp: time.Now().UTC(), Temperature: 32})
	seedRule(t, db, location.ID, "temperature", models.OpGT, 30)

	sink := &recordingSink{}
	svc := newAlertService(db, sink, time.Hour)

	before := testutil.ToFloat64(metrics.AlertsFired)
	require.NoError(t, svc.EvaluateAll(context.Background()))
	require.NoError(t, svc.EvaluateAll(context.Background()))

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.AlertsFired)-before, 0.0001,
		"a suppressed evaluation must not count as fired")
}

func TestAlertService_ZeroCooldownRefiresEveryTick(t *testing.T) {
	db := setupTestDB(t)
	location := seedLocation(t, db, "Home", -23.18, -45.89)
	storeSnapshot(t, db, location.ID, &models.WeatherSnapshot{Timestamp: time.Now().UTC(), Temperature: 32})
	seedRule(t, db, location.ID, "temperature", models.OpGT, 30)

	sink := &recordingSink{}
	svc := newAlertService(db, sink, 0)

	require.NoError(t, svc.EvaluateAll(context.Background()))
	require.NoError(t, svc.EvaluateAll(context.Background()))
	assert.Len(t, sink.recorded(), 2)
}

func TestAlertService_FailedDispatchDoesNotStartCooldown(t *testing.T) {
	db := setupTestDB(t)
	location := seedLocation(t, db, "Home", -23.18, -45.89)
	storeSnapshot(t, db, location.ID, &models.WeatherSnapshot{Timestamp: time.Now().UTC(), Temperature: 32})
	seedRule(t, db, location.ID, "temperature", models.OpGT, 30)

	sink := &recordingSink{err: assert.AnError}
	svc := newAlertService(db, sink, time.Hour)

	require.NoError(t, svc.EvaluateAll(context.Background()))

	sink.mu.Lock()
	sink.err = nil
	sink.mu.Unlock()

	require.NoError(t, svc.EvaluateAll(context.Background()))
	assert.Len(t, sink.recorded(), 2, "the failed attempt must not suppress the retry")
}

func TestAlertService_ActiveWindow(t *testing.T) {
	db := setupTestDB(t)
	location := seedLocation(t, db, "Home", -23.18, -45.89)
	storeSnapshot(t, db, location.ID, &models.WeatherSnapshot{Timestamp: time.Now().UTC(), Temperature: 32})

	overnight := seedRule(t, db, location.ID, "temperature", models.OpGT, 30)
	overnight.ActiveFrom, overnight.ActiveTo = "22:00", "06:00"
	require.NoError(t, db.Save(overnight).Error)

	daytime := seedRule(t, db, location.ID, "temperature", models.OpGT, 30)
	daytime.ActiveFrom, daytime.ActiveTo = "08:00", "10:00"
	require.NoError(t, db.Save(daytime).Error)

	sink := &recordingSink{}
	svc := newAlertService(db, sink, 0)
	svc.now = func() time.Time { return time.Date(2023, 11, 14, 23, 30, 0, 0, time.UTC) }

	require.NoError(t, svc.EvaluateAll(context.Background()))

	calls := sink.recorded()
	require.Len(t, calls, 1, "only the overnight window covers 23:30")
	assert.Equal(t, overnight.ID, calls[0].ruleID)
}

func TestAlertPipeline_RefreshThenEvaluate(t *testing.T) {
	db := setupTestDB(t)
	location := seedLocation(t, db, "Vale do Paraiba", -23.18, -45.89)

	provider := &fakeProvider{envelope: sampleEnvelope(8, 25)}
	weather := NewWeatherService(provider,
		repository.NewLocationRepository(db), repository.NewSnapshotRepository(db), 0)
	require.NoError(t, weather.RefreshAll(context.Background()))

	snapshot, err := weather.Latest(location.ID)
	require.NoError(t, err)
	assert.Len(t, snapshot.Forecasts, 7)

	rule := seedRule(t, db, location.ID, "windSpeed", models.OpGTE, 20)

	sink := &recordingSink{}
	alerts := newAlertService(db, sink, 0)
	require.NoError(t, alerts.EvaluateAll(context.Background()))

	calls := sink.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, rule.ID, calls[0].ruleID)
	assert.InDelta(t, 25, calls[0].value, 0.0001)
	assert.Equal(t, "Vale do Paraiba", calls[0].location)
}
