package service

import (
	"context"
	"encoding/json"
	"path"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/00-khi/class-scheduling-system-sub001/internal/dto"
	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
	appErrors "github.com/00-khi/class-scheduling-system-sub001/pkg/errors"
)

type settingsRepoStub struct {
	rows  map[string]models.Setting
	reads int
}

func (s *settingsRepoStub) ListByKeys(ctx context.Context, keys []string) ([]models.Setting, error) {
	s.reads++
	var out []models.Setting
	for _, key := range keys {
		if row, ok := s.rows[key]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *settingsRepoStub) Upsert(ctx context.Context, setting *models.Setting) error {
	setting.UpdatedAt = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	s.rows[setting.Key] = *setting
	return nil
}

type memoryCacheRepo struct {
	values map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	for key := range m.values {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.values, key)
		}
	}
	return nil
}

func newSettingsFixture(rows ...models.Setting) (*SettingsService, *settingsRepoStub, *memoryCacheRepo) {
	repo := &settingsRepoStub{rows: map[string]models.Setting{}}
	for _, row := range rows {
		repo.rows[row.Key] = row
	}
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	svc := NewSettingsService(repo, cache, validator.New(), zap.NewNop(), SettingsServiceConfig{
		DayStart: "07:30",
		DayEnd:   "19:30",
		Days:     []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		Semester: "First",
	})
	return svc, repo, cacheRepo
}

func TestSettingsSnapshotDefaultsAndCache(t *testing.T) {
	svc, repo, cacheRepo := newSettingsFixture(models.Setting{Key: models.SettingSemester, Value: "Second"})
	ctx := context.Background()

	settings, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "07:30", settings.DayStart)
	assert.Equal(t, "19:30", settings.DayEnd)
	assert.Equal(t, models.SemesterSecond, settings.Semester)
	assert.Len(t, settings.AvailableDays, 6)
	assert.Contains(t, cacheRepo.values, CacheKeySettings)

	again, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings, again)
	assert.Equal(t, 1, repo.reads)
}

func TestSettingsUpdateNormalisesAndInvalidates(t *testing.T) {
	svc, repo, cacheRepo := newSettingsFixture()
	ctx := context.Background()

	before, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	item, err := svc.Update(ctx, models.SettingDayStart, dto.UpdateSettingRequest{Value: "8:00"})
	require.NoError(t, err)
	assert.Equal(t, "08:00", item.Value)
	assert.Equal(t, "08:00", repo.rows[models.SettingDayStart].Value)
	assert.NotContains(t, cacheRepo.values, CacheKeySettings)

	// A snapshot taken earlier is unaffected.
	assert.Equal(t, "07:30", before.DayStart)

	after, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "08:00", after.DayStart)

	item, err = svc.Update(ctx, models.SettingAvailableDays, dto.UpdateSettingRequest{Value: "friday, monday,Monday"})
	require.NoError(t, err)
	assert.Equal(t, "Monday,Friday", item.Value)
}

func TestSettingsUpdateRejectsInvalidValues(t *testing.T) {
	svc, repo, _ := newSettingsFixture()
	ctx := context.Background()

	_, err := svc.Update(ctx, models.SettingDayStart, dto.UpdateSettingRequest{})
	requireAppError(t, err, appErrors.ErrValidation)

	_, err = svc.Update(ctx, "timezone", dto.UpdateSettingRequest{Value: "UTC"})
	requireAppError(t, err, appErrors.ErrValidation)

	_, err = svc.Update(ctx, models.SettingDayEnd, dto.UpdateSettingRequest{Key: models.SettingDayStart, Value: "18:00"})
	requireAppError(t, err, appErrors.ErrValidation)

	_, err = svc.Update(ctx, models.SettingDayStart, dto.UpdateSettingRequest{Value: "seven"})
	requireAppError(t, err, appErrors.ErrMalformedTime)

	_, err = svc.Update(ctx, models.SettingDayStart, dto.UpdateSettingRequest{Value: "07:45"})
	requireAppError(t, err, appErrors.ErrInvalidRange)

	_, err = svc.Update(ctx, models.SettingDayStart, dto.UpdateSettingRequest{Value: "20:00"})
	requireAppError(t, err, appErrors.ErrInvalidSettings)

	_, err = svc.Update(ctx, models.SettingAvailableDays, dto.UpdateSettingRequest{Value: "Caturday"})
	requireAppError(t, err, appErrors.ErrInvalidSettings)

	_, err = svc.Update(ctx, models.SettingSemester, dto.UpdateSettingRequest{Value: "Summer"})
	requireAppError(t, err, appErrors.ErrInvalidSettings)

	assert.Empty(t, repo.rows)
}

func TestSettingsList(t *testing.T) {
	svc, _, _ := newSettingsFixture(models.Setting{Key: models.SettingDayEnd, Value: "18:00", UpdatedAt: time.Now()})

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 4)
	for _, item := range items {
		if item.Key == models.SettingDayEnd {
			assert.Equal(t, "18:00", item.Value)
			assert.False(t, item.Default)
			assert.NotNil(t, item.UpdatedAt)
			continue
		}
		assert.True(t, item.Default, item.Key)
	}
}
