package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/00-khi/class-scheduling-system-sub001/internal/dto"
	"github.com/00-khi/class-scheduling-system-sub001/internal/models"
	"github.com/00-khi/class-scheduling-system-sub001/internal/scheduling"
	appErrors "github.com/00-khi/class-scheduling-system-sub001/pkg/errors"
)

type settingsRepository interface {
	ListByKeys(ctx context.Context, keys []string) ([]models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
}

var settingKeys = []string{
	models.SettingAvailableDays,
	models.SettingDayEnd,
	models.SettingDayStart,
	models.SettingSemester,
}

// SettingsServiceConfig supplies fallbacks for settings that are not persisted.
type SettingsServiceConfig struct {
	DayStart string
	DayEnd   string
	Days     []string
	Semester string
	CacheTTL time.Duration
}

// SettingsService reads and updates the scheduler settings and hands out
// immutable snapshots to scheduling operations.
type SettingsService struct {
	repo      settingsRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	defaults  map[string]string
	cacheTTL  time.Duration
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo settingsRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg SettingsServiceConfig) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := map[string]string{
		models.SettingDayStart:      "07:30",
		models.SettingDayEnd:        "19:30",
		models.SettingAvailableDays: "Monday,Tuesday,Wednesday,Thursday,Friday,Saturday",
		models.SettingSemester:      string(models.SemesterFirst),
	}
	if cfg.DayStart != "" {
		defaults[models.SettingDayStart] = cfg.DayStart
	}
	if cfg.DayEnd != "" {
		defaults[models.SettingDayEnd] = cfg.DayEnd
	}
	if len(cfg.Days) > 0 {
		defaults[models.SettingAvailableDays] = strings.Join(cfg.Days, ",")
	}
	if cfg.Semester != "" {
		defaults[models.SettingSemester] = cfg.Semester
	}
	return &SettingsService{
		repo:      repo,
		cache:     cache,
		validator: validate,
		logger:    logger,
		defaults:  defaults,
		cacheTTL:  cfg.CacheTTL,
	}
}

// Snapshot returns the settings a single operation runs with. Later updates
// do not affect a snapshot already handed out.
func (s *SettingsService) Snapshot(ctx context.Context) (scheduling.Settings, error) {
	var cached scheduling.Settings
	if hit, err := s.cache.Get(ctx, CacheKeySettings, &cached); err == nil && hit {
		return cached, nil
	}

	values, err := s.values(ctx)
	if err != nil {
		return scheduling.Settings{}, err
	}
	settings, err := buildSettings(values)
	if err != nil {
		return scheduling.Settings{}, translateSchedulingError(err)
	}
	_ = s.cache.Set(ctx, CacheKeySettings, settings, s.cacheTTL)
	return settings, nil
}

// List returns every setting with its effective value.
func (s *SettingsService) List(ctx context.Context) ([]dto.SettingItem, error) {
	rows, err := s.repo.ListByKeys(ctx, settingKeys)
	if err != nil {
		return nil, internalError(err, "failed to list settings")
	}
	persisted := make(map[string]models.Setting, len(rows))
	for _, row := range rows {
		persisted[row.Key] = row
	}
	items := make([]dto.SettingItem, 0, len(settingKeys))
	for _, key := range settingKeys {
		if row, ok := persisted[key]; ok {
			updated := row.UpdatedAt
			items = append(items, dto.SettingItem{Key: key, Value: row.Value, UpdatedAt: &updated})
			continue
		}
		items = append(items, dto.SettingItem{Key: key, Value: s.defaults[key], Default: true})
	}
	return items, nil
}

// Update validates and persists a single setting, then drops the cached snapshot.
func (s *SettingsService) Update(ctx context.Context, key string, req dto.UpdateSettingRequest) (*dto.SettingItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid setting payload")
	}
	if req.Key != "" && req.Key != key {
		return nil, appErrors.Clone(appErrors.ErrValidation, "setting key mismatch")
	}
	if !isSettingKey(key) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown setting %q", key))
	}
	normalized, err := normalizeSetting(key, req.Value)
	if err != nil {
		return nil, translateSchedulingError(err)
	}

	values, err := s.values(ctx)
	if err != nil {
		return nil, err
	}
	values[key] = normalized
	if _, err := buildSettings(values); err != nil {
		return nil, translateSchedulingError(err)
	}

	setting := &models.Setting{Key: key, Value: normalized}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, internalError(err, "failed to update setting")
	}
	if err := s.cache.Invalidate(ctx, CacheKeySettings); err != nil {
		s.logger.Warn("settings cache not invalidated", zap.Error(err))
	}
	s.logger.Info("scheduler setting updated", zap.String("key", key), zap.String("value", normalized))
	updated := setting.UpdatedAt
	return &dto.SettingItem{Key: key, Value: normalized, UpdatedAt: &updated}, nil
}

func (s *SettingsService) values(ctx context.Context) (map[string]string, error) {
	rows, err := s.repo.ListByKeys(ctx, settingKeys)
	if err != nil {
		return nil, internalError(err, "failed to load settings")
	}
	values := make(map[string]string, len(settingKeys))
	for key, value := range s.defaults {
		values[key] = value
	}
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

func isSettingKey(key string) bool {
	for _, k := range settingKeys {
		if k == key {
			return true
		}
	}
	return false
}

// normalizeSetting checks a single value and returns its canonical form.
func normalizeSetting(key, value string) (string, error) {
	switch key {
	case models.SettingDayStart, models.SettingDayEnd:
		minutes, err := scheduling.ToMinutes(value)
		if err != nil {
			return "", err
		}
		if minutes%scheduling.GridMinutes != 0 {
			return "", fmt.Errorf("%w: %s must align to %d minutes", scheduling.ErrInvalidRange, key, scheduling.GridMinutes)
		}
		return scheduling.FormatMinutes(minutes), nil
	case models.SettingAvailableDays:
		days, err := parseDays(value)
		if err != nil {
			return "", err
		}
		names := make([]string, len(days))
		for i, d := range days {
			names[i] = string(d)
		}
		return strings.Join(names, ","), nil
	case models.SettingSemester:
		sem, ok := models.ParseSemester(value)
		if !ok {
			return "", fmt.Errorf("%w: unknown semester %q", scheduling.ErrInvalidSettings, value)
		}
		return string(sem), nil
	}
	return "", fmt.Errorf("%w: unknown setting %q", scheduling.ErrInvalidSettings, key)
}

func parseDays(value string) ([]models.Day, error) {
	var days []models.Day
	seen := map[models.Day]bool{}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, ok := models.ParseDay(part)
		if !ok {
			return nil, fmt.Errorf("%w: unknown day %q", scheduling.ErrInvalidSettings, part)
		}
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: at least one day is required", scheduling.ErrInvalidSettings)
	}
	models.SortDays(days)
	return days, nil
}

func buildSettings(values map[string]string) (scheduling.Settings, error) {
	days, err := parseDays(values[models.SettingAvailableDays])
	if err != nil {
		return scheduling.Settings{}, err
	}
	sem, ok := models.ParseSemester(values[models.SettingSemester])
	if !ok {
		return scheduling.Settings{}, fmt.Errorf("%w: unknown semester %q", scheduling.ErrInvalidSettings, values[models.SettingSemester])
	}
	settings := scheduling.Settings{
		DayStart:      strings.TrimSpace(values[models.SettingDayStart]),
		DayEnd:        strings.TrimSpace(values[models.SettingDayEnd]),
		AvailableDays: days,
		Semester:      sem,
	}
	if err := settings.Validate(); err != nil {
		return scheduling.Settings{}, err
	}
	return settings, nil
}
