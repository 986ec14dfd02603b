package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/00-khi/class-scheduling-system-sub001/internal/app"
	"github.com/00-khi/class-scheduling-system-sub001/internal/dto"
	"github.com/00-khi/class-scheduling-system-sub001/pkg/config"
	"github.com/00-khi/class-scheduling-system-sub001/pkg/logger"
)

// operations is the slice of the application the commands drive.
type operations interface {
	AutoSchedule(ctx context.Context, sectionID string) (*dto.AutoScheduleResponse, error)
	ResetSection(ctx context.Context, sectionID string) (*dto.ResetSectionResponse, error)
	Remaining(ctx context.Context, sectionID, subjectID string) (*dto.RemainingUnitsResponse, error)
	ListSettings(ctx context.Context) ([]dto.SettingItem, error)
	UpdateSetting(ctx context.Context, key, value string) (*dto.SettingItem, error)
	Close() error
}

// connect builds the operations backend. Tests replace it.
var connect = func(ctx context.Context) (operations, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := app.New(ctx, cfg, logr)
	if err != nil {
		return nil, err
	}
	return appOperations{app: a, logger: logr}, nil
}

var rootCmd = &cobra.Command{
	Use:           "schedulerctl",
	Short:         "Operate the class scheduling service from the command line",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// withOperations opens the backend for the lifetime of one command.
func withOperations(cmd *cobra.Command, fn func(ctx context.Context, ops operations) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ops, err := connect(ctx)
	if err != nil {
		return err
	}
	defer ops.Close() //nolint:errcheck
	return fn(ctx, ops)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type appOperations struct {
	app    *app.App
	logger *zap.Logger
}

func (o appOperations) AutoSchedule(ctx context.Context, sectionID string) (*dto.AutoScheduleResponse, error) {
	return o.app.Auto.AutoSchedule(ctx, sectionID)
}

func (o appOperations) ResetSection(ctx context.Context, sectionID string) (*dto.ResetSectionResponse, error) {
	return o.app.Schedule.ResetSection(ctx, sectionID)
}

func (o appOperations) Remaining(ctx context.Context, sectionID, subjectID string) (*dto.RemainingUnitsResponse, error) {
	return o.app.Schedule.Remaining(ctx, sectionID, subjectID)
}

func (o appOperations) ListSettings(ctx context.Context) ([]dto.SettingItem, error) {
	return o.app.Settings.List(ctx)
}

func (o appOperations) UpdateSetting(ctx context.Context, key, value string) (*dto.SettingItem, error) {
	return o.app.Settings.Update(ctx, key, dto.UpdateSettingRequest{Key: key, Value: value})
}

func (o appOperations) Close() error {
	defer o.logger.Sync() //nolint:errcheck
	return o.app.Close()
}
