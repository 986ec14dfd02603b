package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	sectionIDs []string
	sectionID  string
	subjectID  string
	confirm    bool
)

var autoScheduleCmd = &cobra.Command{
	Use:   "auto-schedule",
	Short: "Fill the remaining units of one or more sections",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(sectionIDs) == 0 {
			return errors.New("at least one --section is required")
		}
		return withOperations(cmd, func(ctx context.Context, ops operations) error {
			var failed int
			for _, id := range sectionIDs {
				result, err := ops.AutoSchedule(ctx, id)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "section %s: %v\n", id, err)
					continue
				}
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d sections failed", failed, len(sectionIDs))
			}
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every block and instructor assignment of a section",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirm {
			return errors.New("refusing to reset without --yes")
		}
		return withOperations(cmd, func(ctx context.Context, ops operations) error {
			result, err := ops.ResetSection(ctx, sectionID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		})
	},
}

var remainingCmd = &cobra.Command{
	Use:   "remaining",
	Short: "Show the minutes a subject still needs in a section",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOperations(cmd, func(ctx context.Context, ops operations) error {
			result, err := ops.Remaining(ctx, sectionID, subjectID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		})
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings [key value]",
	Short: "List scheduler settings, or update one",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected no arguments or a key and a value, got %d", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOperations(cmd, func(ctx context.Context, ops operations) error {
			if len(args) == 2 {
				item, err := ops.UpdateSetting(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), item)
			}
			items, err := ops.ListSettings(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), items)
		})
	},
}

func init() {
	autoScheduleCmd.Flags().StringSliceVarP(&sectionIDs, "section", "s", nil, "section id (repeatable)")

	resetCmd.Flags().StringVarP(&sectionID, "section", "s", "", "section id")
	resetCmd.Flags().BoolVar(&confirm, "yes", false, "confirm the reset")
	_ = resetCmd.MarkFlagRequired("section")

	remainingCmd.Flags().StringVarP(&sectionID, "section", "s", "", "section id")
	remainingCmd.Flags().StringVar(&subjectID, "subject", "", "subject id")
	_ = remainingCmd.MarkFlagRequired("section")
	_ = remainingCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(autoScheduleCmd, resetCmd, remainingCmd, settingsCmd)
}
