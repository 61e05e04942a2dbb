package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/domain/schedule"
	"github.com/phrazzld/tempo/internal/oracle"
	"github.com/phrazzld/tempo/internal/scheduling"
	"github.com/spf13/cobra"
)

// errOffline is what the dry-run oracle answers; plan never consults the
// reasoning service.
var errOffline = errors.New("reasoning service not available in dry-run")

type offlineClient struct{}

func (offlineClient) Complete(context.Context, string) (string, error) {
	return "", errOffline
}

// planOutput is the JSON printed by the plan command.
type planOutput struct {
	Description       string    `json:"description"`
	Period            string    `json:"period"`
	Explicit          bool      `json:"explicit"`
	EstimatedDuration int       `json:"estimated_duration"`
	Priority          int       `json:"priority"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	Fallback          bool      `json:"fallback"`
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   `plan "<description>"`,
		Short: "Show where a task would be scheduled",
		Long: `Runs the scheduling engine offline for a single description and prints
the decision as JSON. Existing commitments can be supplied with --busy as
RFC 3339 intervals (start/end). No database or reasoning service is used.`,
		Example: `  tempo plan "go for a morning walk"
  tempo plan "client call" --now 2026-03-02T08:30:00Z --busy 2026-03-02T12:00:00Z/2026-03-02T13:00:00Z`,
		Args: cobra.ExactArgs(1),
		RunE: runPlan,
	}

	cmd.Flags().String("now", "", "Reference time in RFC 3339 (default: current time)")
	cmd.Flags().String("timezone", "UTC", "IANA time zone candidate windows are built in")
	cmd.Flags().StringArray("busy", nil, "Existing commitment as start/end in RFC 3339; repeatable")
	cmd.Flags().Int("horizon-days", 0, "Number of period instances to search (default 7)")
	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	description := strings.TrimSpace(args[0])
	if description == "" {
		return domain.ErrEmptyDescription
	}

	tz, _ := cmd.Flags().GetString("timezone")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid --timezone %q: %w", tz, err)
	}

	now := time.Now().In(loc)
	if raw, _ := cmd.Flags().GetString("now"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid --now %q: %w", raw, err)
		}
		now = parsed.In(loc)
	}

	rawBusy, _ := cmd.Flags().GetStringArray("busy")
	commitments, err := parseCommitments(rawBusy)
	if err != nil {
		return err
	}

	horizon, _ := cmd.Flags().GetInt("horizon-days")
	engine := schedule.NewServiceWithParams(schedule.NewParams(schedule.ParamsConfig{HorizonDays: horizon}))

	log := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	adapter, err := oracle.NewAdapter(offlineClient{}, log)
	if err != nil {
		return err
	}
	controller, err := scheduling.NewController(engine, adapter, log)
	if err != nil {
		return err
	}

	plan, err := controller.Create(cmd.Context(), description, nil, commitments, now)
	if err != nil {
		return err
	}

	_, explicit := engine.ClassifyPeriod(description)
	return writePlan(cmd.OutOrStdout(), planOutput{
		Description:       description,
		Period:            string(plan.Schedule.Period),
		Explicit:          explicit,
		EstimatedDuration: plan.Schedule.EstimatedDuration,
		Priority:          plan.Schedule.Priority,
		Start:             plan.Schedule.Window.Start,
		End:               plan.Schedule.Window.End,
		Fallback:          plan.Fallback,
	})
}

// parseCommitments reads "start/end" RFC 3339 intervals.
func parseCommitments(raw []string) ([]domain.TimeWindow, error) {
	windows := make([]domain.TimeWindow, 0, len(raw))
	for _, r := range raw {
		startText, endText, ok := strings.Cut(r, "/")
		if !ok {
			return nil, fmt.Errorf("invalid --busy %q: expected start/end", r)
		}
		start, err := time.Parse(time.RFC3339, strings.TrimSpace(startText))
		if err != nil {
			return nil, fmt.Errorf("invalid --busy start %q: %w", startText, err)
		}
		end, err := time.Parse(time.RFC3339, strings.TrimSpace(endText))
		if err != nil {
			return nil, fmt.Errorf("invalid --busy end %q: %w", endText, err)
		}
		w := domain.TimeWindow{Start: start, End: end}
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --busy %q: %w", r, err)
		}
		windows = append(windows, w)
	}
	return windows, nil
}

func writePlan(w io.Writer, out planOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
