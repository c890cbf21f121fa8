package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/teemow/voicecal/internal/config"
	"github.com/teemow/voicecal/internal/scheduling"
)

// newOperatorService builds a scheduling service for the operator
// commands. They never call the model, so only calendar settings are
// validated.
func newOperatorService(ctx context.Context) (*scheduling.Service, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateCalendar(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	return newSchedulingService(ctx, cfg, logger, nil)
}

// defaultDate returns date, or today in the service's zone when empty.
func defaultDate(svc *scheduling.Service, date string) string {
	if date != "" {
		return date
	}
	return svc.Config().Zone.Today(time.Now())
}

func writeResult(w io.Writer, asJSON bool, message string, v any) error {
	if !asJSON {
		_, err := fmt.Fprintln(w, message)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
