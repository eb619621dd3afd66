package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/omarluq/itemdesk/internal/health"
	"github.com/omarluq/itemdesk/internal/view"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check if the itemdesk frontend is running",
	Long: `Check the health of a running itemdesk frontend by querying its
/health endpoint. The report includes the backend circuit state.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	listen := cfg.Server.GetListen()
	out := cmd.OutOrStdout()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	report, status, err := fetchHealth(ctx, "http://"+listen+"/health")
	if err != nil {
		view.Fail(out, fmt.Sprintf("itemdesk is not running (%s)", listen))
		return fmt.Errorf("server not reachable: %w", err)
	}
	if status != http.StatusOK {
		view.Fail(out, fmt.Sprintf("itemdesk returned unexpected status: %d", status))
		return fmt.Errorf("health check failed with status %d", status)
	}

	msg := fmt.Sprintf("itemdesk is running (%s), backend circuit %s", listen, report.Backend)
	if report.Status != "ok" {
		view.Fail(out, msg)
		return nil
	}
	view.OK(out, msg)
	return nil
}

func fetchHealth(ctx context.Context, url string) (health.Report, int, error) {
	var report health.Report

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return report, 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return report, 0, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close response body")
		}
	}()

	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
			return report, resp.StatusCode, fmt.Errorf("decode health report: %w", err)
		}
	}
	return report, resp.StatusCode, nil
}
