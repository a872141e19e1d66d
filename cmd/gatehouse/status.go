// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/config"
	"github.com/gatehouse/gatehouse/internal/store"
)

// ServiceStatus holds the probed state of a running Gatehouse instance.
type ServiceStatus struct {
	Live             bool   `json:"live"`
	Ready            bool   `json:"ready"`
	MigrationVersion uint   `json:"migration_version"`
	MigrationDirty   bool   `json:"migration_dirty,omitempty"`
	Error            string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show health and migration status of a Gatehouse deployment",
		Long: `Probes the metrics/health endpoint of a running server and reports
the current database migration version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().String("metrics-listen", config.Defaults().MetricsListen, "metrics/health HTTP address to probe")
	cmd.Flags().String("database-url", "", "PostgreSQL connection URL (overrides config file)")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	appCfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	status := probeStatus(appCfg)

	if cfg.jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(formatStatusTable(status))
	return nil
}

func probeStatus(cfg *config.Config) ServiceStatus {
	var status ServiceStatus

	client := &http.Client{Timeout: 2 * time.Second}

	addr := cfg.MetricsListen
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	base := "http://" + addr

	status.Live = probeEndpoint(client, base+"/healthz/liveness")
	status.Ready = probeEndpoint(client, base+"/healthz/readiness")

	migrator, err := store.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		status.Error = fmt.Sprintf("migrator: %v", err)
		return status
	}
	defer func() { _ = migrator.Close() }()

	version, dirty, err := migrator.Version()
	if err != nil {
		status.Error = fmt.Sprintf("migration version: %v", err)
		return status
	}
	status.MigrationVersion = version
	status.MigrationDirty = dirty

	return status
}

func probeEndpoint(client *http.Client, url string) bool {
	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(status ServiceStatus) string {
	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "CHECK\tSTATE")
	_, _ = fmt.Fprintln(w, "-----\t-----")
	_, _ = fmt.Fprintf(w, "liveness\t%s\n", upDown(status.Live))
	_, _ = fmt.Fprintf(w, "readiness\t%s\n", upDown(status.Ready))

	migration := fmt.Sprintf("version %d", status.MigrationVersion)
	if status.MigrationVersion == 0 {
		migration = "none applied"
	}
	if status.MigrationDirty {
		migration += " (dirty)"
	}
	_, _ = fmt.Fprintf(w, "migrations\t%s\n", migration)

	if status.Error != "" {
		_, _ = fmt.Fprintf(w, "error\t%s\n", status.Error)
	}

	_ = w.Flush()
	return string(buf)
}

func upDown(ok bool) string {
	if ok {
		return "up"
	}
	return "down"
}

// byteWriter is a simple writer that appends to a byte slice.
type byteWriter []byte

func (w *byteWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
