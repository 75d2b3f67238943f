// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/mrf7777/protogen-software-sub000/internal/control"
)

// ProcessStatus holds the status information for a running host.
type ProcessStatus struct {
	Addr          string `json:"addr"`
	Running       bool   `json:"running"`
	Ready         bool   `json:"ready"`
	Health        string `json:"health,omitempty"`
	PID           int    `json:"pid,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds,omitempty"`
	ActiveApp     string `json:"active_app,omitempty"`
	Error         string `json:"error,omitempty"`
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of the running host",
		Long:  `Query the control server of a running protogen host.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Control.Addr == "" {
				return oops.In("cli").Hint("set control.addr or --control-addr").Errorf("control server is disabled")
			}

			status := queryStatus(&http.Client{Timeout: 2 * time.Second}, cfg.Control.Addr)
			if jsonOutput {
				data, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					return oops.In("cli").Wrapf(err, "marshal status")
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), formatStatusTable(status))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output status as JSON")
	return cmd
}

// queryStatus asks the control server at addr for its health and status.
func queryStatus(client *http.Client, addr string) ProcessStatus {
	status := ProcessStatus{Addr: addr}
	base := "http://" + strings.TrimPrefix(addr, "http://")

	healthResp, err := client.Get(base + "/health")
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = healthResp.Body.Close() }()

	var health control.HealthResponse
	if err := json.NewDecoder(healthResp.Body).Decode(&health); err != nil {
		status.Error = fmt.Sprintf("failed to decode health response: %v", err)
		return status
	}
	status.Running = true
	status.Health = health.Status

	statusResp, err := client.Get(base + "/status")
	if err != nil {
		return status
	}
	defer func() { _ = statusResp.Body.Close() }()

	var controlStatus control.StatusResponse
	if err := json.NewDecoder(statusResp.Body).Decode(&controlStatus); err != nil {
		return status
	}
	status.Ready = controlStatus.Ready
	status.PID = controlStatus.PID
	status.UptimeSeconds = controlStatus.UptimeSeconds
	status.ActiveApp = controlStatus.ActiveApp
	return status
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(status ProcessStatus) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "ADDR\tSTATUS\tHEALTH\tPID\tUPTIME\tACTIVE APP")
	if status.Running {
		active := status.ActiveApp
		if active == "" {
			active = "-"
		}
		state := "running"
		if !status.Ready {
			state = "loading"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			status.Addr, state, status.Health, status.PID, formatUptime(status.UptimeSeconds), active)
	} else {
		reason := "not running"
		if status.Error != "" {
			reason = status.Error
		}
		_, _ = fmt.Fprintf(w, "%s\tstopped\t-\t-\t-\t%s\n", status.Addr, reason)
	}

	_ = w.Flush()
	return buf.String()
}

// formatUptime formats seconds into a human-readable duration.
func formatUptime(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
