package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"fmtd/internal/serverctl"
)

func newServerCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the formatting server (or confirm it is already running)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withController(func(ctl *serverctl.Controller) error {
				desc, err := ctl.Ensure(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Formatting server ready (pid %d, port %d)\n", desc.PID, desc.Port)
				return nil
			})
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the formatting server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withController(func(ctl *serverctl.Controller) error {
				stdout := cmd.OutOrStdout()
				desc, err := ctl.Shutdown(cmd.Context())
				if err != nil {
					return err
				}
				if desc == nil {
					fmt.Fprintln(stdout, "No formatting server is running")
					return nil
				}
				fmt.Fprintf(stdout, "Formatting server stopped (pid %d)\n", desc.PID)
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show formatting server status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withController(func(ctl *serverctl.Controller) error {
				snap := ctl.Snapshot(cmd.Context())
				renderSnapshot(cmd, snap, ctx.configValue().IdleTimeout())
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func renderSnapshot(cmd *cobra.Command, snap serverctl.Snapshot, idleTimeout time.Duration) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Formatting Server", colorize) {
		fmt.Fprintln(stdout, line)
	}

	if snap.Descriptor == nil {
		fmt.Fprintln(stdout, renderStatusLine("Server", statusInfo, "not running", colorize))
	} else {
		desc := snap.Descriptor
		kind, detail := statusOK, "running"
		switch {
		case !snap.Alive:
			kind, detail = statusError, "recorded process is gone"
		case !snap.Responsive:
			kind, detail = statusWarn, "process alive but not responding"
		}
		fmt.Fprintln(stdout, renderStatusLine("Server", kind, detail, colorize))
		fmt.Fprintln(stdout, renderStatusLine("PID", statusInfo, strconv.Itoa(desc.PID), colorize))
		fmt.Fprintln(stdout, renderStatusLine("Port", statusInfo, strconv.Itoa(desc.Port), colorize))
		if desc.InstanceID != "" {
			fmt.Fprintln(stdout, renderStatusLine("Instance", statusInfo, desc.InstanceID, colorize))
		}

		idleKind := statusOK
		if snap.Idle >= idleTimeout {
			idleKind = statusWarn
		}
		idleDetail := fmt.Sprintf("%s (reaped after %s)", snap.Idle.Round(time.Second), idleTimeout)
		fmt.Fprintln(stdout, renderStatusLine("Idle", idleKind, idleDetail, colorize))
	}

	fmt.Fprintln(stdout)
	for _, line := range renderSectionHeader("Paths", colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("State file", statusInfo, snap.StateFile, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Lock file", statusInfo, snap.LockFile, colorize))

	if snap.History == nil || snap.History.Total == 0 {
		return
	}

	fmt.Fprintln(stdout)
	for _, line := range renderSectionHeader("Recent Activity", colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Invocations", statusInfo, strconv.Itoa(snap.History.Total), colorize))
	if !snap.History.LastAt.IsZero() {
		fmt.Fprintln(stdout, renderStatusLine("Last used", statusInfo, snap.History.LastAt.Local().Format(time.RFC1123), colorize))
	}

	rows := make([][]string, 0, len(snap.History.ByStatus))
	statuses := make([]string, 0, len(snap.History.ByStatus))
	for status := range snap.History.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		rows = append(rows, []string{status, strconv.Itoa(snap.History.ByStatus[status])})
	}
	fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}
