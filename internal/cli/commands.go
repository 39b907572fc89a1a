package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"generator_ledger/internal/app"
	"generator_ledger/internal/models"
	"generator_ledger/internal/service"
)

const defaultActor = "genctl"

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, opts *RootOptions, open Opener, fn func(ctx context.Context, a *app.App, p printer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := open(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a, printer{format: opts.Format, w: cmd.OutOrStdout()})
}

// actorFlag defaults to the login name so the audit trail shows who ran it.
func actorFlag(cmd *cobra.Command, target *string) {
	def := os.Getenv("USER")
	if def == "" {
		def = defaultActor
	}
	cmd.Flags().StringVar(target, "actor", def, "name recorded in the event log")
}

// NewStateCommand creates the state command.
func NewStateCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:           "state",
		Short:         "Show generator state, ledger health and maintenance",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, open, func(ctx context.Context, a *app.App, p printer) error {
				snap, err := a.Services.GetState(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "read state", err)
				}
				return p.print(snap, func(w io.Writer) { printSnapshot(w, snap) })
			})
		},
	}
}

func printSnapshot(w io.Writer, s service.Snapshot) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "status\t%s\n", s.State.Status)
	if s.State.ActiveShift != models.ShiftNone {
		fmt.Fprintf(tw, "shift\t%s since %s %s\n", s.State.ActiveShift, s.State.ShiftStartDate, s.State.ShiftStartTime)
	}
	fmt.Fprintf(tw, "engine hours\t%.2f\n", s.State.TotalEngineHours)
	fmt.Fprintf(tw, "fuel\t%.1f L\n", s.State.CurrentFuelLiters)
	ledger := "online"
	switch {
	case s.Health.ForcedOffline:
		ledger = "offline (forced)"
	case s.Offline:
		ledger = "offline"
	}
	fmt.Fprintf(tw, "ledger\t%s\n", ledger)
	fmt.Fprintf(tw, "unsynced\t%d\n", s.Unsynced)
	for _, m := range s.Maintenance {
		mark := ""
		if m.Overdue {
			mark = " OVERDUE"
		}
		fmt.Fprintf(tw, "%s\t%.1f h since, %.1f h left%s\n", m.Kind, m.SinceHours, m.LeftHours, mark)
	}
	_ = tw.Flush()
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:           "sync",
		Short:         "Run one reconciliation cycle against the ledger",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, open, func(ctx context.Context, a *app.App, p printer) error {
				report, err := a.Services.RunCycle(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "sync", err)
				}
				return p.print(report, func(w io.Writer) {
					if report.Skipped {
						fmt.Fprintf(w, "cycle %s skipped: ledger offline, %d pending\n", report.ID, report.Pending)
						return
					}
					fmt.Fprintf(w, "cycle %s: %d synced, %d pending (%s)\n",
						report.ID, report.Synced, report.Pending, report.Duration)
				})
			})
		},
	}
}

// NewOfflineCommand creates the offline command.
func NewOfflineCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:           "offline",
		Short:         "Force offline mode; events stay local until online",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, open, func(ctx context.Context, a *app.App, p printer) error {
				if err := a.Services.ForceOffline(ctx, actor); err != nil {
					return WrapExitError(ExitFailure, "force offline", err)
				}
				return printHealth(ctx, a, p)
			})
		},
	}
	actorFlag(cmd, &actor)
	return cmd
}

// NewOnlineCommand creates the online command.
func NewOnlineCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:           "online",
		Short:         "Leave forced offline mode and clear the failure streak",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, open, func(ctx context.Context, a *app.App, p printer) error {
				if err := a.Services.ForceOnline(ctx, actor); err != nil {
					return WrapExitError(ExitFailure, "force online", err)
				}
				return printHealth(ctx, a, p)
			})
		},
	}
	actorFlag(cmd, &actor)
	return cmd
}

func printHealth(ctx context.Context, a *app.App, p printer) error {
	h, err := a.Services.Health.Snapshot(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "read health", err)
	}
	return p.print(h, func(w io.Writer) {
		fmt.Fprintf(w, "offline=%t forced=%t\n", h.Offline || h.ForcedOffline, h.ForcedOffline)
	})
}

// NewUnsyncedCommand creates the unsynced command.
func NewUnsyncedCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	var (
		list  bool
		limit int
	)
	cmd := &cobra.Command{
		Use:           "unsynced",
		Short:         "Count events not yet written to the ledger",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, open, func(ctx context.Context, a *app.App, p printer) error {
				n, err := a.Services.Unsynced(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "count unsynced", err)
				}
				out := unsyncedOutput{Count: n}
				if list {
					out.Events, err = a.Services.List(ctx, service.LogFilter{Unsynced: true, Limit: limit})
					if err != nil {
						return WrapExitError(ExitFailure, "list unsynced", err)
					}
				}
				return p.print(out, func(w io.Writer) { printUnsynced(w, out) })
			})
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list the pending events")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of events to list")
	return cmd
}

type unsyncedOutput struct {
	Count  int                    `json:"count"`
	Events []models.EventLogEntry `json:"events,omitempty"`
}

func printUnsynced(w io.Writer, out unsyncedOutput) {
	fmt.Fprintf(w, "%d unsynced\n", out.Count)
	if len(out.Events) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range out.Events {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.ID, e.Timestamp.Format(models.DateLayout+" 15:04"), e.Kind, e.Actor, e.Payload)
	}
	_ = tw.Flush()
}

// NewAutoCloseCommand creates the autoclose command.
func NewAutoCloseCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:           "autoclose",
		Short:         "Close a shift left running past work hours",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, open, func(ctx context.Context, a *app.App, p printer) error {
				res, err := a.Services.AutoClose(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "auto-close", err)
				}
				return p.print(res, func(w io.Writer) {
					if res.Shift == models.ShiftNone {
						fmt.Fprintln(w, "nothing to close")
						return
					}
					fmt.Fprintf(w, "closed %s after %.2f h\n", res.Shift, res.DurationHours)
				})
			})
		},
	}
}
