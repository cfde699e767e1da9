package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/chitfund-portal/internal/activity"
	"github.com/frahmantamala/chitfund-portal/internal/core/events"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Security event commands",
	Long:  `Record test security events to exercise escalation and the archive.`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [action]",
	Short: "Record a security event",
	Long:  `Log a security event through the activity monitor. High and critical events are escalated over the event bus and archived when a database is configured.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishSecurityEvent(args[0])
	},
}

var (
	eventSeverity string
	eventIP       string
	eventPath     string
)

func publishSecurityEvent(action string) {
	ctx := context.Background()

	severity, ok := activity.ParseSeverity(eventSeverity)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown severity %q\n", eventSeverity)
		os.Exit(1)
	}

	deps, err := initializeDependencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	delivered := make(chan struct{}, 1)
	deps.Bus.Subscribe(events.EventTypeSecurityEventEscalated, func(ctx context.Context, event events.Event) error {
		deps.Logger.Info("escalated event delivered",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		delivered <- struct{}{}
		return nil
	})

	ev := deps.Monitor.Log(ctx, activity.SecurityEvent{
		IP:       eventIP,
		Action:   action,
		Path:     eventPath,
		Severity: severity,
		Details:  map[string]interface{}{"source": "cli-command"},
	})
	deps.Logger.Info("security event recorded", "id", ev.ID, "action", ev.Action, "severity", ev.Severity)

	if severity.Escalates() {
		select {
		case <-delivered:
		case <-time.After(5 * time.Second):
			deps.Logger.Warn("escalated event was not delivered in time")
		}
	}

	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	deps.Close(closeCtx)
}

func init() {
	publishEventCmd.Flags().StringVar(&eventSeverity, "severity", "high", "low, medium, high or critical")
	publishEventCmd.Flags().StringVar(&eventIP, "ip", "127.0.0.1", "source IP")
	publishEventCmd.Flags().StringVar(&eventPath, "path", "/", "request path")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
