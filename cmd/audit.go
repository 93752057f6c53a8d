package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/audit"
	"github.com/kozaktomas/facegate/internal/database/postgres"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List recent audit events",
	Long: `List recent access events from the PostgreSQL audit store, newest first.

Examples:
  facegate audit --limit 50
  facegate audit --type access.granted --type actuator.unreachable`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().Int("limit", 20, "Maximum number of events")
	auditCmd.Flags().StringSlice("type", nil, "Only show these event types")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	types, err := parseEventTypes(mustGetStringSlice(cmd, "type"))
	if err != nil {
		return err
	}
	limit := mustGetInt(cmd, "limit")
	if limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", limit)
	}

	ctx := cmd.Context()
	pool, err := postgres.Open(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	events, err := postgres.NewEventRepository(pool).Recent(ctx, limit, types...)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		fmt.Println("No audit events found")
		return nil
	}
	for _, e := range events {
		fmt.Println(formatEvent(e))
	}
	return nil
}

func parseEventTypes(raw []string) ([]audit.Type, error) {
	types := make([]audit.Type, 0, len(raw))
	for _, r := range raw {
		if !audit.ValidType(r) {
			known := make([]string, len(audit.Types))
			for i, t := range audit.Types {
				known[i] = string(t)
			}
			return nil, fmt.Errorf("unknown event type %q (known: %s)", r, strings.Join(known, ", "))
		}
		types = append(types, audit.Type(r))
	}
	return types, nil
}

func formatEvent(e audit.Event) string {
	typ := fmt.Sprintf("%-21s", e.Type)
	switch e.Severity {
	case audit.SeverityError:
		typ = deniedFmt(typ)
	case audit.SeverityWarning:
		typ = warnFmt(typ)
	default:
		if e.Type == audit.TypeGranted {
			typ = grantedFmt(typ)
		}
	}

	var b strings.Builder
	b.WriteString(e.Timestamp.Local().Format("2006-01-02 15:04:05.000"))
	b.WriteString("  ")
	b.WriteString(typ)
	if e.Label != "" {
		fmt.Fprintf(&b, "  %s", e.Label)
	}
	if e.Type != audit.TypeRelocked && e.Type != audit.TypeActuatorUnreachable {
		fmt.Fprintf(&b, "  score=%.4f", e.Score)
	}
	if e.Details != "" {
		b.WriteString("  " + dimFmt(e.Details))
	}
	return b.String()
}
