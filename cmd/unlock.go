package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/actuator"
)

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Send one unlock command to the lock",
	Long: `Open the configured actuator port and send a single unlock token.
Intended for installation and maintenance. No access decision is made
and nothing is audited.`,
	RunE: runUnlock,
}

func init() {
	rootCmd.AddCommand(unlockCmd)
}

func runUnlock(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Actuator.Port == "" {
		return errors.New("ACTUATOR_PORT environment variable is required")
	}

	ctx := cmd.Context()

	fmt.Printf("Opening %s at %d baud (waiting %s for the board)...\n",
		cfg.Actuator.Port, cfg.Actuator.Baud, cfg.Actuator.Settle)
	gw, err := actuator.OpenSerial(ctx, serialConfig(&cfg.Actuator))
	if err != nil {
		return err
	}
	defer gw.Close()

	if err := gw.SendUnlock(ctx); err != nil {
		return fmt.Errorf("sending unlock: %w", err)
	}
	fmt.Println(grantedFmt("Unlock command sent"))
	return nil
}
