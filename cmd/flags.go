package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/facematch"
)

// mustFlag reads a flag registered in init(). A lookup error is a programming bug, so it panics.
func mustFlag[T any](name string, get func(string) (T, error)) T {
	val, err := get(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	return mustFlag(name, cmd.Flags().GetBool)
}

func mustGetInt(cmd *cobra.Command, name string) int {
	return mustFlag(name, cmd.Flags().GetInt)
}

func mustGetString(cmd *cobra.Command, name string) string {
	return mustFlag(name, cmd.Flags().GetString)
}

func mustGetFloat64(cmd *cobra.Command, name string) float64 {
	return mustFlag(name, cmd.Flags().GetFloat64)
}

func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	return mustFlag(name, cmd.Flags().GetStringSlice)
}

// addRegionFlags registers --x, --y, --w and --h for selecting a face inside a frame.
func addRegionFlags(cmd *cobra.Command) {
	cmd.Flags().Int("x", 0, "Face region left edge")
	cmd.Flags().Int("y", 0, "Face region top edge")
	cmd.Flags().Int("w", 0, "Face region width (0 uses the whole image)")
	cmd.Flags().Int("h", 0, "Face region height (0 uses the whole image)")
}

// regionFlag returns the region selected by addRegionFlags, or false when
// width or height is unset.
func regionFlag(cmd *cobra.Command) (facematch.Rect, bool) {
	w, h := mustGetInt(cmd, "w"), mustGetInt(cmd, "h")
	if w <= 0 || h <= 0 {
		return facematch.Rect{}, false
	}
	return facematch.Rect{X: mustGetInt(cmd, "x"), Y: mustGetInt(cmd, "y"), W: w, H: h}, true
}
