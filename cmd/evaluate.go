package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/facematch"
)

var (
	grantedFmt = color.New(color.FgGreen, color.Bold).SprintFunc()
	deniedFmt  = color.New(color.FgRed, color.Bold).SprintFunc()
	dimFmt     = color.New(color.Faint).SprintFunc()
	warnFmt    = color.New(color.FgYellow).SprintFunc()
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <image>",
	Short: "Score a face image against the gallery",
	Long: `Score a face image against the enrolled gallery and print the decision.
The lock is never driven and no audit event is recorded.

Use --x, --y, --w and --h to select the face region in a larger frame.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().Float64("threshold", 0, "Override the match threshold")
	evaluateCmd.Flags().Bool("all", false, "Show the score of every enrolled identity")
	addRegionFlags(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	threshold := cfg.Access.Threshold
	if cmd.Flags().Changed("threshold") {
		threshold = mustGetFloat64(cmd, "threshold")
	}

	face, err := readFace(args[0])
	if err != nil {
		return err
	}
	if region, ok := regionFlag(cmd); ok {
		if face, err = face.Crop(region); err != nil {
			return err
		}
	}

	g, warnings, err := loadGallery(cfg, false)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Println(warnFmt("warning: " + w.Error()))
	}

	matcher, err := newMatcher(cfg)
	if err != nil {
		return err
	}
	if mustGetBool(cmd, "all") {
		fmt.Printf("Scores for %dx%d face:\n", face.Width(), face.Height())
		for _, r := range matcher.ScoreEach(face, g.Identities()) {
			fmt.Printf("  %-24s %+.4f\n", r.Label, r.Score)
		}
		fmt.Println()
	}

	result := matcher.Score(face, g.Identities())
	decision := facematch.Decide(result, threshold)

	if decision.Accepted() {
		fmt.Printf("%s %s (score %.4f > %.2f)\n", grantedFmt("GRANTED"), decision.Label, decision.Score, threshold)
		return nil
	}
	best := result.Label
	if best == "" {
		best = "nobody"
	}
	fmt.Printf("%s best match %s (score %.4f, threshold %.2f)\n", deniedFmt("DENIED"), best, result.Score, threshold)
	if g.Len() == 0 {
		fmt.Println(dimFmt("gallery is empty, every face is denied"))
	}
	return nil
}

func readFace(path string) (facematch.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return facematch.Image{}, fmt.Errorf("image not found: %s", path)
		}
		return facematch.Image{}, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()
	return facematch.DecodeImage(f)
}
