package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "List enrolled faces",
	Long: `Load the gallery directory the same way serve does and list the enrolled
labels in matching order, together with any files that were skipped.`,
	RunE: runGallery,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
}

func runGallery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	g, warnings, err := loadGallery(cfg, true)
	if err != nil {
		return err
	}

	fmt.Printf("Gallery: %s\n", cfg.Gallery.Dir)
	if g.Len() == 0 {
		fmt.Println(dimFmt("No enrolled faces. Every observation will be denied."))
	}
	for i, id := range g.Identities() {
		fmt.Printf("  %3d. %-24s %s\n", i+1, id.Label,
			dimFmt(fmt.Sprintf("%dx%d", id.Reference.Width(), id.Reference.Height())))
	}

	if len(warnings) > 0 {
		fmt.Printf("\n%d files skipped or replaced:\n", len(warnings))
		for _, w := range warnings {
			fmt.Println("  " + warnFmt(w.Error()))
		}
	}
	return nil
}
