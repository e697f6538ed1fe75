package main

import (
	"fmt"
	"strconv"

	"docent/internal/narration"

	"github.com/spf13/cobra"
)

// narrationCmd groups script tooling
var narrationCmd = &cobra.Command{
	Use:   "narration",
	Short: "Inspect narration scripts",
}

var narrationValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate one or more narration scripts",
	Long: `Parses each script (JSON or YAML, chosen by extension) and checks that
paragraphs are ordered, non-overlapping and that sentence starts fall
inside their paragraph.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNarrationValidate,
}

var narrationAtCmd = &cobra.Command{
	Use:   "at <file> <seconds>",
	Short: "Show what is narrated at a playback position",
	Args:  cobra.ExactArgs(2),
	RunE:  runNarrationAt,
}

func runNarrationValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		doc, err := narration.LoadFile(path)
		if err != nil {
			failed++
			fmt.Fprintf(out, "✗ %v\n", err)
			continue
		}
		fmt.Fprintf(out, "✓ %s: %d paragraphs, %s, %d gaps\n",
			path, doc.Len(), doc.Duration(), len(doc.Gaps()))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scripts invalid", failed, len(args))
	}
	return nil
}

func runNarrationAt(cmd *cobra.Command, args []string) error {
	secs, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid position %q: %w", args[1], err)
	}
	doc, err := narration.LoadFile(args[0])
	if err != nil {
		return err
	}
	idx := narration.NewIndex(doc)
	at := narration.Seconds(secs)
	out := cmd.OutOrStdout()

	pos := idx.Locate(at)
	if !pos.Valid() {
		fmt.Fprintf(out, "%s: nothing is narrated\n", at)
		return nil
	}
	para, _ := idx.Paragraph(at)
	fmt.Fprintf(out, "%s: paragraph %d (id %d)\n", at, pos.Paragraph, para.ID)
	if s, ok := idx.Sentence(at); ok {
		fmt.Fprintf(out, "  sentence %d: %s\n", pos.Sentence, s.Text)
	}
	return nil
}
