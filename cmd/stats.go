package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/jpegsqueeze/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats <report.json>",
	Short: "Display a conversion report",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	r, err := report.ReadJSON(args[0])
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), r)
	return nil
}

func printReport(w io.Writer, r *report.Report) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Report version: %d\n", r.Version)
	fmt.Fprintf(w, "  Generated:      %s\n", r.GeneratedAt)
	fmt.Fprintln(w)

	in := r.Input
	fmt.Fprintf(w, "  Input:          %s\n", in.Path)
	fmt.Fprintf(w, "  Format:         %s, %dx%d\n", in.Format, in.Width, in.Height)
	fmt.Fprintf(w, "  Input size:     %s\n", formatBytes(in.Size))
	if in.HasAlpha {
		fmt.Fprintln(w, "  Alpha:          dropped")
	}
	if in.AvgColor != nil {
		c := in.AvgColor
		fmt.Fprintf(w, "  Average color:  #%02x%02x%02x\n", c[0], c[1], c[2])
	}
	fmt.Fprintln(w)

	out := r.Output
	fmt.Fprintf(w, "  Output:         %s\n", out.Path)
	fmt.Fprintf(w, "  Output size:    %s\n", formatBytes(out.Size))
	fmt.Fprintf(w, "  Hash:           %s\n", out.Hash)
	fmt.Fprintf(w, "  Compression:    %.1f%% of original (%s saved)\n",
		r.Stats.Ratio*100, formatBytes(r.Stats.SavedBytes))
	fmt.Fprintf(w, "  Time:           %d ms\n", r.Stats.ElapsedMS)
	fmt.Fprintln(w)

	e := r.Encoder
	fmt.Fprintf(w, "  Quality:        %d\n", e.Quality)
	fmt.Fprintf(w, "  Subsampling:    %s\n", e.Subsampling)
	fmt.Fprintf(w, "  Progressive:    %v (scan opt %s)\n", e.Progressive, e.ScanOpt)
	fmt.Fprintf(w, "  Trellis:        %s\n", e.Trellis)
	fmt.Fprintf(w, "  Huffman tables: %d across %d scans\n", e.HuffmanTables, e.Scans)
	if len(e.Script) > 0 {
		fmt.Fprintln(w, "  Scan script:")
		for i, s := range e.Script {
			fmt.Fprintf(w, "    %2d  %s\n", i, s)
		}
	}
	fmt.Fprintln(w)
}
