package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AnyUserName/jpegsqueeze/internal/convert"
	"github.com/AnyUserName/jpegsqueeze/internal/hasher"
	"github.com/AnyUserName/jpegsqueeze/internal/report"
)

var (
	convertInput  string
	convertOutput string
	convertQual   uint8
	reportPath    string
	printStats    bool
)

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&convertInput, "input", "i", "", "input image path")
	f.StringVarP(&convertOutput, "output", "o", "", "output JPEG path (created or truncated)")
	f.Uint8VarP(&convertQual, "quality", "q", convert.DefaultQuality, "quality 1-100")
	f.StringVar(&reportPath, "report", "", "write a JSON conversion report to this path")
	f.BoolVar(&printStats, "stats", false, "print a size and timing summary")
	_ = rootCmd.MarkFlagRequired("input")
	_ = rootCmd.MarkFlagRequired("output")
}

func runConvert(cmd *cobra.Command, _ []string) error {
	logger.Debug("starting conversion",
		zap.String("input", convertInput),
		zap.String("output", convertOutput),
		zap.Uint8("quality", convertQual))

	res, err := convert.Run(convert.Options{
		Input:   convertInput,
		Output:  convertOutput,
		Quality: int(convertQual),
	}, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "✓ Compression complete!")
	fmt.Fprintf(out, "Output saved to: %s\n", res.OutputPath)

	if reportPath != "" {
		r := buildReport(res)
		if err := report.WriteJSON(r, reportPath); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Debug("wrote report", zap.String("path", reportPath))
	}
	if printStats {
		printConvertReport(out, res)
	}
	return nil
}

// buildReport converts a result into its JSON report. The output path is
// stored relative to the report's directory when possible.
func buildReport(res *convert.Result) *report.Report {
	r := report.New()
	avg := res.AvgColor
	r.Input = report.InputInfo{
		Path:     res.InputPath,
		Format:   res.InputFormat,
		Size:     res.InputSize,
		Width:    res.Width,
		Height:   res.Height,
		HasAlpha: res.HasAlpha,
		AvgColor: &avg,
	}
	r.Output = report.OutputInfo{
		Path: reportRelative(res.OutputPath),
		Size: res.OutputSize,
		Hash: res.Hash,
	}
	st := res.Encoder
	r.Encoder = report.EncoderInfo{
		Quality:        st.Quality,
		Subsampling:    st.Subsampling.String(),
		Progressive:    st.Progressive,
		OptimizeCoding: res.Policy.OptimizeCoding,
		ScanOpt:        res.Policy.ScanOpt.String(),
		Trellis:        st.Trellis.String(),
		Scans:          st.Scans,
		HuffmanTables:  st.HuffmanTables,
	}
	for _, s := range st.Script {
		r.Encoder.Script = append(r.Encoder.Script, s.String())
	}
	r.ComputeStats(res.Elapsed)
	return r
}

func reportRelative(path string) string {
	absOut, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	absDir, err := filepath.Abs(filepath.Dir(reportPath))
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(absDir, absOut)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func printConvertReport(w io.Writer, res *convert.Result) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔══════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║            jpegsqueeze conversion done           ║")
	fmt.Fprintln(w, "╚══════════════════════════════════════════════════╝")
	fmt.Fprintln(w)

	ratio := float64(0)
	if res.InputSize > 0 {
		ratio = float64(res.OutputSize) / float64(res.InputSize) * 100
	}
	st := res.Encoder
	fmt.Fprintf(w, "  Input:       %s (%s, %dx%d)\n", truncPath(res.InputPath, 40), res.InputFormat, res.Width, res.Height)
	fmt.Fprintf(w, "  Input size:  %s\n", formatBytes(res.InputSize))
	fmt.Fprintf(w, "  Output size: %s\n", formatBytes(res.OutputSize))
	fmt.Fprintf(w, "  Ratio:       %.1f%% of original\n", ratio)
	fmt.Fprintf(w, "  Encoder:     q%d, %s, %d scans, %d Huffman tables\n",
		st.Quality, st.Subsampling, st.Scans, st.HuffmanTables)
	if res.HasAlpha {
		fmt.Fprintln(w, "  Alpha:       dropped")
	}
	fmt.Fprintf(w, "  Hash:        %s\n", res.Hash[:hasher.ShortLen])
	fmt.Fprintf(w, "  Time:        %s\n", res.Elapsed.Round(time.Millisecond))
	fmt.Fprintln(w)
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncPath(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
