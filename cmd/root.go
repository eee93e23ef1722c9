package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AnyUserName/jpegsqueeze/internal/loader"
	"github.com/AnyUserName/jpegsqueeze/internal/logging"
)

var (
	version = "0.1.0"
	verbose bool
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "jpegsqueeze --input <path> --output <path> [--quality 1-100]",
	Short: "Convert any raster image into a small progressive JPEG",
	Long: `jpegsqueeze decodes an image, converts it to RGB and writes it as a
JPEG tuned for size: trellis quantization, progressive scans and Huffman
tables optimized per scan.

Input formats: ` + strings.Join(loader.Formats(), ", ") + `.
Transparency is dropped, not composited.`,
	Version:           version,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogger,
	RunE:              runConvert,
}

func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"jpegsqueeze %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// setupLogger builds the stderr logger once flags are parsed.
func setupLogger(_ *cobra.Command, _ []string) error {
	l, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logger = l
	return nil
}
