package cmd

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/AnyUserName/jpegsqueeze/internal/convert"
	"github.com/AnyUserName/jpegsqueeze/internal/report"
)

// run executes the root command with args, starting from default flag
// values, and returns what it printed to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.Flags().VisitAll(reset)
	rootCmd.PersistentFlags().VisitAll(reset)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), err
}

func fixture(t *testing.T) (dir, input string) {
	t.Helper()
	dir = t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 24, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 24; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 15), B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	input = filepath.Join(dir, "in.png")
	if err := os.WriteFile(input, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return dir, input
}

func TestConvert_Success(t *testing.T) {
	dir, in := fixture(t)
	out := filepath.Join(dir, "out.jpg")

	stdout, err := run(t, "-i", in, "-o", out, "-q", "70")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout, "Compression complete") {
		t.Errorf("missing completion line in %q", stdout)
	}
	if !strings.Contains(stdout, "Output saved to: "+out) {
		t.Errorf("missing output line in %q", stdout)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 24 || cfg.Height != 16 {
		t.Errorf("decoded %dx%d, want 24x16", cfg.Width, cfg.Height)
	}
}

func TestConvert_DefaultQuality(t *testing.T) {
	if f := rootCmd.Flags().Lookup("quality"); f.DefValue != "85" {
		t.Errorf("default quality: got %s, want 85", f.DefValue)
	}
}

func TestConvert_RejectsQuality(t *testing.T) {
	dir, in := fixture(t)
	out := filepath.Join(dir, "out.jpg")
	for _, q := range []string{"0", "101", "255"} {
		_, err := run(t, "-i", in, "-o", out, "-q", q)
		if !errors.Is(err, convert.ErrQuality) {
			t.Errorf("q=%s: got %v, want ErrQuality", q, err)
		}
		if _, err := os.Stat(out); !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("q=%s: output created", q)
		}
	}
}

func TestConvert_QualityOutOfByteRange(t *testing.T) {
	dir, in := fixture(t)
	_, err := run(t, "-i", in, "-o", filepath.Join(dir, "out.jpg"), "-q", "256")
	if err == nil || !strings.Contains(err.Error(), "quality") {
		t.Fatalf("got %v, want a flag parse error", err)
	}
}

func TestConvert_RequiresPaths(t *testing.T) {
	_, err := run(t, "-q", "50")
	if err == nil || !strings.Contains(err.Error(), "required") {
		t.Fatalf("got %v, want required flag error", err)
	}
}

func TestConvert_MissingInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "ghost.png")
	_, err := run(t, "-i", in, "-o", filepath.Join(dir, "out.jpg"))
	if err == nil || !strings.Contains(err.Error(), in) {
		t.Fatalf("got %v, want error naming %s", err, in)
	}
	if convert.StageOf(err) != convert.StageDecode {
		t.Errorf("stage: got %q", convert.StageOf(err))
	}
}

func TestConvert_StatsSummary(t *testing.T) {
	dir, in := fixture(t)
	stdout, err := run(t, "-i", in, "-o", filepath.Join(dir, "out.jpg"), "--stats")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"Output size:", "Ratio:", "scans"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("summary missing %q:\n%s", want, stdout)
		}
	}
}

// ─── Report, stats and validate ──────────────────────────────────────

func TestReport_WriteStatsValidate(t *testing.T) {
	dir, in := fixture(t)
	out := filepath.Join(dir, "out.jpg")
	rep := filepath.Join(dir, "report.json")

	if _, err := run(t, "-i", in, "-o", out, "-q", "80", "--report", rep); err != nil {
		t.Fatalf("convert: %v", err)
	}
	r, err := report.ReadJSON(rep)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if r.Output.Path != "out.jpg" {
		t.Errorf("output path: got %q, want relative out.jpg", r.Output.Path)
	}
	if r.Encoder.Quality != 80 || r.Input.Format != "png" || len(r.Encoder.Script) != r.Encoder.Scans {
		t.Errorf("report: %+v", r)
	}

	stdout, err := run(t, "stats", rep)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(stdout, "Subsampling:    4:2:0") {
		t.Errorf("stats output:\n%s", stdout)
	}

	stdout, err = run(t, "validate", rep)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "Report is valid") {
		t.Errorf("validate output:\n%s", stdout)
	}

	// Tamper with the output; validation must notice.
	if err := os.WriteFile(out, []byte("not a jpeg"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	stdout, err = run(t, "validate", rep)
	if err == nil {
		t.Fatalf("validate passed on modified output:\n%s", stdout)
	}
	if !strings.Contains(stdout, "hash mismatch") {
		t.Errorf("validate output:\n%s", stdout)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		512:     "512 B",
		2048:    "2.0 KB",
		3 << 20: "3.0 MB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d): got %q, want %q", in, got, want)
		}
	}
}
