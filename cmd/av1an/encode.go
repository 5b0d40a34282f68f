package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	av1an "github.com/av1an-go/av1an"
	"github.com/av1an-go/av1an/internal/config"
	"github.com/av1an-go/av1an/internal/logging"
	"github.com/av1an-go/av1an/internal/reporter"
	"github.com/av1an-go/av1an/internal/util"
)

// encodeFlags holds the parsed flags for the encode command, grouped the
// way spec.md §6 groups the CLI surface: quality, target-quality search,
// chunking/concat, and journal behavior.
type encodeFlags struct {
	input    string
	output   string
	logDir   string
	verbose  bool
	noLog    bool
	jsonMode bool

	crf              string
	svtPreset        uint8
	svtPresetSet     bool
	preset           string
	encoder          string
	disableAutocrop  bool
	responsive       bool
	filmGrain        uint8
	filmGrainSet     bool
	filmGrainDenoise bool

	targetQuality    float64
	targetQualitySet bool
	targetMetric     string
	probes           int
	probingRate      int
	probingSpeed     string
	probeSlow        bool
	probingStatistic string
	minQ, maxQ       float64
	vmafRes          string
	probeRes         string
	vmafFilter       string

	workers             int
	extraSplit          int
	minSceneLen         int
	chunkMethod         string
	chunkOrder          string
	concat              string
	passes              int
	zonesFile           string
	resume              bool
	keep                bool
	tempDir             string
	ignoreFrameMismatch bool
	setThreadAffinity   bool
}

func newEncodeCmd() *cobra.Command {
	var f encodeFlags

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode video files to AV1 (or another supported codec)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(cmd, &f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.input, "input", "i", "", "Input video file or directory (required)")
	flags.StringVarP(&f.output, "output", "o", "", "Output directory or filename (required)")
	flags.StringVarP(&f.logDir, "log-dir", "l", "", "Log directory (defaults to ~/.local/state/av1an/logs)")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Enable verbose output")
	flags.BoolVar(&f.noLog, "no-log", false, "Disable log file creation")
	flags.BoolVar(&f.jsonMode, "json", false, "Emit machine-readable JSON progress events")

	flags.StringVar(&f.crf, "crf", "", "CRF quality (0-63). Single value or SD,HD,UHD triple")
	flags.Uint8Var(&f.svtPreset, "preset", 0, "SVT-AV1 encoder preset (0-13). Lower is slower/better")
	flags.StringVar(&f.preset, "av1an-preset", "", "Apply a named parameter bundle (grain, clean, quick)")
	flags.StringVar(&f.encoder, "encoder", "", "Encoder backend: aom, rav1e, svt-av1, vpx, x264, x265")
	flags.BoolVar(&f.disableAutocrop, "disable-autocrop", false, "Disable automatic black-bar crop detection")
	flags.BoolVar(&f.responsive, "responsive", false, "Reserve CPU threads for system responsiveness")
	flags.Uint8Var(&f.filmGrain, "film-grain", 0, "SVT-AV1 film grain synthesis strength (0-50)")
	flags.BoolVar(&f.filmGrainDenoise, "film-grain-denoise", false, "Denoise source before synthesizing film grain")

	flags.Float64Var(&f.targetQuality, "target-quality", 0, "Enable per-chunk target-quality search at this score")
	flags.StringVar(&f.targetMetric, "target-metric", "vmaf", "Metric family: vmaf, ssimulacra2, butteraugli, xpsnr")
	flags.IntVar(&f.probes, "probes", config.DefaultProbes, "Max probe encodes per chunk")
	flags.IntVar(&f.probingRate, "probing-rate", config.DefaultProbingRate, "Frame sub-sample rate for probes (1-4)")
	flags.StringVar(&f.probingSpeed, "probing-speed", config.DefaultProbingSpeed, "Encoder speed preset for probes")
	flags.BoolVar(&f.probeSlow, "probe-slow", false, "Use the final-encode params for probes too")
	flags.StringVar(&f.probingStatistic, "probing-statistic", "auto", "Aggregation statistic for multi-frame probe scores")
	flags.Float64Var(&f.minQ, "min-q", 8, "Minimum quantizer considered during target-quality search")
	flags.Float64Var(&f.maxQ, "max-q", 48, "Maximum quantizer considered during target-quality search")
	flags.StringVar(&f.vmafRes, "vmaf-res", "", "Scoring resolution override, WxH (stored only; no metric applies it)")
	flags.StringVar(&f.probeRes, "probe-res", "", "Probe encode resolution override, WxH (stored only; probes are not rescaled)")
	flags.StringVar(&f.vmafFilter, "vmaf-filter", "", "Extra ffmpeg filter for the reference stream (stored only; the vmaf metric does not apply it)")

	flags.IntVarP(&f.workers, "workers", "w", 0, "Parallel encoder worker count, 0 = auto")
	flags.IntVarP(&f.extraSplit, "extra-split", "x", config.DefaultExtraSplit, "Max scene length in frames before a forced split, 0 disables")
	flags.IntVar(&f.minSceneLen, "min-scene-len", config.DefaultMinSceneLen, "Minimum scene length in frames")
	flags.StringVar(&f.chunkMethod, "chunk-method", config.DefaultChunkMethod, "Frame-source backend name (stored only; frames are always decoded with ffms2)")
	flags.StringVar(&f.chunkOrder, "chunk-order", config.DefaultChunkOrder, "Chunk dispatch order: long-to-short, short-to-long, sequential, random")
	flags.StringVar(&f.concat, "concat", config.DefaultConcatStrategy, "Muxer strategy: concat, mkvmerge")
	flags.IntVar(&f.passes, "passes", config.DefaultPasses, "Encoder passes for the final encode, 1 or 2")
	flags.StringVar(&f.zonesFile, "zones", "", "Per-range parameter override file")
	flags.BoolVar(&f.resume, "resume", true, "Resume from a prior run's progress journal")
	flags.BoolVar(&f.keep, "keep", false, "Keep the working directory after a successful run")
	flags.StringVar(&f.tempDir, "temp", "", "Working directory root (defaults to the output directory)")
	flags.BoolVar(&f.ignoreFrameMismatch, "ignore-frame-mismatch", false, "Trust a persisted scene file and journal even if the source frame count changed")
	flags.BoolVar(&f.setThreadAffinity, "set-thread-affinity", false, "Pin each worker's encoder subprocess to a contiguous CPU set")

	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		f.targetQualitySet = cmd.Flags().Changed("target-quality")
		f.filmGrainSet = cmd.Flags().Changed("film-grain")
		f.svtPresetSet = cmd.Flags().Changed("preset")
	}

	return cmd
}

func runEncode(cmd *cobra.Command, f *encodeFlags) error {
	inputPath, err := filepath.Abs(f.input)
	if err != nil {
		return fmt.Errorf("invalid input path: %w", err)
	}
	inputInfo, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("input path does not exist: %s", inputPath)
	}

	outputDir, targetFilename, err := resolveOutputPath(f.output, inputInfo.IsDir())
	if err != nil {
		return err
	}
	if err := util.EnsureDirectory(outputDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	logDir := f.logDir
	if logDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		logDir = filepath.Join(homeDir, ".local", "state", "av1an", "logs")
	}

	logger, err := logging.Setup(logDir, f.verbose, f.noLog)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if logger != nil {
		defer func() { _ = logger.Close() }()
	}

	opts, err := buildOptions(f)
	if err != nil {
		return err
	}
	enc, err := av1an.New(opts...)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var rep reporter.Reporter
	if f.jsonMode {
		rep = reporter.NewJSONReporter()
	} else {
		rep = reporter.NewTerminalReporter()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if inputInfo.IsDir() {
		files, err := av1an.FindVideos(inputPath)
		if err != nil {
			return fmt.Errorf("failed to discover video files: %w", err)
		}
		if len(files) == 0 {
			return fmt.Errorf("no video files found in %s", inputPath)
		}
		if logger != nil {
			logger.Info("Discovered %d video files in %s", len(files), inputPath)
		}
		_, err = enc.EncodeBatch(ctx, files, outputDir, rep)
		return err
	}

	if targetFilename != "" {
		_, err = enc.EncodeToFile(ctx, inputPath, filepath.Join(outputDir, targetFilename), rep)
		return err
	}
	_, err = enc.EncodeWithReporter(ctx, inputPath, outputDir, rep)
	return err
}

// buildOptions turns parsed CLI flags into av1an.Option values, applying
// the named preset first so explicit flags can override its bundle.
func buildOptions(f *encodeFlags) ([]av1an.Option, error) {
	var opts []av1an.Option

	if f.preset != "" {
		p, err := av1an.ParsePreset(f.preset)
		if err != nil {
			return nil, err
		}
		opts = append(opts, av1an.WithPreset(p))
	}
	if f.crf != "" {
		sd, hd, uhd, err := av1an.ParseCRF(f.crf)
		if err != nil {
			return nil, fmt.Errorf("invalid --crf value: %w", err)
		}
		opts = append(opts, av1an.WithCRF(sd, hd, uhd))
	}
	if f.encoder != "" {
		opts = append(opts, av1an.WithEncoder(f.encoder))
	}
	if f.disableAutocrop {
		opts = append(opts, av1an.WithDisableAutocrop())
	}
	if f.keep {
		opts = append(opts, av1an.WithKeep())
	}
	if f.filmGrainSet {
		opts = append(opts, av1an.WithFilmGrain(f.filmGrain))
		opts = append(opts, av1an.WithFilmGrainDenoise(f.filmGrainDenoise))
	}
	if f.targetQualitySet {
		opts = append(opts, av1an.WithTargetQuality(f.targetMetric, f.targetQuality))
	}
	if f.zonesFile != "" {
		opts = append(opts, av1an.WithZonesFile(f.zonesFile))
	}
	if f.workers != 0 {
		opts = append(opts, av1an.WithWorkers(f.workers))
	}

	opts = append(opts, func(c *config.Config) {
		if f.svtPresetSet {
			c.SVTAV1Preset = f.svtPreset
		}
		c.ResponsiveEncoding = f.responsive
		c.MinSceneLen = f.minSceneLen
		c.ExtraSplit = f.extraSplit
		c.ChunkMethod = f.chunkMethod
		c.ChunkOrder = f.chunkOrder
		c.ConcatStrategy = f.concat
		c.Passes = f.passes
		c.Resume = f.resume
		c.Probes = f.probes
		c.ProbingRate = f.probingRate
		c.ProbingSpeed = f.probingSpeed
		c.ProbeSlow = f.probeSlow
		c.ProbingStatistic = f.probingStatistic
		c.MinQ = f.minQ
		c.MaxQ = f.maxQ
		c.VMAFRes = f.vmafRes
		c.ProbeRes = f.probeRes
		c.VMAFFilter = f.vmafFilter
		if f.tempDir != "" {
			c.TempDir = f.tempDir
		}
		c.IgnoreFrameMismatch = f.ignoreFrameMismatch
		c.SetThreadAffinity = f.setThreadAffinity
	})

	return opts, nil
}

// resolveOutputPath determines the output directory and optional target
// filename. If input is a file and output looks like a video file path,
// output is treated as an exact target filename.
func resolveOutputPath(outputPath string, isInputDir bool) (outputDir, targetFilename string, err error) {
	outputPath, err = filepath.Abs(outputPath)
	if err != nil {
		return "", "", fmt.Errorf("invalid output path: %w", err)
	}
	if isInputDir {
		return outputPath, "", nil
	}

	videoExtensions := map[string]bool{
		".mkv": true, ".mp4": true, ".webm": true,
		".avi": true, ".mov": true, ".m4v": true,
	}
	if videoExtensions[filepath.Ext(outputPath)] {
		return filepath.Dir(outputPath), filepath.Base(outputPath), nil
	}
	return outputPath, "", nil
}
