// Package driver sequences one input file through the full pipeline:
// probe, plan, encode, concat, cleanup. It generalizes
// internal/processing's chunked orchestrator into the multi-backend,
// zone-aware, target-quality-capable pipeline the rest of this module
// builds.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/av1an-go/av1an/internal/chunk"
	"github.com/av1an-go/av1an/internal/concat"
	"github.com/av1an-go/av1an/internal/config"
	averrors "github.com/av1an-go/av1an/internal/errors"
	"github.com/av1an-go/av1an/internal/encoder"
	"github.com/av1an-go/av1an/internal/ffms"
	"github.com/av1an-go/av1an/internal/ffprobe"
	"github.com/av1an-go/av1an/internal/journal"
	"github.com/av1an-go/av1an/internal/metric"
	"github.com/av1an-go/av1an/internal/processing"
	"github.com/av1an-go/av1an/internal/reporter"
	"github.com/av1an-go/av1an/internal/scenedetect"
	"github.com/av1an-go/av1an/internal/split"
	"github.com/av1an-go/av1an/internal/util"
	"github.com/av1an-go/av1an/internal/worker"
	"github.com/av1an-go/av1an/internal/zones"
)

// scdBinaryName is the external scene-change-detector helper this module
// ships alongside the main binary.
const scdBinaryName = "av1an-scd"

// Run drives inputPath through probe, plan, encode, and concat, writing
// the final container to outputPath.
func Run(ctx context.Context, cfg *config.Config, inputPath, outputPath string, rep reporter.Reporter) error {
	if rep == nil {
		rep = reporter.NullReporter{}
	}

	rep.StageProgress(reporter.StageProgress{Stage: "Probe", Message: "Reading source properties"})
	videoProps, err := ffprobe.GetVideoProperties(inputPath)
	if err != nil {
		return fmt.Errorf("driver: probe video properties: %w", err)
	}
	audioStreams, err := ffprobe.GetAudioStreamInfo(inputPath)
	if err != nil {
		return fmt.Errorf("driver: probe audio streams: %w", err)
	}

	workDir := chunk.WorkDirPath(inputPath, cfg.GetTempDir())
	if err := chunk.CreateWorkDir(workDir); err != nil {
		return fmt.Errorf("driver: create work directory: %w", err)
	}

	succeeded := false
	defer func() {
		if succeeded && !cfg.Keep {
			_ = chunk.CleanupWorkDir(workDir)
		}
	}()

	rep.StageProgress(reporter.StageProgress{Stage: "Indexing", Message: "Building frame index"})
	idx, err := ffms.NewVidIdx(inputPath, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("driver: build frame index: %w", err)
	}
	defer idx.Close()

	vidInf, err := ffms.GetVidInf(idx)
	if err != nil {
		return fmt.Errorf("driver: read video info: %w", err)
	}

	cropResult := processing.DetectCrop(inputPath, videoProps, cfg.CropMode == "none")
	rep.CropResult(reporter.CropSummary{
		Message:  cropResult.Message,
		Crop:     cropResult.CropFilter,
		Required: cropResult.Required,
		Disabled: cfg.CropMode == "none",
	})
	var cropH, cropV uint32
	if cropResult.Required && cropResult.CropFilter != "" {
		cropH, cropV = parseCropFilter(cropResult.CropFilter)
	}

	outW, outH := processing.GetOutputDimensions(videoProps.Width, videoProps.Height, cropResult.CropFilter)
	rep.Initialization(reporter.InitializationSummary{
		InputFile:        inputPath,
		OutputFile:       outputPath,
		Duration:         util.FormatDurationFromSecs(int64(videoProps.DurationSecs)),
		Resolution:       fmt.Sprintf("%dx%d", outW, outH),
		Category:         resolutionCategory(outW),
		DynamicRange:     dynamicRangeName(videoProps.HDRInfo),
		AudioDescription: audioDescription(audioStreams),
	})

	rep.StageProgress(reporter.StageProgress{Stage: "Scene Detection", Message: "Locating scene cuts"})
	det, err := sceneDetector(videoProps, cfg)
	if err != nil {
		return fmt.Errorf("driver: resolve scene detector: %w", err)
	}
	cuts, err := scenedetect.DetectOrLoad(ctx, det, inputPath, workDir, vidInf.FPSNum, vidInf.FPSDen, vidInf.Frames, cfg.IgnoreFrameMismatch)
	if err != nil {
		return fmt.Errorf("driver: scene detection: %w", err)
	}

	zoneList, err := zones.Load(cfg.ZonesFile)
	if err != nil {
		return fmt.Errorf("driver: load zones: %w", err)
	}

	chunks, err := split.Plan(split.Options{
		FrameCount:  vidInf.Frames,
		DetectedCuts: cuts,
		Zones:       zoneList,
		MinSceneLen: cfg.MinSceneLen,
		ExtraSplit:  cfg.ExtraSplit,
	})
	if err != nil {
		return averrors.NewSplitPlanError(err.Error())
	}
	rep.StageProgress(reporter.StageProgress{Stage: "Chunking", Message: fmt.Sprintf("Split into %d chunks", len(chunks))})

	journalPath := filepath.Join(workDir, "journal.txt")
	if !cfg.Resume {
		_ = os.Remove(journalPath)
	}
	jr, err := journal.Open(journalPath)
	if err != nil {
		return averrors.NewJournalError("open progress journal", err)
	}
	jr.IgnoreFrameMismatch = cfg.IgnoreFrameMismatch

	order, _ := chunk.ParseOrder(cfg.ChunkOrder)
	useDispatcher := cfg.TargetQuality != nil
	queue := chunk.NewQueue(chunks, order, useDispatcher)

	adapter, err := defaultAdapter(cfg)
	if err != nil {
		return fmt.Errorf("driver: resolve encoder: %w", err)
	}

	workerCfg := worker.Config{
		Workers:     cfg.Workers,
		ChunkBuffer: cfg.ChunkBuffer,
		Threads:     cfg.ThreadsPerWorker,
		Quantizer:   fixedQuantizer(cfg, videoProps.Width),
		Preset:      presetArg(cfg),
		MaxTries:    3,

		ThreadAffinity: cfg.SetThreadAffinity,
	}

	if tqCfg, tqErr := cfg.TQConfig(); tqErr != nil {
		return fmt.Errorf("driver: build target-quality config: %w", tqErr)
	} else if tqCfg != nil {
		runner, mErr := metric.ByName(cfg.TargetMetric)
		if mErr != nil {
			return fmt.Errorf("driver: resolve metric: %w", mErr)
		}
		tqCfg.ProbePreset = probePresetArg(cfg)
		workerCfg.TQ = tqCfg
		workerCfg.Metric = runner
	}

	pipeline := &worker.Pipeline{
		Adapter: adapter,
		Journal: jr,
		WorkDir: workDir,
		Cfg:     workerCfg,
	}

	var audioPath string
	audioErr := make(chan error, 1)
	if len(audioStreams) > 0 {
		rep.StageProgress(reporter.StageProgress{Stage: "Audio", Message: "Extracting audio"})
		go func() {
			var err error
			audioPath, err = concat.ExtractAudio(ctx, inputPath, workDir)
			audioErr <- err
		}()
	} else {
		audioErr <- nil
	}

	rep.EncodingConfig(encodingConfigSummary(cfg, videoProps.Width, audioStreams))
	rep.StageProgress(reporter.StageProgress{Stage: "Encoding", Message: fmt.Sprintf("Starting %d workers", cfg.Workers)})
	rep.EncodingStarted(uint64(vidInf.Frames))
	startTime := time.Now()
	fps := float64(vidInf.FPSNum) / float64(vidInf.FPSDen)

	progressCb := func(p worker.Progress) {
		elapsed := time.Since(startTime)
		var speed float32
		var eta time.Duration
		if elapsed.Seconds() > 0 && p.FramesComplete > 0 {
			videoSeconds := float64(p.FramesComplete) / fps
			speed = float32(videoSeconds / elapsed.Seconds())
			if speed > 0 {
				remaining := float64(vidInf.Frames-p.FramesComplete) / fps
				eta = time.Duration(remaining/float64(speed)) * time.Second
			}
		}
		rep.EncodingProgress(reporter.ProgressSnapshot{
			CurrentFrame:   uint64(p.FramesComplete),
			TotalFrames:    uint64(vidInf.Frames),
			Percent:        float32(p.FramesComplete) / float32(vidInf.Frames) * 100,
			Speed:          speed,
			ETA:            eta,
			ChunksComplete: p.ChunksComplete,
			ChunksTotal:    len(chunks),
		})
	}

	if err := pipeline.Run(ctx, queue, vidInf, idx, cropH, cropV, progressCb); err != nil {
		return fmt.Errorf("driver: encode: %w", err)
	}

	rep.StageProgress(reporter.StageProgress{Stage: "Concat", Message: "Merging encoded chunks"})
	strategy, err := concat.ByName(cfg.ConcatStrategy)
	if err != nil {
		return fmt.Errorf("driver: resolve concat strategy: %w", err)
	}
	mergedVideo := filepath.Join(workDir, "merged.ivf")
	if err := strategy.Merge(ctx, workDir, chunks, mergedVideo); err != nil {
		return fmt.Errorf("driver: merge chunks: %w", err)
	}

	if err := <-audioErr; err != nil {
		return fmt.Errorf("driver: extract audio: %w", err)
	}

	rep.StageProgress(reporter.StageProgress{Stage: "Muxing", Message: "Writing final output"})
	if err := concat.MuxFinal(ctx, mergedVideo, audioPath, outputPath); err != nil {
		return fmt.Errorf("driver: mux final output: %w", err)
	}

	succeeded = true
	rep.EncodingComplete(reporter.EncodingOutcome{
		InputFile:  inputPath,
		OutputFile: outputPath,
		TotalTime:  time.Since(startTime),
		OutputPath: outputPath,
	})
	return nil
}

// sceneDetector picks the external helper binary when available, falling
// back to the resolution-scaled fixed-interval detector otherwise (the
// same degrade-gracefully behavior internal/scenedetect documents).
func sceneDetector(props *ffprobe.VideoProperties, cfg *config.Config) (scenedetect.Detector, error) {
	ext := scenedetect.NewExternal(scenedetect.Options{
		Binary:       scdBinaryName,
		MinSceneLen:  cfg.MinSceneLen,
		ShowProgress: cfg.Verbose,
	})
	if ext.IsAvailable() {
		return ext, nil
	}
	return &scenedetect.FixedInterval{
		ChunkDurationSecs: scenedetect.ChunkDurationForResolution(props.Width, props.Height),
	}, nil
}

// defaultAdapter resolves the run's default encoder.Adapter. SVT-AV1 gets
// its full tuning knob set from cfg; every other backend currently has no
// Config-level tuning beyond the shared Params fields, so ByName's
// zero-value construction is enough.
func defaultAdapter(cfg *config.Config) (encoder.Adapter, error) {
	if cfg.Encoder == "" || cfg.Encoder == "svt-av1" {
		return encoder.NewSVTAV1(encoder.SVTAV1Options{
			Tune:                  cfg.SVTAV1Tune,
			ACBias:                cfg.SVTAV1ACBias,
			EnableVarianceBoost:   cfg.SVTAV1EnableVarianceBoost,
			VarianceBoostStrength: cfg.SVTAV1VarianceBoostStrength,
			VarianceOctile:        cfg.SVTAV1VarianceOctile,
			FilmGrain:             cfg.SVTAV1FilmGrain,
			FilmGrainDenoise:      cfg.SVTAV1FilmGrainDenoise,
		}), nil
	}
	return encoder.ByName(cfg.Encoder, cfg.ThreadsPerWorker)
}

// fixedQuantizer returns the quantizer a fixed-CRF run should use: an
// explicit override if set, otherwise the resolution-tiered default.
// Ignored once target-quality search is enabled (Cfg.TQ takes over).
func fixedQuantizer(cfg *config.Config, width uint32) float64 {
	if cfg.Quantizer != nil {
		return *cfg.Quantizer
	}
	return float64(cfg.CRFForWidth(width))
}

// presetArg renders the SVT-AV1 numeric preset as the string
// encoder.Params.Preset expects. Other backends have no Config-level
// preset knob yet, so they fall back to their adapter's own default.
func presetArg(cfg *config.Config) string {
	if cfg.Encoder == "" || cfg.Encoder == "svt-av1" {
		return strconv.Itoa(int(cfg.SVTAV1Preset))
	}
	return ""
}

// svtSpeedNames maps the named speed words --probing-speed accepts to an
// SVT-AV1 numeric preset (0-13, lower is slower/better), the same scale
// SVTAV1Preset uses.
var svtSpeedNames = map[string]int{
	"veryslow": 0,
	"slow":     2,
	"medium":   4,
	"fast":     6,
	"faster":   8,
	"veryfast": 10,
}

// probePresetArg renders --probing-speed as the preset string a probe
// encode's backend expects, falling back to the final-encode preset
// (presetArg) when the value doesn't resolve for that backend.
func probePresetArg(cfg *config.Config) string {
	if cfg.ProbingSpeed == "" {
		return presetArg(cfg)
	}

	switch cfg.Encoder {
	case "", "svt-av1":
		if n, err := strconv.Atoi(cfg.ProbingSpeed); err == nil {
			return strconv.Itoa(n)
		}
		if n, ok := svtSpeedNames[strings.ToLower(cfg.ProbingSpeed)]; ok {
			return strconv.Itoa(n)
		}
	case "x264", "x265":
		// x264/x265 accept named presets (ultrafast..placebo) natively.
		return cfg.ProbingSpeed
	default: // aom, vpx, rav1e: numeric presets only
		if _, err := strconv.Atoi(cfg.ProbingSpeed); err == nil {
			return cfg.ProbingSpeed
		}
	}
	return presetArg(cfg)
}

// encodingConfigSummary renders the resolved encoder configuration for
// the reporter's pre-encode summary.
func encodingConfigSummary(cfg *config.Config, width uint32, audioStreams []ffprobe.AudioStreamInfo) reporter.EncodingConfigSummary {
	s := reporter.EncodingConfigSummary{
		Encoder:          encoderName(cfg),
		Preset:           presetArg(cfg),
		Quality:          fmt.Sprintf("%.0f", fixedQuantizer(cfg, width)),
		AudioDescription: audioDescription(audioStreams),
	}
	if cfg.Encoder == "" || cfg.Encoder == "svt-av1" {
		s.Tune = fmt.Sprintf("%d", cfg.SVTAV1Tune)
	}
	if cfg.AppliedPreset != nil {
		values := config.GetPresetValues(*cfg.AppliedPreset)
		s.AppliedPreset = string(*cfg.AppliedPreset)
		s.AppliedPresetValues = [][2]string{
			{"crf-sd", fmt.Sprintf("%d", values.CRFSD)},
			{"crf-hd", fmt.Sprintf("%d", values.CRFHD)},
			{"crf-uhd", fmt.Sprintf("%d", values.CRFUHD)},
			{"svt-av1-preset", fmt.Sprintf("%d", values.SVTAV1Preset)},
		}
	}
	return s
}

func encoderName(cfg *config.Config) string {
	if cfg.Encoder == "" {
		return "svt-av1"
	}
	return cfg.Encoder
}

// audioDescription summarizes the input's audio streams for display,
// e.g. "stereo (AAC), 5.1 (AC3)".
func audioDescription(streams []ffprobe.AudioStreamInfo) string {
	if len(streams) == 0 {
		return "none"
	}
	descs := make([]string, len(streams))
	for i, s := range streams {
		descs[i] = fmt.Sprintf("%s (%s)", channelLayoutName(s.Channels), s.CodecName)
	}
	return strings.Join(descs, ", ")
}

func channelLayoutName(channels uint32) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	case 6:
		return "5.1"
	case 8:
		return "7.1"
	default:
		return fmt.Sprintf("%d-channel", channels)
	}
}

// parseCropFilter extracts the symmetric per-side crop amount from an
// ffmpeg "crop=W:H:X:Y" filter string, mirroring internal/processing's
// own parser. X/Y are treated as per-side pixel amounts, which only
// produces a correct crop for a symmetric letterbox/pillarbox (the same
// assumption internal/ffms.GetDecodeStrat's cropH/cropV parameters make).
func parseCropFilter(filter string) (cropH, cropV uint32) {
	var w, h, x, y uint32
	if _, err := fmt.Sscanf(filter, "crop=%d:%d:%d:%d", &w, &h, &x, &y); err != nil {
		return 0, 0
	}
	return x, y
}

// resolutionCategory classifies a width using the same SD/HD/UHD tiers
// config.Config.CRFForWidth uses to pick a quantizer.
func resolutionCategory(width uint32) string {
	if width >= config.UHDWidthThreshold {
		return "UHD"
	}
	if width >= config.HDWidthThreshold {
		return "HD"
	}
	return "SD"
}

// dynamicRangeName describes a stream's HDR status for display.
func dynamicRangeName(hdr ffprobe.HDRInfo) string {
	if !hdr.IsHDR {
		return "SDR"
	}
	transfer := strings.ToLower(hdr.TransferCharacteristics)
	if strings.Contains(transfer, "hlg") || strings.Contains(transfer, "arib-std-b67") {
		return "HDR (HLG)"
	}
	return "HDR (PQ)"
}
