package worker

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/av1an-go/av1an/internal/chunk"
	"github.com/av1an-go/av1an/internal/encoder"
	"github.com/av1an-go/av1an/internal/ffms"
	"github.com/av1an-go/av1an/internal/journal"
	"github.com/av1an-go/av1an/internal/metric"
	"github.com/av1an-go/av1an/internal/tq"
)

// Config configures the parallel chunk pipeline. Setting TQ (and Metric)
// switches a fixed-quantizer run into a per-chunk target-quality search;
// leaving them nil encodes every chunk once at Quantizer.
type Config struct {
	Workers     int
	ChunkBuffer int
	Threads     int // threads handed to each encoder.Adapter instance

	Quantizer  float64 // fixed-CRF/CQ value when TQ is nil
	Preset     string  // encoder speed preset, passed through to Params.Preset
	GrainTable *string

	TQ     *tq.Config
	Metric metric.Runner

	MaxTries int // per-chunk retry budget (default 3, see runChunk)

	// ThreadAffinity pins each worker's encoder subprocess to a
	// contiguous CPU set sized to Threads, instead of leaving it to
	// float across the whole machine. No-op where unsupported.
	ThreadAffinity bool
}

// ProgressCallback is called to report encoding progress.
type ProgressCallback func(Progress)

// Pipeline runs the decode -> encode -> (optional probe/search) ->
// journal pipeline for one adapter across many chunks. It generalizes
// the fixed-CRF and target-quality encode loops into a single worker
// pool parameterized by encoder.Adapter and an optional tq.Config.
type Pipeline struct {
	Adapter encoder.Adapter
	Journal *journal.Journal
	WorkDir string
	Cfg     Config
}

// Run decodes and encodes every chunk the queue yields, skipping chunks
// the journal already recorded done with a matching frame count. It
// returns the first fatal error encountered; already-finished chunks
// remain on disk for a subsequent resume.
func (p *Pipeline) Run(ctx context.Context, queue chunk.Queue, inf *ffms.VidInf, idx *ffms.VidIdx, cropH, cropV uint32, progressCb ProgressCallback) error {
	if err := chunk.EnsureEncodeDir(p.WorkDir); err != nil {
		return fmt.Errorf("worker: create encode directory: %w", err)
	}

	strat, cropCalc, err := ffms.GetDecodeStrat(idx, inf, cropH, cropV)
	if err != nil {
		return fmt.Errorf("worker: decode strategy: %w", err)
	}
	width, height := inf.Width, inf.Height
	if cropCalc != nil {
		width, height = cropCalc.NewW, cropCalc.NewH
	}

	src, err := ffms.ThrVidSrc(idx, p.Cfg.Workers)
	if err != nil {
		return fmt.Errorf("worker: video source: %w", err)
	}
	defer src.Close()

	var progressMu sync.Mutex
	progress := Progress{
		FramesComplete: p.Journal.TotalEncodedFrames(),
		BytesComplete:  uint64(p.Journal.TotalEncodedSize()),
	}
	report := func(delta Progress) {
		if progressCb == nil {
			return
		}
		progressMu.Lock()
		progress.ChunksComplete += delta.ChunksComplete
		progress.FramesComplete += delta.FramesComplete
		progress.BytesComplete += delta.BytesComplete
		snapshot := progress
		progressMu.Unlock()
		progressCb(snapshot)
	}

	g, gctx := errgroup.WithContext(ctx)
	workers := p.Cfg.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		workerIdx := i
		g.Go(func() error {
			for {
				ch, ok := queue.Next()
				if !ok {
					return nil
				}
				if p.Journal.IsDone(ch.Idx, ch.Frames()) {
					queue.MarkComplete(ch.Idx)
					continue
				}

				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				rec, err := p.runChunk(gctx, ch, src, inf, strat, cropCalc, width, height, workerIdx)
				if err != nil {
					return fmt.Errorf("worker: chunk %d: %w", ch.Idx, err)
				}

				if err := p.Journal.MarkDone(rec); err != nil {
					return fmt.Errorf("worker: chunk %d: flush journal: %w", ch.Idx, err)
				}
				queue.MarkComplete(ch.Idx)
				report(Progress{ChunksComplete: 1, FramesComplete: rec.FrameCount, BytesComplete: uint64(rec.Bytes)})
			}
		})
	}

	return g.Wait()
}

// runChunk decodes one chunk's frames and encodes them, retrying up to
// Cfg.MaxTries on encoder failure. A probe-search failure (surfaced by
// the TQ path) restarts the search from scratch rather than reusing the
// failed quantizer.
func (p *Pipeline) runChunk(ctx context.Context, ch chunk.Chunk, src *ffms.VidSrc, inf *ffms.VidInf, strat ffms.DecodeStrat, cropCalc *ffms.CropCalc, width, height uint32, workerIdx int) (journal.Record, error) {
	maxTries := p.Cfg.MaxTries
	if maxTries < 1 {
		maxTries = 3
	}

	pkg, err := decodeChunk(src, ch, inf, strat, cropCalc, width, height)
	if err != nil {
		return journal.Record{}, fmt.Errorf("decode: %w", err)
	}

	adapter, err := p.adapterFor(ch)
	if err != nil {
		return journal.Record{}, err
	}

	var lastErr error
	for try := 0; try < maxTries; try++ {
		var size int64
		if p.Cfg.TQ != nil {
			size, err = p.encodeWithSearch(ctx, adapter, pkg, inf, workerIdx)
		} else {
			size, err = p.encodeFixed(ctx, adapter, pkg, inf, workerIdx)
		}
		if err == nil {
			return journal.Record{
				ChunkIdx:   ch.Idx,
				FrameCount: pkg.FrameCount,
				Bytes:      size,
				OutputFile: chunk.IVFPath(p.WorkDir, ch.Idx),
			}, nil
		}
		lastErr = err
	}
	return journal.Record{}, fmt.Errorf("exhausted %d tries: %w", maxTries, lastErr)
}

// adapterFor resolves the encoder a chunk should use: a zone may name a
// different backend than the run's default (spec.md's zones-file example
// switches from svt-av1 to aom to rav1e across ranges), so the pipeline
// cannot assume a single adapter for every chunk.
func (p *Pipeline) adapterFor(ch chunk.Chunk) (encoder.Adapter, error) {
	if ch.Encoder == "" || ch.Encoder == p.Adapter.Name() {
		return p.Adapter, nil
	}
	return encoder.ByName(ch.Encoder, p.Cfg.Threads)
}

// affinityFor computes a contiguous CPU set for the workerIdx'th worker,
// sized to its thread count and wrapped to the host's CPU count so workers
// past runtime.NumCPU()/threads overlap rather than run out of range.
func (p *Pipeline) affinityFor(workerIdx int) []int {
	threads := p.Cfg.Threads
	if threads < 1 {
		threads = 1
	}
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	start := (workerIdx * threads) % n
	cpus := make([]int, 0, threads)
	for i := 0; i < threads; i++ {
		cpus = append(cpus, (start+i)%n)
	}
	return cpus
}

func decodeChunk(src *ffms.VidSrc, ch chunk.Chunk, inf *ffms.VidInf, strat ffms.DecodeStrat, cropCalc *ffms.CropCalc, width, height uint32) (*WorkPkg, error) {
	frameCount := ch.Frames()
	frameSize := ffms.CalcFrameSize(inf, cropCalc)
	yuv := make([]byte, frameSize*frameCount)

	for i := 0; i < frameCount; i++ {
		frameIdx := ch.Start + i
		offset := i * frameSize
		if err := ffms.ExtractFrame(src, frameIdx, yuv[offset:offset+frameSize], inf, strat, cropCalc); err != nil {
			return nil, fmt.Errorf("extract frame %d: %w", frameIdx, err)
		}
	}

	return &WorkPkg{
		Chunk:      ch,
		YUV:        yuv,
		FrameCount: frameCount,
		Width:      width,
		Height:     height,
		Is10Bit:    inf.Is10Bit,
	}, nil
}

// encodeFixed runs a single encode at Cfg.Quantizer (and any zone
// override the chunk carries).
func (p *Pipeline) encodeFixed(ctx context.Context, adapter encoder.Adapter, pkg *WorkPkg, inf *ffms.VidInf, workerIdx int) (int64, error) {
	q := p.Cfg.Quantizer
	if pkg.Chunk.ForcedQ != nil {
		q = float64(*pkg.Chunk.ForcedQ)
	}
	outputPath := chunk.IVFPath(p.WorkDir, pkg.Chunk.Idx)
	return p.encodeOnce(ctx, adapter, pkg, inf, q, p.Cfg.Preset, outputPath, pkg.Chunk.Args, workerIdx)
}

// encodeWithSearch runs the target-quality probe search (internal/tq) for
// one chunk, writing probes to the chunk's scratch directory and, once
// the search settles on a quantizer, a genuine final encode (the run's
// real preset and arguments, full frame range) to the chunk's IVF path.
func (p *Pipeline) encodeWithSearch(ctx context.Context, adapter encoder.Adapter, pkg *WorkPkg, inf *ffms.VidInf, workerIdx int) (int64, error) {
	chunkDir, err := chunk.EnsureChunkDir(p.WorkDir, pkg.Chunk.Idx)
	if err != nil {
		return 0, fmt.Errorf("chunk scratch dir: %w", err)
	}

	cfg := p.Cfg.TQ
	probePkg := subsampledPkg(pkg, cfg.ProbingRate)

	refPath, err := writeReferenceY4M(chunkDir, probePkg, inf)
	if err != nil {
		return 0, fmt.Errorf("write reference clip: %w", err)
	}
	defer func() { _ = os.Remove(refPath) }()

	probePreset := cfg.ProbePreset
	if cfg.ProbeSlow {
		// probe_slow: probe with the run's own parameters (one-pass,
		// regardless of Cfg.Passes) instead of a fast preset.
		probePreset = p.Cfg.Preset
	}

	state := tq.NewState(cfg.Target, cfg.QPMin, cfg.QPMax, cfg.Sense)

	// Every probe's output is kept on disk (the chunk scratch directory
	// is small and short-lived) until the search picks a winner, since
	// the best-scoring probe is not necessarily the most recent one.
	for {
		crf, ok := tq.NextCRF(state, cfg)
		if !ok {
			break
		}
		probePath := probeIVFPath(chunkDir, crf)

		size, err := p.encodeOnce(ctx, adapter, probePkg, inf, crf, probePreset, probePath, pkg.Chunk.Args, workerIdx)
		if err != nil {
			return 0, fmt.Errorf("probe search: %w", err)
		}

		score, frameScores, err := p.Cfg.Metric.CompareFiles(ctx, refPath, probePath)
		if err != nil {
			return 0, fmt.Errorf("probe search: metric: %w", err)
		}
		state.AddProbe(crf, score, frameScores, uint64(size))

		if tq.ShouldComplete(state, cfg) {
			break
		}
	}

	best := state.BestProbe()
	if best == nil {
		return 0, fmt.Errorf("probe search: no probes recorded")
	}
	for _, probe := range state.Probes {
		_ = os.Remove(probeIVFPath(chunkDir, probe.CRF))
	}

	finalPath := chunk.IVFPath(p.WorkDir, pkg.Chunk.Idx)
	size, err := p.encodeOnce(ctx, adapter, pkg, inf, best.CRF, p.Cfg.Preset, finalPath, pkg.Chunk.Args, workerIdx)
	if err != nil {
		return 0, fmt.Errorf("final encode at quantizer %.0f: %w", best.CRF, err)
	}
	return size, nil
}

func probeIVFPath(chunkDir string, crf float64) string {
	return fmt.Sprintf("%s/probe-%.2f.ivf", chunkDir, crf)
}

// subsampledPkg returns pkg unchanged when rate<=1; otherwise it returns a
// copy carrying only every rate-th source frame, used to build both the
// probe's encoder input and its matching reference clip so the metric
// tool compares frame i of one against frame i of the other.
func subsampledPkg(pkg *WorkPkg, rate int) *WorkPkg {
	if rate <= 1 {
		return pkg
	}

	frameSize := len(pkg.YUV) / max(pkg.FrameCount, 1)
	sampled := make([]byte, 0, len(pkg.YUV)/rate+frameSize)
	count := 0
	for i := 0; i < pkg.FrameCount; i += rate {
		start := i * frameSize
		sampled = append(sampled, pkg.YUV[start:start+frameSize]...)
		count++
	}

	sub := *pkg
	sub.YUV = sampled
	sub.FrameCount = count
	return &sub
}

// encodeOnce pipes pkg's frames through one adapter invocation at
// quantizer q and preset, writing to outputPath. extraArgs (a chunk's
// zone overrides) are appended to the adapter's base argument list,
// unless the chunk sits in a reset zone, in which case they replace the
// adapter's own defaults outright (see encoder.Params.Reset).
func (p *Pipeline) encodeOnce(ctx context.Context, adapter encoder.Adapter, pkg *WorkPkg, inf *ffms.VidInf, q float64, preset string, outputPath string, extraArgs []string, workerIdx int) (int64, error) {
	params := encoder.Params{
		Inf:        inf,
		Width:      pkg.Width,
		Height:     pkg.Height,
		Frames:     pkg.FrameCount,
		Quantizer:  q,
		Preset:     preset,
		Threads:    p.Cfg.Threads,
		Output:     outputPath,
		GrainTable: p.Cfg.GrainTable,
		ExtraArgs:  extraArgs,
		Reset:      pkg.Chunk.Zone != nil && pkg.Chunk.Zone.Reset,
	}

	cmd := adapter.Command(params)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return 0, fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start encoder: %w", err)
	}

	if p.Cfg.ThreadAffinity {
		_ = setThreadAffinity(cmd.Process.Pid, p.affinityFor(workerIdx))
	}

	// Terminate the encoder subprocess on cancellation; Wait below still
	// reaps it and returns the resulting error.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		case <-done:
		}
	}()

	writeErr := writeFrameStream(stdin, adapter, params, pkg.YUV)
	_ = stdin.Close()
	if writeErr != nil {
		_ = cmd.Wait()
		return 0, fmt.Errorf("write frame stream: %w", writeErr)
	}
	if err := cmd.Wait(); err != nil {
		return 0, fmt.Errorf("encoder: %w", err)
	}

	stat, err := os.Stat(outputPath)
	if err != nil {
		return 0, fmt.Errorf("stat output: %w", err)
	}
	return stat.Size(), nil
}

// writeFrameStream prepends a y4m header for adapters that need one
// (encoder.FormatY4M) before copying the raw frame bytes.
func writeFrameStream(w io.Writer, adapter encoder.Adapter, params encoder.Params, yuv []byte) error {
	if adapter.StdinFormat() == encoder.FormatY4M {
		if header := adapter.Header(params); len(header) > 0 {
			if _, err := w.Write(header); err != nil {
				return err
			}
		}
		frameSize := len(yuv) / max(params.Frames, 1)
		for offset := 0; offset < len(yuv); offset += frameSize {
			if _, err := w.Write([]byte(encoder.FrameMarker)); err != nil {
				return err
			}
			end := offset + frameSize
			if _, err := w.Write(yuv[offset:end]); err != nil {
				return err
			}
		}
		return nil
	}

	_, err := w.Write(yuv)
	return err
}

// writeReferenceY4M writes pkg's decoded frames out as a standalone y4m
// file so metric.Runner.CompareFiles has a reference to diff the probe
// encodes against.
func writeReferenceY4M(chunkDir string, pkg *WorkPkg, inf *ffms.VidInf) (string, error) {
	path := fmt.Sprintf("%s/reference.y4m", chunkDir)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(encoder.YUV4MPEG2Header(pkg.Width, pkg.Height, inf.FPSNum, inf.FPSDen)); err != nil {
		return "", err
	}
	frameSize := len(pkg.YUV) / max(pkg.FrameCount, 1)
	for offset := 0; offset < len(pkg.YUV); offset += frameSize {
		if _, err := f.Write([]byte(encoder.FrameMarker)); err != nil {
			return "", err
		}
		if _, err := f.Write(pkg.YUV[offset : offset+frameSize]); err != nil {
			return "", err
		}
	}
	return path, nil
}
