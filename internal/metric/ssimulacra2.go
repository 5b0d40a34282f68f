package metric

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/av1an-go/av1an/internal/ffms"
	"github.com/av1an-go/av1an/internal/vship"
)

// SSIMULACRA2 computes per-frame SSIMULACRA2 scores on the GPU via
// libvship (internal/vship), decoding both clips through FFMS2
// (internal/ffms) exactly as the worker pipeline decodes source frames
// for encoding.
type SSIMULACRA2 struct{}

func NewSSIMULACRA2() *SSIMULACRA2 { return &SSIMULACRA2{} }

func (s *SSIMULACRA2) Name() string { return "ssimulacra2" }
func (s *SSIMULACRA2) Sense() Sense { return HigherIsBetter }

func (s *SSIMULACRA2) IsAvailable() bool {
	if err := vship.InitDevice(); err != nil {
		return false
	}
	_, err := vship.GetDeviceCount()
	return err == nil
}

func (s *SSIMULACRA2) CompareFiles(_ context.Context, refPath, disPath string) (float64, []float64, error) {
	refIdx, err := ffms.NewVidIdx(refPath, false)
	if err != nil {
		return 0, nil, fmt.Errorf("metric: ssimulacra2: index reference: %w", err)
	}
	defer refIdx.Close()
	refInf, err := ffms.GetVidInf(refIdx)
	if err != nil {
		return 0, nil, fmt.Errorf("metric: ssimulacra2: reference properties: %w", err)
	}

	disIdx, err := ffms.NewVidIdx(disPath, false)
	if err != nil {
		return 0, nil, fmt.Errorf("metric: ssimulacra2: index distorted: %w", err)
	}
	defer disIdx.Close()
	disInf, err := ffms.GetVidInf(disIdx)
	if err != nil {
		return 0, nil, fmt.Errorf("metric: ssimulacra2: distorted properties: %w", err)
	}

	refStrat, refCrop, err := ffms.GetDecodeStrat(refIdx, refInf, 0, 0)
	if err != nil {
		return 0, nil, fmt.Errorf("metric: ssimulacra2: reference decode strategy: %w", err)
	}
	disStrat, disCrop, err := ffms.GetDecodeStrat(disIdx, disInf, 0, 0)
	if err != nil {
		return 0, nil, fmt.Errorf("metric: ssimulacra2: distorted decode strategy: %w", err)
	}

	refSrc, err := ffms.ThrVidSrc(refIdx, 1)
	if err != nil {
		return 0, nil, fmt.Errorf("metric: ssimulacra2: reference source: %w", err)
	}
	defer refSrc.Close()
	disSrc, err := ffms.ThrVidSrc(disIdx, 1)
	if err != nil {
		return 0, nil, fmt.Errorf("metric: ssimulacra2: distorted source: %w", err)
	}
	defer disSrc.Close()

	width, height := disInf.Width, disInf.Height
	if disCrop != nil {
		width, height = disCrop.NewW, disCrop.NewH
	}

	proc, err := vship.NewProcessor(width, height, intPtr32(refInf.MatrixCoefficients), intPtr32(refInf.TransferCharacteristics), intPtr32(refInf.ColorPrimaries), nil, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("metric: ssimulacra2: processor init: %w", err)
	}
	defer func() { _ = proc.Close() }()

	frames := refInf.Frames
	if disInf.Frames < frames {
		frames = disInf.Frames
	}

	refBuf := make([]byte, ffms.CalcFrameSize(refInf, refCrop))
	disBuf := make([]byte, ffms.CalcFrameSize(disInf, disCrop))

	scores := make([]float64, 0, frames)
	for i := 0; i < frames; i++ {
		if err := ffms.ExtractFrame(refSrc, i, refBuf, refInf, refStrat, refCrop); err != nil {
			return 0, nil, fmt.Errorf("metric: ssimulacra2: decode reference frame %d: %w", i, err)
		}
		if err := ffms.ExtractFrame(disSrc, i, disBuf, disInf, disStrat, disCrop); err != nil {
			return 0, nil, fmt.Errorf("metric: ssimulacra2: decode distorted frame %d: %w", i, err)
		}

		refPlanes, refStrides := planes10bit(refBuf, width, height)
		disPlanes, disStrides := planes10bit(disBuf, width, height)

		score, err := proc.ComputeSSIMULACRA2(refPlanes, disPlanes, refStrides, disStrides)
		if err != nil {
			return 0, nil, fmt.Errorf("metric: ssimulacra2: compute frame %d: %w", i, err)
		}
		scores = append(scores, score)
	}

	if len(scores) == 0 {
		return 0, nil, fmt.Errorf("metric: ssimulacra2: no frames compared")
	}
	var sum float64
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores)), scores, nil
}

// planes10bit computes [Y,U,V] pointers and byte strides into a tightly
// packed 10-bit-per-sample 4:2:0 buffer laid out the way
// ffms.ExtractFrame writes it.
func planes10bit(buf []byte, width, height uint32) ([3]unsafe.Pointer, [3]int64) {
	yStride := int64(width) * 2
	uvStride := int64(width/2) * 2
	ySize := int64(width) * int64(height) * 2
	uvSize := int64(width/2) * int64(height/2) * 2

	planes := [3]unsafe.Pointer{
		unsafe.Pointer(&buf[0]),
		unsafe.Pointer(&buf[ySize]),
		unsafe.Pointer(&buf[ySize+uvSize]),
	}
	strides := [3]int64{yStride, uvStride, uvStride}
	return planes, strides
}

func intPtr32(p *int32) *int {
	if p == nil {
		return nil
	}
	v := int(*p)
	return &v
}
