// Package frame loads raw sensor images and applies the fixed-threshold
// segmentation step that precedes spot extraction.
package frame

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"golang.org/x/image/tiff"

	"gocv.io/x/gocv"

	"startracker/internal/apperr"
)

// Frame wraps a single-channel 8-bit gocv.Mat together with its dimensions.
// The zero value is not usable; construct with Load or NewFromMat.
type Frame struct {
	mat  gocv.Mat
	rows int
	cols int
}

// Close releases the underlying Mat. Safe to call on a zero Frame.
func (f *Frame) Close() error {
	if f == nil || f.mat.Empty() {
		return nil
	}
	return f.mat.Close()
}

// Mat returns the underlying 8-bit grayscale Mat. Callers must not close it;
// ownership stays with the Frame.
func (f *Frame) Mat() gocv.Mat {
	return f.mat
}

func (f *Frame) Rows() int { return f.rows }
func (f *Frame) Cols() int { return f.cols }

// Load reads a raw sensor capture: rows*cols uint16 little-endian samples in
// row-major order, each right-shifted by 4 to fold 12-bit sensor depth into
// an 8-bit frame (matching the division by 16 the original capture pipeline
// performed).
func Load(path string, rows, cols int) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("frame: open %s: %w", path, apperr.ErrFrameMissing)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 1<<20)
	n := rows * cols
	buf := make([]byte, n)
	samples := make([]uint16, n)
	if err := binary.Read(r, binary.LittleEndian, samples); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, fmt.Errorf("frame: %s: truncated raw image: %w", path, apperr.ErrFrameMissing)
		}
		return nil, fmt.Errorf("frame: %s: %w", path, apperr.ErrFrameMissing)
	}
	for i, s := range samples {
		buf[i] = byte(s >> 4)
	}

	mat, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8U, buf)
	if err != nil {
		return nil, fmt.Errorf("frame: %s: building Mat: %w", path, err)
	}
	return &Frame{mat: mat, rows: rows, cols: cols}, nil
}

// NewFromMat wraps an already-built 8-bit single-channel Mat as a Frame.
// Used by tests and by callers that source frames from something other than
// the raw file format (e.g. a camera driver upstream of this module).
func NewFromMat(m gocv.Mat) *Frame {
	return &Frame{mat: m, rows: m.Rows(), cols: m.Cols()}
}

// Clone returns a deep copy of the frame, for building a debug-mask export
// without mutating the frame used for extraction.
func (f *Frame) Clone() (*Frame, error) {
	if f == nil || f.mat.Empty() {
		return nil, apperr.ErrFrameMissing
	}
	return &Frame{mat: f.mat.Clone(), rows: f.rows, cols: f.cols}, nil
}

// Threshold produces a new Frame in which every pixel strictly greater than
// t keeps its original intensity and every other pixel becomes zero
// (OpenCV's THRESH_TOZERO semantics). The receiver is left untouched.
func (f *Frame) Threshold(t uint8) (*Frame, error) {
	if f == nil || f.mat.Empty() {
		return nil, apperr.ErrFrameMissing
	}
	dst := gocv.NewMat()
	gocv.Threshold(f.mat, &dst, float32(t), 0, gocv.ThresholdToZero)
	return &Frame{mat: dst, rows: f.rows, cols: f.cols}, nil
}

// SaveDebugTIFF writes the frame out as an 8-bit grayscale TIFF, for
// visual inspection of thresholded or component-painted frames.
func (f *Frame) SaveDebugTIFF(path string) error {
	if f == nil || f.mat.Empty() {
		return apperr.ErrFrameMissing
	}
	img := image.NewGray(image.Rect(0, 0, f.cols, f.rows))
	for y := 0; y < f.rows; y++ {
		for x := 0; x < f.cols; x++ {
			img.SetGray(x, y, color.Gray{Y: f.mat.GetUCharAt(y, x)})
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("frame: debug TIFF %s: %w", path, err)
	}
	defer out.Close()
	if err := tiff.Encode(out, img, nil); err != nil {
		return fmt.Errorf("frame: debug TIFF %s: %w", path, err)
	}
	return nil
}

// PaintComponents overwrites, in place, every pixel whose coordinates are
// listed in mask with the given intensity. Used to visualize which
// candidates survived the min-area filter during connected-components
// extraction, mirroring the debug visualization the original capture
// pipeline performed inline.
func (f *Frame) PaintComponents(mask gocv.Mat, intensity uint8) error {
	if f == nil || f.mat.Empty() {
		return apperr.ErrFrameMissing
	}
	if mask.Rows() != f.rows || mask.Cols() != f.cols {
		return fmt.Errorf("frame: PaintComponents: mask dimensions do not match frame")
	}
	for y := 0; y < f.rows; y++ {
		for x := 0; x < f.cols; x++ {
			if mask.GetUCharAt(y, x) != 0 {
				f.mat.SetUCharAt(y, x, intensity)
			}
		}
	}
	return nil
}
