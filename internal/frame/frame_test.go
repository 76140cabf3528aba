package frame

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"gocv.io/x/gocv"
)

func TestLoadTruncated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.raw")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path, 4, 4); err == nil {
		t.Fatal("expected error for truncated raw image")
	}
}

func TestThresholdToZero(t *testing.T) {
	m := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8U)
	defer m.Close()
	m.SetUCharAt(1, 1, 200)
	m.SetUCharAt(2, 2, 10)

	f := NewFromMat(m)
	thresholded, err := f.Threshold(64)
	if err != nil {
		t.Fatalf("Threshold: %v", err)
	}
	defer thresholded.Close()

	if got := thresholded.Mat().GetUCharAt(1, 1); got != 200 {
		t.Errorf("pixel above threshold = %d, want 200", got)
	}
	if got := thresholded.Mat().GetUCharAt(2, 2); got != 0 {
		t.Errorf("pixel at or below threshold = %d, want 0", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8U)
	defer m.Close()
	m.SetUCharAt(0, 0, 50)

	f := NewFromMat(m)
	clone, err := f.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	defer clone.Close()

	clone.mat.SetUCharAt(0, 0, 255)
	if got := f.mat.GetUCharAt(0, 0); got != 50 {
		t.Errorf("original mutated through clone: got %d, want 50", got)
	}
}

// TestSaveDebugTIFFRoundTrip writes a frame with a block of pixels repainted
// by PaintComponents, encodes it with SaveDebugTIFF, then decodes it back
// with the same x/image/tiff package to confirm every pixel survives the
// round trip unchanged.
func TestSaveDebugTIFFRoundTrip(t *testing.T) {
	const rows, cols = 8, 8
	m := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	defer m.Close()
	m.SetUCharAt(3, 4, 60)

	f := NewFromMat(m)

	mask := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	defer mask.Close()
	mask.SetUCharAt(3, 4, 255)

	const survivorIntensity = 129
	if err := f.PaintComponents(mask, survivorIntensity); err != nil {
		t.Fatalf("PaintComponents: %v", err)
	}

	path := filepath.Join(t.TempDir(), "debug.tiff")
	if err := f.SaveDebugTIFF(path); err != nil {
		t.Fatalf("SaveDebugTIFF: %v", err)
	}

	in, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer in.Close()

	decoded, err := tiff.Decode(in)
	if err != nil {
		t.Fatalf("tiff.Decode: %v", err)
	}

	bounds := decoded.Bounds()
	if bounds != image.Rect(0, 0, cols, rows) {
		t.Fatalf("decoded bounds = %v, want %v", bounds, image.Rect(0, 0, cols, rows))
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			want := f.mat.GetUCharAt(y, x)
			_, _, b, _ := decoded.At(x, y).RGBA()
			got := uint8(b >> 8)
			if got != want {
				t.Errorf("pixel (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestPaintComponentsDimensionMismatch(t *testing.T) {
	m := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8U)
	defer m.Close()
	f := NewFromMat(m)

	mask := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8U)
	defer mask.Close()

	if err := f.PaintComponents(mask, 129); err == nil {
		t.Fatal("expected error for mismatched mask dimensions")
	}
}
