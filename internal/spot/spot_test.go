package spot

import (
	"testing"

	"gocv.io/x/gocv"
)

func squareFrame(size int, square image_rect, intensity uint8) gocv.Mat {
	m := gocv.NewMatWithSize(size, size, gocv.MatTypeCV8U)
	for y := square.y0; y < square.y1; y++ {
		for x := square.x0; x < square.x1; x++ {
			m.SetUCharAt(y, x, intensity)
		}
	}
	return m
}

type image_rect struct{ x0, y0, x1, y1 int }

func TestExtractCCWeightedSingleSquare(t *testing.T) {
	m := squareFrame(64, image_rect{20, 20, 30, 30}, 200)
	defer m.Close()

	spots, err := Extract(m, CCWeighted, 16)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(spots) != 1 {
		t.Fatalf("expected 1 spot, got %d", len(spots))
	}
	s := spots[0]
	if s.Area != 100 {
		t.Errorf("area = %d, want 100", s.Area)
	}
	wantX, wantY := 24.5, 24.5
	if diff := s.Center.X - wantX; diff > 0.01 || diff < -0.01 {
		t.Errorf("center.X = %v, want %v", s.Center.X, wantX)
	}
	if diff := s.Center.Y - wantY; diff > 0.01 || diff < -0.01 {
		t.Errorf("center.Y = %v, want %v", s.Center.Y, wantY)
	}
}

func TestExtractCCGeomFiltersSmallArea(t *testing.T) {
	m := squareFrame(64, image_rect{0, 0, 3, 3}, 100)
	defer m.Close()

	spots, err := Extract(m, CCGeom, 16)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(spots) != 0 {
		t.Fatalf("expected 0 spots below min area, got %d", len(spots))
	}
}

func TestExtractEmptyFrame(t *testing.T) {
	var m gocv.Mat
	_, err := Extract(m, CCGeom, 16)
	if err == nil {
		t.Fatal("expected error for empty frame")
	}
}

func TestExtractUnknownMethod(t *testing.T) {
	m := squareFrame(32, image_rect{5, 5, 10, 10}, 90)
	defer m.Close()

	_, err := Extract(m, Method(99), 16)
	if err == nil {
		t.Fatal("expected error for unknown method")
	}
}
