package startracker

import (
	"errors"
	"os"
	"testing"

	"startracker/internal/apperr"
	"startracker/internal/identify"
)

func TestSessionExtractWithoutFrameReturnsFrameMissing(t *testing.T) {
	s := NewSession()
	defer s.Close()

	_, err := s.Extract(0)
	if !errors.Is(err, apperr.ErrFrameMissing) {
		t.Fatalf("expected ErrFrameMissing extracting with no frame loaded, got %v", err)
	}
}

func TestSessionIdentifyWithoutCatalogReturnsCatalogUnavailable(t *testing.T) {
	s := NewSession()
	defer s.Close()

	_, err := s.Identify(nil, 0.1, identify.TwoStar)
	if !errors.Is(err, apperr.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable identifying with no catalog loaded, got %v", err)
	}
}

func TestSessionLoadCalibrationStoresModel(t *testing.T) {
	f, err := os.CreateTemp("", "calib-*.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.WriteString("100 100 0 0 0 0 0 0 1000 1000")
	f.Close()

	s := NewSession()
	defer s.Close()
	if err := s.LoadCalibration(f.Name()); err != nil {
		t.Fatalf("LoadCalibration: %v", err)
	}
	if s.calib == nil {
		t.Fatal("calibration not stored on session")
	}
}
