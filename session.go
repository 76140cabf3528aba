// Package startracker ties the frame, spot, camera, catalog and identify
// packages together behind a single Session: the caller-facing surface a
// driver program (or another Go program embedding this module) uses to run
// one capture-to-identification pass.
package startracker

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"startracker/internal/apperr"
	"startracker/internal/camera"
	"startracker/internal/catalog"
	"startracker/internal/frame"
	"startracker/internal/identify"
	"startracker/internal/spot"
)

// Default threshold and minimum blob area, matching the original capture
// pipeline's factory defaults.
const (
	DefaultThreshold = 64
	DefaultMinArea   = 16
)

// Session holds the state of one star-tracking pipeline instance: the
// currently loaded frame, its extraction parameters, the lens calibration,
// and whichever catalog back-end has been attached. Sessions are not
// shared across goroutines.
type Session struct {
	threshold uint8
	minArea   int

	raw         *frame.Frame
	thresholded *frame.Frame

	calib *camera.Model
	store catalog.Store
}

// NewSession returns a Session with default threshold and minimum area.
func NewSession() *Session {
	return &Session{threshold: DefaultThreshold, minArea: DefaultMinArea}
}

// SetThreshold sets the segmentation threshold used by the next Extract.
func (s *Session) SetThreshold(t uint8) { s.threshold = t }

// SetMinArea sets the minimum candidate blob area used by the next Extract.
func (s *Session) SetMinArea(n int) { s.minArea = n }

// LoadImage reads a raw sensor capture from path and applies the current
// threshold, replacing any previously loaded frame.
func (s *Session) LoadImage(path string, rows, cols int) error {
	f, err := frame.Load(path, rows, cols)
	if err != nil {
		return err
	}
	thresholded, err := f.Threshold(s.threshold)
	if err != nil {
		f.Close()
		return err
	}
	if s.raw != nil {
		s.raw.Close()
	}
	if s.thresholded != nil {
		s.thresholded.Close()
	}
	s.raw = f
	s.thresholded = thresholded
	return nil
}

// LoadCalibration reads a lens calibration record from path.
func (s *Session) LoadCalibration(path string) error {
	c, err := camera.Load(path)
	if err != nil {
		return err
	}
	s.calib = camera.NewModel(*c)
	return nil
}

// Extract runs spot extraction against the currently thresholded frame
// using the given centroiding method and the session's current min area.
func (s *Session) Extract(method spot.Method) ([]spot.Spot, error) {
	if s.thresholded == nil {
		return nil, fmt.Errorf("session: Extract: %w", apperr.ErrFrameMissing)
	}
	return spot.Extract(s.thresholded.Mat(), method, s.minArea)
}

// ProjectSpots maps a list of extracted spots into unit direction vectors
// using the loaded calibration. Projecting an empty spot list is the
// NoSpots condition (spec §7): extraction legitimately returns an empty
// list when nothing passes the filter, but asking to project nothing is
// an error.
func (s *Session) ProjectSpots(spots []spot.Spot) ([]r3.Vec, error) {
	if s.calib == nil {
		return nil, fmt.Errorf("session: ProjectSpots: %w", apperr.ErrCalibrationIO)
	}
	if len(spots) == 0 {
		return nil, apperr.ErrNoSpots
	}
	vectors := make([]r3.Vec, len(spots))
	for i, sp := range spots {
		v, err := s.calib.Project(sp)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

// LoadCatalogStore opens an on-disk SQLite catalog as the session's active
// back-end (Back-end A).
func (s *Session) LoadCatalogStore(path string) error {
	store, err := catalog.OpenSQLStore(path)
	if err != nil {
		return err
	}
	if s.store != nil {
		s.store.Close()
	}
	s.store = store
	return nil
}

// LoadKVector loads an in-memory k-vector catalog as the session's active
// back-end (Back-end B).
func (s *Session) LoadKVector(path string) error {
	idx, err := catalog.LoadKVector(path)
	if err != nil {
		return err
	}
	if s.store != nil {
		s.store.Close()
	}
	s.store = idx
	return nil
}

// Identify runs star identification over vectors against the session's
// active catalog back-end.
func (s *Session) Identify(vectors []r3.Vec, eps float32, method identify.Method) ([]int, error) {
	if s.store == nil {
		return nil, fmt.Errorf("session: Identify: %w", apperr.ErrCatalogUnavailable)
	}
	return identify.Identify(vectors, s.store, eps, method)
}

// SaveDebugMask exports a TIFF visualizing which connected components
// survived the min-area filter: the current thresholded frame with every
// surviving component's pixels repainted at a fixed debug intensity,
// matching the original capture pipeline's inline debug visualization
// (kept here as an explicit, opt-in export instead of a silent mutation).
func (s *Session) SaveDebugMask(path string) (int, error) {
	if s.thresholded == nil {
		return 0, fmt.Errorf("session: SaveDebugMask: %w", apperr.ErrFrameMissing)
	}
	spots, mask, err := spot.ExtractCCGeomWithMask(s.thresholded.Mat(), s.minArea)
	if err != nil {
		return 0, err
	}
	defer mask.Close()

	debug, err := s.thresholded.Clone()
	if err != nil {
		return 0, err
	}
	defer debug.Close()

	const survivorIntensity = 129
	if err := debug.PaintComponents(mask, survivorIntensity); err != nil {
		return 0, err
	}
	if err := debug.SaveDebugTIFF(path); err != nil {
		return 0, err
	}
	return len(spots), nil
}

// Close releases the session's frame and catalog resources.
func (s *Session) Close() error {
	if s.raw != nil {
		s.raw.Close()
	}
	if s.thresholded != nil {
		s.thresholded.Close()
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
