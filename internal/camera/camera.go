// Package camera loads lens calibration records and projects pixel-space
// spot centers into unit direction vectors in the camera frame.
package camera

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"startracker/internal/apperr"
	"startracker/internal/spot"
)

// distortionIterations is the fixed iteration count for the Brown-Conrady
// inversion. Not a tunable: the contract requires exactly this many passes
// regardless of convergence.
const distortionIterations = 20

// Calibration holds a single lens/sensor calibration record.
type Calibration struct {
	Cx, Cy       float32 // principal point, pixels
	Skew         float32
	K1, K2, K3   float32 // radial distortion coefficients
	P1, P2       float32 // tangential distortion coefficients
	Fx, Fy       float32 // focal length, pixels
}

// hasDistortion reports whether any distortion coefficient is nonzero.
func (c Calibration) hasDistortion() bool {
	return c.K1 != 0 || c.K2 != 0 || c.K3 != 0 || c.P1 != 0 || c.P2 != 0
}

// Load reads a calibration record from a whitespace-separated ASCII file
// with fields in the order: cx cy s k1 k2 p1 p2 k3 fx fy.
func Load(path string) (*Calibration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("camera: open %s: %w", path, apperr.ErrCalibrationIO)
	}
	defer f.Close()

	var vals [10]float32
	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)
	for i := range vals {
		if !sc.Scan() {
			return nil, fmt.Errorf("camera: %s: expected 10 fields, got %d: %w", path, i, apperr.ErrCalibrationIO)
		}
		var v float64
		if _, err := fmt.Sscanf(sc.Text(), "%g", &v); err != nil {
			return nil, fmt.Errorf("camera: %s: field %d: %w", path, i, apperr.ErrCalibrationIO)
		}
		vals[i] = float32(v)
	}

	return &Calibration{
		Cx: vals[0], Cy: vals[1], Skew: vals[2],
		K1: vals[3], K2: vals[4], P1: vals[5], P2: vals[6], K3: vals[7],
		Fx: vals[8], Fy: vals[9],
	}, nil
}

// Model projects pixel-space spot centers into unit line-of-sight vectors
// using a fixed calibration record.
type Model struct {
	Calib Calibration
}

// NewModel wraps a Calibration for repeated projection.
func NewModel(c Calibration) *Model {
	return &Model{Calib: c}
}

// Project maps a spot's pixel center to a unit direction vector in the
// camera frame: de-skew, undistort (if the calibration carries nonzero
// distortion coefficients), then append z=1 and normalize.
func (m *Model) Project(s spot.Spot) (r3.Vec, error) {
	c := m.Calib
	if c.Fx == 0 || c.Fy == 0 {
		return r3.Vec{}, fmt.Errorf("camera: Project: zero focal length: %w", apperr.ErrNumericDomain)
	}

	xd := float32((s.Center.X - float64(c.Cx)) / float64(c.Fx))
	yd := float32((s.Center.Y - float64(c.Cy)) / float64(c.Fy))
	xd -= c.Skew * yd

	x, y := xd, yd
	if c.hasDistortion() {
		x, y = undistortRadialTangential(xd, yd, c.K1, c.K2, c.P1, c.P2, c.K3)
	}

	vec := r3.Vec{X: float64(x), Y: float64(y), Z: 1}
	norm := math.Sqrt(r3.Dot(vec, vec))
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return r3.Vec{}, fmt.Errorf("camera: Project: degenerate direction vector: %w", apperr.ErrNumericDomain)
	}
	return r3.Scale(1/norm, vec), nil
}

// undistortRadialTangential inverts the Brown-Conrady distortion model with
// a fixed-point iteration of exactly distortionIterations passes. Each pass
// recomputes the radial/tangential correction from the current estimate and
// re-solves against the original (fixed) distorted coordinates.
func undistortRadialTangential(xd, yd, k1, k2, p1, p2, k3 float32) (float32, float32) {
	x, y := xd, yd
	for i := 0; i < distortionIterations; i++ {
		r2 := x*x + y*y
		r4 := r2 * r2
		kRadial := 1 + k1*r2 + k2*r4 + k3*r2*r4
		deltaX := 2*p1*x*y + p2*(r2+2*x*x)
		deltaY := p1*(r2+2*y*y) + 2*p2*x*y
		x = (xd - deltaX) / kRadial
		y = (yd - deltaY) / kRadial
	}
	return x, y
}
