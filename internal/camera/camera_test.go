package camera

import (
	"math"
	"os"
	"testing"

	"startracker/internal/spot"
	"startracker/pkg/geometry"
)

func TestLoadCalibration(t *testing.T) {
	f, err := os.CreateTemp("", "calib-*.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString("960 540 0 0 0 0 0 0 1200 1200"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	c, err := Load(f.Name())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Cx != 960 || c.Cy != 540 || c.Fx != 1200 || c.Fy != 1200 {
		t.Errorf("unexpected calibration: %+v", c)
	}
}

func TestProjectIdentityCalibrationCenterSpot(t *testing.T) {
	c := Calibration{Cx: 100, Cy: 100, Fx: 1000, Fy: 1000}
	m := NewModel(c)

	vec, err := m.Project(spot.Spot{Center: geometry.Point2D{X: 100, Y: 100}})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if math.Abs(vec.X) > 1e-9 || math.Abs(vec.Y) > 1e-9 || math.Abs(vec.Z-1) > 1e-9 {
		t.Errorf("center spot should project to (0,0,1), got %+v", vec)
	}
}

func TestProjectUnitVector(t *testing.T) {
	c := Calibration{Cx: 100, Cy: 100, Fx: 1000, Fy: 1000}
	m := NewModel(c)

	vec, err := m.Project(spot.Spot{Center: geometry.Point2D{X: 150, Y: 100}})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	norm := math.Sqrt(vec.X*vec.X + vec.Y*vec.Y + vec.Z*vec.Z)
	if math.Abs(norm-1) > 1e-9 {
		t.Errorf("projected vector not unit norm: %v", norm)
	}
}

func TestProjectZeroFocalLength(t *testing.T) {
	m := NewModel(Calibration{})
	if _, err := m.Project(spot.Spot{Center: geometry.Point2D{X: 1, Y: 1}}); err == nil {
		t.Fatal("expected error for zero focal length")
	}
}

func TestUndistortNearAxisStaysClose(t *testing.T) {
	// With small distortion, undistorting a point near the optical axis
	// should leave it close to where it started.
	x, y := undistortRadialTangential(0.01, 0.01, 0.001, 0.0001, 0, 0, 0)
	if math.Abs(float64(x)-0.01) > 0.01 || math.Abs(float64(y)-0.01) > 0.01 {
		t.Errorf("undistort diverged too far: (%v, %v)", x, y)
	}
}
