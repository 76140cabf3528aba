// Package spot extracts sub-pixel candidate star positions from a
// thresholded frame using one of five centroiding policies.
package spot

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"startracker/internal/apperr"
	"startracker/pkg/geometry"
)

// Method selects a centroiding policy.
type Method int

const (
	ContourGeom Method = iota
	ContourWeighted
	ContourBBoxWeighted
	CCGeom
	CCWeighted
)

func (m Method) String() string {
	switch m {
	case ContourGeom:
		return "CONTOUR_GEOM"
	case ContourWeighted:
		return "CONTOUR_WEIGHTED"
	case ContourBBoxWeighted:
		return "CONTOUR_BBOX_WEIGHTED"
	case CCGeom:
		return "CC_GEOM"
	case CCWeighted:
		return "CC_WEIGHTED"
	default:
		return "UNKNOWN"
	}
}

// Spot is a single extracted candidate star: its sub-pixel center and the
// pixel area of the region it was derived from.
type Spot struct {
	Center geometry.Point2D
	Area   int
}

// Extract finds candidate spots in a thresholded (THRESH_TOZERO) 8-bit Mat.
// minArea is an exclusive lower bound: a candidate survives only if its
// area strictly exceeds minArea.
func Extract(thresholded gocv.Mat, method Method, minArea int) ([]Spot, error) {
	if thresholded.Empty() {
		return nil, apperr.ErrFrameMissing
	}

	switch method {
	case ContourGeom, ContourWeighted, ContourBBoxWeighted:
		return extractContours(thresholded, method, minArea)
	case CCGeom, CCWeighted:
		return extractConnectedComponents(thresholded, method, minArea)
	default:
		return nil, fmt.Errorf("spot: unknown method %v: %w", method, apperr.ErrInvalidArgument)
	}
}

func extractContours(thresholded gocv.Mat, method Method, minArea int) ([]Spot, error) {
	rMin := math.Sqrt(float64(minArea) / math.Pi)

	contours := gocv.FindContours(thresholded, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	var spots []Spot
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)

		cx, cy, radius := gocv.MinEnclosingCircle(contour)
		if float64(radius) <= rMin {
			continue
		}

		switch method {
		case ContourGeom:
			area := int(math.Ceil(math.Pi * float64(radius) * float64(radius)))
			if area <= minArea {
				continue
			}
			spots = append(spots, Spot{Center: geometry.Point2D{X: float64(cx), Y: float64(cy)}, Area: area})

		case ContourWeighted:
			center, area := weightedCentroidInContour(thresholded, contour)
			if area <= minArea {
				continue
			}
			spots = append(spots, Spot{Center: center, Area: area})

		case ContourBBoxWeighted:
			center, area := weightedCentroidBoundingRect(thresholded, contour)
			if area <= minArea {
				continue
			}
			spots = append(spots, Spot{Center: center, Area: area})
		}
	}
	return spots, nil
}

// weightedCentroidInContour computes the intensity-weighted centroid of the
// pixels inside a single contour, its boundary pixels included. The contour
// is rasterized (filled) into a full-frame mask and bitwise-ANDed against the frame (0xFF bytes in the
// mask pass the frame's intensity through unchanged, 0x00 bytes zero it),
// then the weighted sum is accumulated over the contour's bounding rect.
func weightedCentroidInContour(frame gocv.Mat, contour gocv.PointVector) (geometry.Point2D, int) {
	rect := gocv.BoundingRect(contour)

	mask := gocv.NewMatWithSize(frame.Rows(), frame.Cols(), gocv.MatTypeCV8U)
	defer mask.Close()
	single := gocv.NewPointsVectorFromPoints([][]image.Point{contour.ToPoints()})
	defer single.Close()
	gocv.DrawContours(&mask, single, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)

	maskedRegion := mask.Region(rect)
	defer maskedRegion.Close()
	frameRegion := frame.Region(rect)
	defer frameRegion.Close()

	combined := gocv.NewMat()
	defer combined.Close()
	gocv.BitwiseAnd(frameRegion, maskedRegion, &combined)

	var area int
	var sum, weightingX, weightingY float64
	for y := 0; y < combined.Rows(); y++ {
		for x := 0; x < combined.Cols(); x++ {
			p := float64(combined.GetUCharAt(y, x))
			if p == 0 {
				continue
			}
			area++
			sum += p
			weightingX += float64(x) * p
			weightingY += float64(y) * p
		}
	}
	if sum == 0 {
		return geometry.Point2D{X: float64(rect.Min.X), Y: float64(rect.Min.Y)}, area
	}
	weightedX := weightingX / sum
	weightedY := weightingY / sum
	return geometry.Point2D{X: weightedX + float64(rect.Min.X), Y: weightedY + float64(rect.Min.Y)}, area
}

// weightedCentroidBoundingRect computes the intensity-weighted centroid over
// every pixel in a contour's bounding rectangle, without masking to the
// contour's interior, and reports the rectangle's full area.
func weightedCentroidBoundingRect(frame gocv.Mat, contour gocv.PointVector) (geometry.Point2D, int) {
	rect := gocv.BoundingRect(contour)
	region := frame.Region(rect)
	defer region.Close()

	var sum, weightingX, weightingY float64
	for y := 0; y < region.Rows(); y++ {
		for x := 0; x < region.Cols(); x++ {
			p := float64(region.GetUCharAt(y, x))
			sum += p
			weightingX += float64(x) * p
			weightingY += float64(y) * p
		}
	}
	area := rect.Dx() * rect.Dy()
	if sum == 0 {
		return geometry.Point2D{X: float64(rect.Min.X), Y: float64(rect.Min.Y)}, area
	}
	weightedX := weightingX / sum
	weightedY := weightingY / sum
	return geometry.Point2D{X: weightedX + float64(rect.Min.X), Y: weightedY + float64(rect.Min.Y)}, area
}

// ExtractCCGeomWithMask runs the CC_GEOM policy and additionally returns a
// single-channel mask (255 where a pixel belongs to a surviving component,
// 0 elsewhere), mirroring the original capture pipeline's inline debug
// visualization of which connected components passed the min-area filter.
// The caller owns the returned Mat and must Close it.
func ExtractCCGeomWithMask(thresholded gocv.Mat, minArea int) ([]Spot, gocv.Mat, error) {
	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	nLabels := gocv.ConnectedComponentsWithStats(thresholded, &labels, &stats, &centroids, 8, gocv.MatTypeCV32S)

	survivor := make([]bool, nLabels)
	var spots []Spot
	for i := 1; i < nLabels; i++ {
		area := int(stats.GetIntAt(i, 4))
		if area <= minArea {
			continue
		}
		survivor[i] = true
		cx := centroids.GetDoubleAt(i, 0)
		cy := centroids.GetDoubleAt(i, 1)
		spots = append(spots, Spot{Center: geometry.Point2D{X: cx, Y: cy}, Area: area})
	}

	mask := gocv.NewMatWithSize(thresholded.Rows(), thresholded.Cols(), gocv.MatTypeCV8U)
	for y := 0; y < thresholded.Rows(); y++ {
		for x := 0; x < thresholded.Cols(); x++ {
			label := int(labels.GetIntAt(y, x))
			if label > 0 && survivor[label] {
				mask.SetUCharAt(y, x, 255)
			}
		}
	}
	return spots, mask, nil
}

func extractConnectedComponents(thresholded gocv.Mat, method Method, minArea int) ([]Spot, error) {
	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	nLabels := gocv.ConnectedComponentsWithStats(thresholded, &labels, &stats, &centroids, 8, gocv.MatTypeCV32S)

	switch method {
	case CCGeom:
		var spots []Spot
		for i := 1; i < nLabels; i++ {
			area := int(stats.GetIntAt(i, 4)) // cv::CC_STAT_AREA
			if area <= minArea {
				continue
			}
			cx := centroids.GetDoubleAt(i, 0)
			cy := centroids.GetDoubleAt(i, 1)
			spots = append(spots, Spot{Center: geometry.Point2D{X: cx, Y: cy}, Area: area})
		}
		return spots, nil

	case CCWeighted:
		type acc struct {
			area       int
			sx, sy, sp float64
		}
		accs := make([]acc, nLabels)
		rows, cols := thresholded.Rows(), thresholded.Cols()
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				label := int(labels.GetIntAt(y, x))
				if label == 0 {
					continue
				}
				p := float64(thresholded.GetUCharAt(y, x))
				a := &accs[label]
				a.area++
				a.sx += float64(x) * p
				a.sy += float64(y) * p
				a.sp += p
			}
		}
		var spots []Spot
		for label := 1; label < nLabels; label++ {
			a := accs[label]
			if a.area <= minArea || a.sp == 0 {
				continue
			}
			spots = append(spots, Spot{Center: geometry.Point2D{X: a.sx / a.sp, Y: a.sy / a.sp}, Area: a.area})
		}
		return spots, nil

	default:
		return nil, fmt.Errorf("spot: unreachable method %v", method)
	}
}

