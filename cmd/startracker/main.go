// Command startracker runs one capture-to-identification pass: load a raw
// image and a lens calibration, extract spots, project them to unit
// vectors, and identify them against a catalog back-end.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"startracker"
	"startracker/internal/identify"
	"startracker/internal/spot"
	"startracker/internal/version"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 6 {
		fmt.Fprintf(os.Stderr, "usage: %s <image> <rows> <cols> <calibration> <catalog.db | kvector.txt> [debug-mask.tiff]\n", os.Args[0])
		os.Exit(1)
	}

	log.Printf("startracker %s (%s, %s)", version.Version, version.GitCommit, version.BuildTime)

	imagePath := os.Args[1]
	rows, err := strconv.Atoi(os.Args[2])
	if err != nil {
		log.Printf("bad rows: %v", err)
		os.Exit(1)
	}
	cols, err := strconv.Atoi(os.Args[3])
	if err != nil {
		log.Printf("bad cols: %v", err)
		os.Exit(1)
	}
	calibPath := os.Args[4]
	catalogPath := os.Args[5]
	debugMaskPath := ""
	if len(os.Args) > 6 {
		debugMaskPath = os.Args[6]
	}

	if err := run(imagePath, rows, cols, calibPath, catalogPath, debugMaskPath); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func run(imagePath string, rows, cols int, calibPath, catalogPath, debugMaskPath string) error {
	s := startracker.NewSession()
	defer s.Close()

	if err := s.LoadImage(imagePath, rows, cols); err != nil {
		return fmt.Errorf("loading image: %w", err)
	}
	if err := s.LoadCalibration(calibPath); err != nil {
		return fmt.Errorf("loading calibration: %w", err)
	}

	spots, err := s.Extract(spot.CCWeighted)
	if err != nil {
		return fmt.Errorf("extracting spots: %w", err)
	}
	log.Printf("extracted %d spots", len(spots))
	if len(spots) == 0 {
		log.Printf("resolved 0/0 spots")
		return nil
	}

	vectors, err := s.ProjectSpots(spots)
	if err != nil {
		return fmt.Errorf("projecting spots: %w", err)
	}

	method := identify.PyramidIndexed
	if isKVectorFile(catalogPath) {
		if err := s.LoadKVector(catalogPath); err != nil {
			return fmt.Errorf("loading k-vector catalog: %w", err)
		}
		method = identify.PyramidKVector
	} else {
		if err := s.LoadCatalogStore(catalogPath); err != nil {
			return fmt.Errorf("loading catalog store: %w", err)
		}
	}

	ids, err := s.Identify(vectors, 0.1, method)
	if err != nil {
		return fmt.Errorf("identifying: %w", err)
	}

	resolved := 0
	for i, id := range ids {
		if id >= 0 {
			resolved++
		}
		log.Printf("spot %d -> catalog id %d", i, id)
	}
	log.Printf("resolved %d/%d spots", resolved, len(ids))

	if debugMaskPath != "" {
		n, err := s.SaveDebugMask(debugMaskPath)
		if err != nil {
			return fmt.Errorf("saving debug mask: %w", err)
		}
		log.Printf("wrote debug mask (%d surviving components) to %s", n, debugMaskPath)
	}
	return nil
}

// isKVectorFile reports whether path names a plain-text k-vector file
// (".txt" suffix); any other path is opened as a SQLite catalog.
func isKVectorFile(path string) bool {
	n := len(path)
	return n >= 4 && path[n-4:] == ".txt"
}
