package gallery

import (
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"
)

func solid(rows, cols int, v float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), rows, cols, gocv.MatTypeCV8UC3)
}

func TestFit(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
		zoom       float64
		// sample points on the 200x100 canvas and whether they are image
		inside  [][2]int
		outside [][2]int
	}{
		{
			name: "letterboxed square",
			rows: 50, cols: 50, zoom: 1,
			inside:  [][2]int{{100, 50}, {55, 5}},
			outside: [][2]int{{10, 50}, {190, 50}},
		},
		{
			name: "zoomed in fills the canvas",
			rows: 50, cols: 50, zoom: 3,
			inside: [][2]int{{0, 0}, {199, 99}},
		},
		{
			name: "zoomed out shrinks",
			rows: 100, cols: 200, zoom: 0.5,
			inside:  [][2]int{{100, 50}},
			outside: [][2]int{{10, 10}, {100, 10}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := solid(tt.rows, tt.cols, 200)
			defer img.Close()

			out, err := Fit(img, tt.zoom, 200, 100)
			if err != nil {
				t.Fatalf("Fit: %v", err)
			}
			defer out.Close()

			if out.Cols() != 200 || out.Rows() != 100 {
				t.Fatalf("canvas is %dx%d, want 200x100", out.Cols(), out.Rows())
			}
			for _, p := range tt.inside {
				if v := out.GetUCharAt(p[1], p[0]*3); v != 200 {
					t.Errorf("pixel %v = %d, want image", p, v)
				}
			}
			for _, p := range tt.outside {
				if v := out.GetUCharAt(p[1], p[0]*3); v != 0 {
					t.Errorf("pixel %v = %d, want margin", p, v)
				}
			}
		})
	}
}

func TestRender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gray.png")
	img := solid(40, 80, 128)
	defer img.Close()
	if ok := gocv.IMWrite(path, img); !ok {
		t.Skip("OpenCV cannot write PNG here")
	}

	out, err := Render(path, 1, 160, 120)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	defer out.Close()
	if out.Cols() != 160 || out.Rows() != 120 {
		t.Errorf("size %dx%d", out.Cols(), out.Rows())
	}

	if _, err := Render(filepath.Join(t.TempDir(), "missing.png"), 1, 160, 120); err == nil {
		t.Error("expected an error for a missing file")
	}
	if _, err := Render(path, 1, 0, 120); err == nil {
		t.Error("expected an error for a zero canvas")
	}
}
