// Package capture reads selfie frames from a camera with GoCV and decides
// how fast the pipeline should sample them.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 5
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEmptyFrame is returned when the device delivered no image.
	ErrEmptyFrame = errors.New("captured frame is empty")
)

// Config selects and shapes the capture device.
type Config struct {
	Device int `yaml:"device" json:"device"`
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
	FPS    int `yaml:"fps" json:"fps"`
	// Mirror flips frames horizontally so the operator sees a mirror image
	// and left/right match their own body.
	Mirror bool `yaml:"mirror" json:"mirror"`
}

// DefaultConfig returns a 640x480 mirrored capture on device 0.
func DefaultConfig() Config {
	return Config{
		Device: 0,
		Width:  DefaultWidth,
		Height: DefaultHeight,
		FPS:    DefaultFPS,
		Mirror: true,
	}
}

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	cfg     Config
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
}

// NewCamera creates a Camera for cfg. Zero sizes and rates fall back to the
// defaults.
func NewCamera(cfg Config) Camera {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	return &cameraImpl{cfg: cfg, fps: cfg.FPS}
}

// Open opens the camera for capturing frames.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.cfg.Device)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.cfg.Device, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources. Closing a closed camera
// is a no-op.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera, mirrored when configured.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, fmt.Errorf("read from camera %d failed", c.cfg.Device)
	}

	if mat.Empty() {
		mat.Close()
		return nil, ErrEmptyFrame
	}

	if c.cfg.Mirror {
		Mirror(&mat)
	}
	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// Mirror flips frame around its vertical axis in place.
func Mirror(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}
	gocv.Flip(*frame, frame, 1)
}
