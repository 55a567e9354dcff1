package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// ServiceScript is the file name of the Python tracker service.
const ServiceScript = "tracker_service.py"

// ErrScriptNotFound is returned when the tracker service script cannot be located.
var ErrScriptNotFound = errors.New(ServiceScript + " not found")

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess
// running the hands and pose solutions on every frame.
//
// Protocol: each frame is written to stdin as a 4-byte big-endian length
// followed by JPEG bytes; the service answers with one JSON line.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
	idleTimer  *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := config.ScriptPath
	if scriptPath == "" {
		scriptPath = findServiceScript()
	}
	if scriptPath == "" {
		return nil, ErrScriptNotFound
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("tracker script: %w", err)
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
	}, nil
}

// Detect sends a frame to the tracker service and returns the observation.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (Observation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return Observation{Timestamp: time.Now()}, nil
	}

	if err := d.ensureStarted(); err != nil {
		return Observation{}, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return Observation{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		d.abort()
		return Observation{}, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		d.abort()
		return Observation{}, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		d.abort()
		return Observation{}, fmt.Errorf("read response: %w", err)
	}

	obs, err := parseResponse(line, d.config.SwapPoseSides)
	if err != nil {
		return Observation{}, err
	}
	obs.Timestamp = time.Now()

	d.resetIdleTimer()
	return obs, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.scriptPath,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start tracker service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	return nil
}

// abort tears the process down after a broken pipe so the next frame
// starts a fresh one.
func (d *MediaPipeDetector) abort() {
	if d.cmd != nil && d.cmd.Process != nil {
		d.cmd.Process.Kill()
	}
	d.shutdown()
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.config.IdleShutdown <= 0 {
		return
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(d.config.IdleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findServiceScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", ServiceScript),
		filepath.Join("..", "scripts", ServiceScript),
		filepath.Join(execDir, "scripts", ServiceScript),
		filepath.Join(os.Getenv("HOME"), ".mudra", "scripts", ServiceScript),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".mudra/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// jsonResponse is the JSON line written by the tracker service.
type jsonResponse struct {
	Hands []jsonHand `json:"hands"`
	Pose  *jsonPose  `json:"pose"`
}

type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

type jsonPose struct {
	Points []Point3D `json:"points"`
	Score  float64   `json:"score"`
}

// parseResponse converts one service line into an Observation. When more than
// one hand claims the same side, the higher score wins.
func parseResponse(line []byte, swapPoseSides bool) (Observation, error) {
	var resp jsonResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return Observation{}, fmt.Errorf("parse response: %w", err)
	}

	var obs Observation
	for _, h := range resp.Hands {
		set := &LandmarkSet{Points: h.Points, Score: h.Score}
		switch h.Handedness {
		case "Right", "right":
			set.Kind = KindRight
			if obs.Right == nil || set.Score > obs.Right.Score {
				obs.Right = set
			}
		case "Left", "left":
			set.Kind = KindLeft
			if obs.Left == nil || set.Score > obs.Left.Score {
				obs.Left = set
			}
		}
	}

	if resp.Pose != nil && len(resp.Pose.Points) > 0 {
		pose := LandmarkSet{Kind: KindPose, Points: resp.Pose.Points, Score: resp.Pose.Score}
		if swapPoseSides {
			pose = pose.SwapSides()
		}
		obs.Pose = &pose
	}

	return obs, nil
}
