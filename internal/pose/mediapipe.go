package pose

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// MediaPipeEstimator implements Estimator using a Python MediaPipe Pose subprocess.
//
// Protocol: each request is a 4-byte big-endian length followed by a JPEG
// frame; each response is one JSON line.
type MediaPipeEstimator struct {
	config  Config
	script  string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	mu      sync.Mutex
	started bool
}

// NewMediaPipeEstimator creates a new MediaPipe estimator.
// The Python process is started lazily on first estimation.
func NewMediaPipeEstimator(config Config) (*MediaPipeEstimator, error) {
	scriptPath := findPoseScript()
	if scriptPath == "" {
		return nil, fmt.Errorf("pose_service.py not found")
	}

	return &MediaPipeEstimator{
		config: config,
		script: scriptPath,
	}, nil
}

// Estimate sends a frame to the pose service and returns the body landmarks.
func (e *MediaPipeEstimator) Estimate(frame *gocv.Mat) ([NumLandmarks]Landmark, error) {
	var out [NumLandmarks]Landmark

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureStarted(); err != nil {
		return out, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return out, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := e.stdin.Write(length); err != nil {
		return out, fmt.Errorf("write length: %w", err)
	}
	if _, err := e.stdin.Write(data); err != nil {
		return out, fmt.Errorf("write data: %w", err)
	}

	line, err := e.stdout.ReadString('\n')
	if err != nil {
		return out, fmt.Errorf("read response: %w", err)
	}

	return parsePoseResponse([]byte(line))
}

// Close shuts down the Python process.
func (e *MediaPipeEstimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil
	}

	if e.stdin != nil {
		e.stdin.Close()
	}

	err := e.cmd.Wait()
	e.started = false
	e.cmd = nil
	e.stdin = nil
	e.stdout = nil

	return err
}

func (e *MediaPipeEstimator) ensureStarted() error {
	if e.started {
		return nil
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	e.cmd = exec.Command(pythonPath, e.script,
		"--model-complexity", strconv.Itoa(e.config.ModelComplexity),
		"--min-detection-confidence", strconv.FormatFloat(e.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(e.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	e.cmd.Stderr = os.Stderr

	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	e.stdin = stdin
	e.stdout = bufio.NewReader(stdout)
	e.started = true

	return nil
}

// poseResponse is the JSON line written by the pose service.
type poseResponse struct {
	Detected  bool           `json:"detected"`
	Landmarks []poseLandmark `json:"landmarks"`
}

type poseLandmark struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// parsePoseResponse converts a service response line into landmarks.
// Landmarks outside the tracked set are dropped.
func parsePoseResponse(line []byte) ([NumLandmarks]Landmark, error) {
	var out [NumLandmarks]Landmark

	var resp poseResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return out, fmt.Errorf("parse response: %w", err)
	}
	if !resp.Detected {
		return out, ErrNoPerson
	}

	for _, pl := range resp.Landmarks {
		id, ok := ParseID(pl.Name)
		if !ok {
			continue
		}
		out[id] = Landmark{
			Point3D:    Point3D{X: pl.X, Y: pl.Y, Z: pl.Z},
			Confidence: pl.Visibility,
		}
	}

	return out, nil
}

func findPoseScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/pose_service.py",
		"../scripts/pose_service.py",
		filepath.Join(execDir, "scripts/pose_service.py"),
		filepath.Join(os.Getenv("HOME"), ".swingscope/scripts/pose_service.py"),
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
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".swingscope/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
