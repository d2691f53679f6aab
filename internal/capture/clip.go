// Package capture decodes recorded swing clips into frames using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// DefaultFPS is assumed when a container does not report its frame rate.
const DefaultFPS = 30.0

var (
	// ErrSourceNotOpen is returned when reading from a source that is not open.
	ErrSourceNotOpen = errors.New("source is not open")
	// ErrEndOfClip is returned once every frame has been read.
	ErrEndOfClip = errors.New("end of clip")
)

// Source defines the interface for frame sources.
type Source interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller closes the returned Mat.
	ReadFrame() (*gocv.Mat, error)
	FPS() float64
	IsOpen() bool
}

// Clip reads frames from a video file.
type Clip struct {
	path    string
	capture *gocv.VideoCapture
	mu      sync.Mutex
	fps     float64
	frames  int
}

// NewClip creates a Clip for the video file at path.
func NewClip(path string) *Clip {
	return &Clip{path: path, fps: DefaultFPS}
}

// Path returns the file the clip reads from.
func (c *Clip) Path() string {
	return c.path
}

// Open opens the video file and reads its frame rate.
func (c *Clip) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	capture, err := gocv.VideoCaptureFile(c.path)
	if err != nil {
		return fmt.Errorf("open clip %s: %w", c.path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open clip %s: unsupported or missing file", c.path)
	}

	if fps := capture.Get(gocv.VideoCaptureFPS); fps > 0 {
		c.fps = fps
	}
	c.frames = int(capture.Get(gocv.VideoCaptureFrameCount))
	c.capture = capture

	return nil
}

// Close releases the decoder.
func (c *Clip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	return err
}

// ReadFrame decodes the next frame.
// The caller is responsible for closing the returned Mat.
func (c *Clip) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrSourceNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrEndOfClip
	}

	return &mat, nil
}

// FPS returns the clip frame rate, or DefaultFPS when unknown.
func (c *Clip) FPS() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// FrameCount returns the frame count reported by the container. It is
// zero before Open and may be an estimate for some formats.
func (c *Clip) FrameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.frames
}

// IsOpen returns true if the clip is open for reading.
func (c *Clip) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.capture != nil
}
