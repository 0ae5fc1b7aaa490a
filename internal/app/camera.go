package app

import (
	"fmt"

	"gocv.io/x/gocv"

	"aisha/internal/config"
)

// openCamera opens the configured capture device and applies the frame size if set.
func openCamera(cfg *config.Config) (*gocv.VideoCapture, error) {
	camera, err := gocv.OpenVideoCapture(cfg.CameraIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", cfg.CameraIndex, err)
	}
	if !camera.IsOpened() {
		camera.Close()
		return nil, fmt.Errorf("camera %d is not available", cfg.CameraIndex)
	}

	if cfg.FrameWidth > 0 && cfg.FrameHeight > 0 {
		camera.Set(gocv.VideoCaptureFrameWidth, float64(cfg.FrameWidth))
		camera.Set(gocv.VideoCaptureFrameHeight, float64(cfg.FrameHeight))
	}
	return camera, nil
}

// quitPressed shows frame and reports whether q was pressed.
func quitPressed(window *gocv.Window, frame gocv.Mat) bool {
	window.IMShow(frame)
	return window.WaitKey(1)&0xFF == 'q'
}
