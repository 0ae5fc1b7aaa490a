package app

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"

	"aisha/internal/route"
	"aisha/internal/service"
	"aisha/internal/service/ai"
	"aisha/internal/service/storage"
)

const detectWindow = "Military Aircraft Detection"

// RunDetect shows the webcam with detected objects boxed until q is pressed.
// Frames with detections are saved as snapshots and, with the viewer
// enabled, every Nth frame is streamed to browsers.
func (a *App) RunDetect(ctx context.Context) error {
	detector, err := ai.NewDetectorService(a.config, a.logger)
	if err != nil {
		return err
	}
	defer detector.Close()

	camera, err := openCamera(a.config)
	if err != nil {
		return err
	}
	defer camera.Close()

	window := gocv.NewWindow(detectWindow)
	defer window.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	buffer := storage.NewBufferService(a.config, a.logger, a.events.Session(), a.snapshots, a.detections)
	g.Go(func() error {
		return buffer.Run(gctx)
	})

	hub := a.startViewer(gctx, g, route.Dependencies{})
	manager := service.NewManager(buffer, broadcaster(hub), a.config, a.logger)

	a.logger.Info("🤖 Detecting with %s (%s), session %s", a.config.ModelPath, a.config.ModelFormat, a.events.Session())
	loopErr := a.detectLoop(gctx, camera, window, detector, manager)

	// Workers hand their last frames to the buffer before it flushes on cancel.
	manager.Stop()
	cancel()
	if err := g.Wait(); err != nil && loopErr == nil {
		loopErr = err
	}
	return loopErr
}

func (a *App) detectLoop(ctx context.Context, camera *gocv.VideoCapture, window *gocv.Window, detector *ai.DetectorService, manager *service.Manager) error {
	frame := gocv.NewMat()
	defer frame.Close()

	for ctx.Err() == nil {
		if ok := camera.Read(&frame); !ok || frame.Empty() {
			return fmt.Errorf("failed to read frame from camera %d", a.config.CameraIndex)
		}

		detections, err := detector.Detect(frame)
		if err != nil {
			a.logger.Error("Detection failed: %v", err)
		} else if err := ai.DrawDetections(&frame, detections); err != nil {
			a.logger.Error("Failed to draw detections: %v", err)
		}

		manager.HandleFrame(frame, a.config.CameraName, service.ToResults(detections), nil)

		if quitPressed(window, frame) {
			return nil
		}
	}
	return nil
}
