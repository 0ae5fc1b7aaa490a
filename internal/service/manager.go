// Package service wires captured frames to live viewers and the snapshot buffer.
package service

import (
	"encoding/base64"
	"sync"

	"github.com/bytedance/sonic"
	"gocv.io/x/gocv"

	"aisha/internal/config"
	"aisha/internal/dto"
	"aisha/internal/logger"
	"aisha/internal/service/ai"
	"aisha/internal/service/storage"
)

const queueSize = 16

// Broadcaster is the part of the hub the manager needs.
type Broadcaster interface {
	Broadcast(message []byte)
	GetClientCount() int
}

// Manager hands every Nth annotated frame to a worker pool that encodes it,
// sends it to viewers and buffers it when something was detected.
type Manager struct {
	bufferService    *storage.BufferService
	websocketService Broadcaster
	logger           *logger.Logger

	processingQueue chan FrameTask
	frameCounters   map[string]int
	processEveryNth int
	numWorkers      int

	frameCounterMu sync.Mutex
	stopMu         sync.RWMutex
	stopped        bool
	wg             sync.WaitGroup

	encode func(gocv.Mat) ([]byte, error)
}

// FrameTask is a cloned frame waiting for a worker. The worker closes Frame.
type FrameTask struct {
	Frame      gocv.Mat
	Camera     string
	Detections []dto.DetectionResult
	Status     interface{}
}

// ViewerMessage is what viewers receive over the websocket.
type ViewerMessage struct {
	Camera     string                `json:"camera"`
	Image      string                `json:"image"`
	Detections []dto.DetectionResult `json:"detections"`
	Status     interface{}           `json:"status,omitempty"`
}

// NewManager starts the worker pool. bufferService and websocketService may be nil.
func NewManager(bufferService *storage.BufferService, websocketService Broadcaster, config *config.Config, logger *logger.Logger) *Manager {
	manager := &Manager{
		bufferService:    bufferService,
		websocketService: websocketService,
		numWorkers:       max(config.ProcessingWorkers, 1),
		processingQueue:  make(chan FrameTask, queueSize),
		frameCounters:    make(map[string]int),
		processEveryNth:  max(config.BroadcastEveryNth, 1),
		logger:           logger,
		encode:           ai.EncodeJPEG,
	}

	for i := 0; i < manager.numWorkers; i++ {
		manager.wg.Add(1)
		go manager.processingWorker(i)
	}

	manager.logger.Info("🎬 Manager started - publishing every %d frame(s)", manager.processEveryNth)
	return manager
}

// HandleFrame publishes frame if it is the Nth one for camera. Frames with
// detections are always published. The caller keeps ownership of frame.
func (m *Manager) HandleFrame(frame gocv.Mat, camera string, detections []dto.DetectionResult, status interface{}) bool {
	m.frameCounterMu.Lock()
	m.frameCounters[camera]++
	frameCount := m.frameCounters[camera]
	m.frameCounterMu.Unlock()

	if len(detections) == 0 {
		if frameCount%m.processEveryNth != 0 {
			return false
		}
		if m.websocketService == nil || m.websocketService.GetClientCount() == 0 {
			return false
		}
	}
	m.ResetFrameCounter(camera)

	m.stopMu.RLock()
	defer m.stopMu.RUnlock()
	if m.stopped {
		return false
	}

	task := FrameTask{Frame: frame.Clone(), Camera: camera, Detections: detections, Status: status}
	select {
	case m.processingQueue <- task:
		return true
	default:
		task.Frame.Close()
		m.logger.Warning("⚠️  Processing queue full for camera %s - dropping frame", camera)
		return false
	}
}

func (m *Manager) processingWorker(workerID int) {
	defer m.wg.Done()

	for task := range m.processingQueue {
		m.process(task)
	}

	m.logger.Info("🔧 Processing worker %d stopped", workerID)
}

func (m *Manager) process(task FrameTask) {
	image, err := m.encode(task.Frame)
	task.Frame.Close()
	if err != nil {
		m.logger.Error("Failed to encode frame: %v", err)
		return
	}

	if m.websocketService != nil && m.websocketService.GetClientCount() > 0 {
		m.SendToViewers(image, task)
	}

	if m.bufferService != nil && len(task.Detections) > 0 {
		m.bufferService.AddImage(image, task.Camera, task.Detections)
	}
}

// SendToViewers broadcasts an encoded frame with its detections and status.
func (m *Manager) SendToViewers(image []byte, task FrameTask) {
	detections := task.Detections
	if detections == nil {
		detections = []dto.DetectionResult{}
	}

	msg, err := sonic.Marshal(ViewerMessage{
		Camera:     task.Camera,
		Image:      base64.StdEncoding.EncodeToString(image),
		Detections: detections,
		Status:     task.Status,
	})
	if err != nil {
		m.logger.Error("Failed to encode viewer message: %v", err)
		return
	}

	m.websocketService.Broadcast(msg)
}

// Stop drains the queue and waits for the workers.
func (m *Manager) Stop() {
	m.stopMu.Lock()
	if m.stopped {
		m.stopMu.Unlock()
		return
	}
	m.stopped = true
	close(m.processingQueue)
	m.stopMu.Unlock()

	m.wg.Wait()
	m.logger.Info("🛑 All processing workers stopped")
}

func (m *Manager) ResetFrameCounter(camera string) {
	m.frameCounterMu.Lock()
	m.frameCounters[camera] = 0
	m.frameCounterMu.Unlock()
}

// ToResults converts detector output to the stored/broadcast form.
func ToResults(detections []ai.Detection) []dto.DetectionResult {
	results := make([]dto.DetectionResult, 0, len(detections))
	for _, d := range detections {
		results = append(results, dto.DetectionResult{
			Label:      d.Label,
			Confidence: float64(d.Confidence),
			X:          d.Box.Min.X,
			Y:          d.Box.Min.Y,
			Width:      d.Box.Dx(),
			Height:     d.Box.Dy(),
		})
	}
	return results
}
