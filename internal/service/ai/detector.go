package ai

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"aisha/internal/config"
	"aisha/internal/logger"
)

const (
	// FormatYOLO is an Ultralytics ONNX export.
	FormatYOLO = "yolo"
	// FormatSSD is a TensorFlow/Caffe SSD graph with a separate config file.
	FormatSSD = "ssd"
)

// DetectorService runs a pretrained detection network on camera frames.
type DetectorService struct {
	mutex        sync.Mutex
	net          gocv.Net
	format       string
	names        ClassNames
	inputSize    int
	confidence   float32
	nmsThreshold float32
	logger       *logger.Logger
}

// NewDetectorService loads the network and class names selected by config.
func NewDetectorService(config *config.Config, logger *logger.Logger) (*DetectorService, error) {
	service := &DetectorService{
		format:       config.ModelFormat,
		inputSize:    config.InputSize,
		confidence:   float32(config.ConfidenceThreshold),
		nmsThreshold: float32(config.NMSThreshold),
		logger:       logger,
	}
	if service.inputSize <= 0 {
		service.inputSize = 640
	}

	if config.ClassNamesPath != "" {
		names, err := LoadClassNames(config.ClassNamesPath)
		if err != nil {
			logger.Warning("Using numeric labels: %v", err)
		} else {
			service.names = names
		}
	}

	if err := service.initializeNet(config.ModelPath, config.ModelConfigPath); err != nil {
		return nil, err
	}
	return service, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet(modelPath, configPath string) error {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", modelPath)
	}

	var net gocv.Net
	switch s.format {
	case FormatYOLO, "":
		s.format = FormatYOLO
		net = gocv.ReadNetFromONNX(modelPath)
	case FormatSSD:
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", configPath)
		}
		net = gocv.ReadNet(modelPath, configPath)
	default:
		return fmt.Errorf("unknown model format: %s", s.format)
	}

	if net.Empty() {
		return fmt.Errorf("failed to load network %s", modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	s.logger.Info("Detection network initialized (%s, %d classes known)", s.format, len(s.names))
	return nil
}

// Detect runs the network on a BGR frame and returns labelled, suppressed boxes.
func (s *DetectorService) Detect(frame gocv.Mat) ([]Detection, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("frame is empty")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.net.Empty() {
		return nil, fmt.Errorf("detection network not initialized")
	}

	size := image.Pt(frame.Cols(), frame.Rows())

	var blob gocv.Mat
	if s.format == FormatSSD {
		blob = gocv.BlobFromImage(frame, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	} else {
		blob = gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(s.inputSize, s.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	}
	defer blob.Close()

	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}

	var dets []Detection
	if s.format == FormatSSD {
		dets = DecodeSSD(data, size, s.confidence)
	} else {
		dims := output.Size()
		if len(dims) != 3 {
			return nil, fmt.Errorf("unexpected yolo output shape %v", dims)
		}
		out := YOLOOutput{Data: data, Attributes: dims[1], Anchors: dims[2]}
		if dims[1] > dims[2] {
			out = YOLOOutput{Data: data, Attributes: dims[2], Anchors: dims[1], AnchorMajor: true}
		}
		dets = DecodeYOLO(out, size, s.inputSize, s.confidence)
	}

	dets = NMS(dets, s.nmsThreshold)
	for i := range dets {
		dets[i].Label = s.names.Label(dets[i].ClassID)
	}
	return dets, nil
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.net.Close()
}
