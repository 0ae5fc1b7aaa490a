package flight

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"

	"aisha/internal/logger"
)

// Attitude is one line from the ESP32 MPU6050 board.
type Attitude struct {
	Roll  float64
	Pitch float64
	Yaw   float64
	At    time.Time
}

// ParseAttitude parses "roll\tpitch\tyaw" as printed by the board.
func ParseAttitude(line string) (Attitude, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Attitude{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}

	var values [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Attitude{}, fmt.Errorf("invalid value %q: %w", f, err)
		}
		values[i] = v
	}

	return Attitude{Roll: values[0], Pitch: values[1], Yaw: values[2]}, nil
}

// IMU keeps the latest attitude read from a serial port.
type IMU struct {
	mu     sync.RWMutex
	latest Attitude
	ok     bool
	port   io.ReadCloser
	logger *logger.Logger
}

// OpenIMU opens the serial port the board is attached to.
func OpenIMU(name string, baud int, logger *logger.Logger) (*IMU, error) {
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open imu port %s: %w", name, err)
	}
	return NewIMU(port, logger), nil
}

// NewIMU wraps an already open line stream.
func NewIMU(port io.ReadCloser, logger *logger.Logger) *IMU {
	return &IMU{port: port, logger: logger}
}

// Run reads lines until ctx is cancelled or the port fails.
// The port is closed when Run returns.
func (i *IMU) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		i.port.Close()
	}()

	scanner := bufio.NewScanner(i.port)
	bad := 0
	for scanner.Scan() {
		att, err := ParseAttitude(scanner.Text())
		if err != nil {
			// Partial lines are normal right after opening the port.
			bad++
			if bad%100 == 1 {
				i.logger.Warning("IMU: %v", err)
			}
			continue
		}
		att.At = time.Now()

		i.mu.Lock()
		i.latest = att
		i.ok = true
		i.mu.Unlock()
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("imu read failed: %w", err)
	}
	return nil
}

// Latest returns the most recent attitude, false before the first line.
func (i *IMU) Latest() (Attitude, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.latest, i.ok
}
