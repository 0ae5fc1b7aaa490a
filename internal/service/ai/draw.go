package ai

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var boxColor = color.RGBA{G: 255, A: 255}

// DrawDetections draws a 2 px box and "<label> <confidence>" above each detection.
func DrawDetections(mat *gocv.Mat, detections []Detection) error {
	for _, detection := range detections {
		if err := gocv.Rectangle(mat, detection.Box, boxColor, 2); err != nil {
			return fmt.Errorf("failed to draw rectangle: %w", err)
		}

		label := fmt.Sprintf("%s %.2f", detection.Label, detection.Confidence)
		pt := image.Pt(detection.Box.Min.X, detection.Box.Min.Y-10)
		if err := gocv.PutText(mat, label, pt, gocv.FontHersheySimplex, 0.5, boxColor, 2); err != nil {
			return fmt.Errorf("failed to draw text: %w", err)
		}
	}
	return nil
}

// EncodeJPEG returns a copy of the frame encoded as JPEG.
func EncodeJPEG(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	finalImage := make([]byte, buf.Len())
	copy(finalImage, buf.GetBytes())
	return finalImage, nil
}
