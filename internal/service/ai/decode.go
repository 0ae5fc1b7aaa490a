package ai

import (
	"image"
	"sort"
)

// Detection is one object found in a frame. Box is in frame pixels.
type Detection struct {
	Label      string
	ClassID    int
	Confidence float32
	Box        image.Rectangle
}

// YOLOOutput describes a raw YOLOv8 head: Attributes = 4 box values + one score
// per class, one column per anchor. AnchorMajor is set for exports that put
// anchors first ([1, N, 4+C]).
type YOLOOutput struct {
	Data        []float32
	Attributes  int
	Anchors     int
	AnchorMajor bool
}

func (o YOLOOutput) at(attr, anchor int) float32 {
	if o.AnchorMajor {
		return o.Data[anchor*o.Attributes+attr]
	}
	return o.Data[attr*o.Anchors+anchor]
}

// DecodeYOLO keeps the best class of every anchor scoring at least minConfidence.
// Boxes are predicted in inputSize pixels and scaled to the frame.
func DecodeYOLO(out YOLOOutput, frame image.Point, inputSize int, minConfidence float32) []Detection {
	classes := out.Attributes - 4
	if classes <= 0 || out.Anchors <= 0 || len(out.Data) < out.Attributes*out.Anchors || inputSize <= 0 {
		return nil
	}

	sx := float32(frame.X) / float32(inputSize)
	sy := float32(frame.Y) / float32(inputSize)
	bounds := image.Rect(0, 0, frame.X, frame.Y)

	var dets []Detection
	for a := 0; a < out.Anchors; a++ {
		best, bestScore := -1, float32(0)
		for c := 0; c < classes; c++ {
			if s := out.at(4+c, a); s > bestScore {
				best, bestScore = c, s
			}
		}
		if best < 0 || bestScore < minConfidence {
			continue
		}

		cx, cy := out.at(0, a), out.at(1, a)
		w, h := out.at(2, a), out.at(3, a)
		box := image.Rect(
			int((cx-w/2)*sx), int((cy-h/2)*sy),
			int((cx+w/2)*sx), int((cy+h/2)*sy),
		).Intersect(bounds)
		if box.Empty() {
			continue
		}

		dets = append(dets, Detection{ClassID: best, Confidence: bestScore, Box: box})
	}
	return dets
}

// DecodeSSD parses [1, 1, N, 7] rows of [batch, class, confidence, x1, y1, x2, y2]
// with normalised corner coordinates.
func DecodeSSD(data []float32, frame image.Point, minConfidence float32) []Detection {
	bounds := image.Rect(0, 0, frame.X, frame.Y)
	fw, fh := float32(frame.X), float32(frame.Y)

	var dets []Detection
	for i := 0; i+7 <= len(data); i += 7 {
		row := data[i : i+7]
		if row[2] < minConfidence {
			continue
		}
		box := image.Rect(int(row[3]*fw), int(row[4]*fh), int(row[5]*fw), int(row[6]*fh)).Intersect(bounds)
		if box.Empty() {
			continue
		}
		dets = append(dets, Detection{ClassID: int(row[1]), Confidence: row[2], Box: box})
	}
	return dets
}

// IoU returns the intersection over union of two boxes.
func IoU(a, b image.Rectangle) float32 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := area(inter)
	union := area(a) + area(b) - ia
	if union <= 0 {
		return 0
	}
	return float32(ia) / float32(union)
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

// NMS drops boxes overlapping a more confident box of the same class by more
// than threshold. The result is sorted by confidence, highest first.
func NMS(dets []Detection, threshold float32) []Detection {
	sorted := make([]Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]Detection, 0, len(sorted))
	for _, d := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.ClassID == d.ClassID && IoU(k.Box, d.Box) > threshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, d)
		}
	}
	return kept
}
