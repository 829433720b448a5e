package entity

// FrameTypeCounts maps each frame type to the number of frames observed.
type FrameTypeCounts map[FrameType]int

func (c FrameTypeCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// FrameTypePercentages maps each frame type to its share of all frames, 0..100.
type FrameTypePercentages map[FrameType]float64

type FrameDistribution struct {
	Counts      FrameTypeCounts      `json:"counts"`
	Percentages FrameTypePercentages `json:"percentages"`
	Total       int                  `json:"total"`
}

// SizeReport summarises the image files extracted for one frame type.
type SizeReport struct {
	FrameType    FrameType `json:"frame_type"`
	Count        int       `json:"count"`
	TotalBytes   int64     `json:"total_bytes"`
	AverageBytes float64   `json:"average_bytes"`
}

func (r SizeReport) TotalKB() float64 {
	return float64(r.TotalBytes) / 1024
}

func (r SizeReport) AverageKB() float64 {
	return r.AverageBytes / 1024
}

// SizeComparison ranks frame types by average image size. Leaders holds every
// type sharing the largest average; Winner is set only when there is exactly
// one leader.
type SizeComparison struct {
	Reports   []SizeReport `json:"reports"`
	Leaders   []FrameType  `json:"leaders"`
	Winner    FrameType    `json:"winner,omitempty"`
	HasWinner bool         `json:"has_winner"`
}

// ExtractionSummary records where one frame type was extracted to.
type ExtractionSummary struct {
	FrameType  FrameType `json:"frame_type"`
	Directory  string    `json:"directory"`
	FrameCount int       `json:"frame_count"`
	FramePaths []string  `json:"-"`
}

// AnalysisReport is everything a single pipeline run produced.
type AnalysisReport struct {
	VideoPath          string              `json:"video_path"`
	Stream             StreamInfo          `json:"stream"`
	Distribution       FrameDistribution   `json:"distribution"`
	Extractions        []ExtractionSummary `json:"extractions"`
	Sizes              SizeComparison      `json:"sizes"`
	ReconstructedVideo string              `json:"reconstructed_video,omitempty"`
}

func (r *AnalysisReport) Extraction(t FrameType) (ExtractionSummary, bool) {
	for _, e := range r.Extractions {
		if e.FrameType == t {
			return e, true
		}
	}
	return ExtractionSummary{}, false
}
