package analysis

import (
	"fmt"
	"strings"

	"github.com/fiapx/fiapx-frametype-service/internal/domain/entity"
)

// CompareSizes finds the frame type(s) with the largest average image size.
// A winner is reported only when one type is strictly larger than all others.
func CompareSizes(reports ...entity.SizeReport) entity.SizeComparison {
	cmp := entity.SizeComparison{Reports: reports}
	if len(reports) == 0 {
		return cmp
	}

	best := reports[0].AverageBytes
	for _, r := range reports[1:] {
		if r.AverageBytes > best {
			best = r.AverageBytes
		}
	}
	for _, r := range reports {
		if r.AverageBytes == best {
			cmp.Leaders = append(cmp.Leaders, r.FrameType)
		}
	}

	if len(cmp.Leaders) == 1 {
		cmp.Winner = cmp.Leaders[0]
		cmp.HasWinner = true
	}
	return cmp
}

// ReportLine renders one size report the way the lab printed it.
func ReportLine(r entity.SizeReport) string {
	return fmt.Sprintf("%s Frames: %d frames, Total Size: %.2f KB, Average Size: %.2f KB",
		r.FrameType, r.Count, r.TotalKB(), r.AverageKB())
}

// Conclusion states which frame type compresses least, or that none stands out.
func Conclusion(cmp entity.SizeComparison) string {
	if cmp.HasWinner {
		return fmt.Sprintf("%s Frames have the largest average size, indicating lower compression.", cmp.Winner)
	}
	if len(cmp.Leaders) == 0 {
		return "No frame sizes to compare."
	}

	names := make([]string, len(cmp.Leaders))
	for i, t := range cmp.Leaders {
		names[i] = t.String()
	}
	return fmt.Sprintf("No distinguishable winner: %s Frames share the largest average size.", strings.Join(names, ", "))
}
