package wheel

import (
	"strings"

	"github.com/ashureev/mischief-wheel/internal/domain"
)

// segmentPalette cycles across segments in wheel order.
var segmentPalette = []string{
	"#c41e3a", // crimson
	"#ff8c00", // dark orange
	"#8b008b", // dark magenta
	"#ff6347", // tomato
	"#9932cc", // dark orchid
	"#ff7f50", // coral
	"#8b0000", // dark red
	"#ff4500", // orange red
	"#660099", // purple
	"#ff8800", // orange
	"#cc00cc", // magenta
	"#ff3300", // bright red
}

const labelWords = 3

// Segment describes where a challenge sits on the wheel.
type Segment struct {
	Index       int     `json:"index"`
	ChallengeID int     `json:"challenge_id"`
	StartAngle  float64 `json:"start_angle"`
	EndAngle    float64 `json:"end_angle"`
	MidAngle    float64 `json:"mid_angle"`
	Label       string  `json:"label"`
	Color       string  `json:"color"`
}

// Layout returns one segment per challenge, starting at angle 0 and
// proceeding clockwise in list order.
func Layout(set *domain.ChallengeSet) []Segment {
	size := SegmentSize(set.Len())
	segments := make([]Segment, set.Len())
	for i, c := range set.All() {
		start := float64(i) * size
		segments[i] = Segment{
			Index:       i,
			ChallengeID: c.ID,
			StartAngle:  start,
			EndAngle:    start + size,
			MidAngle:    start + size/2,
			Label:       label(c.Text),
			Color:       segmentPalette[i%len(segmentPalette)],
		}
	}
	return segments
}

func label(text string) string {
	words := strings.Fields(text)
	if len(words) > labelWords {
		words = words[:labelWords]
	}
	return strings.Join(words, "\n")
}
