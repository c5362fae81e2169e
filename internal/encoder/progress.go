package encoder

import (
	"regexp"
	"strconv"
)

var timePattern = regexp.MustCompile(`time=(\d{2,}):(\d{2}):(\d{2})`)

// ParseElapsed extracts the elapsed-time marker ffmpeg prints on its
// diagnostic stream (`time=HH:MM:SS`) and converts it to total
// seconds. Returns false when the line carries no marker.
func ParseElapsed(line string) (int, bool) {
	m := timePattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	return hours*3600 + minutes*60 + seconds, true
}

// EncodePercent maps encoder elapsed time onto the 50–95% progress
// band. The last 5% is reserved for finalizing the artifact.
func EncodePercent(elapsed, totalSeconds int) int {
	if totalSeconds <= 0 {
		return 50
	}
	pct := 50 + elapsed*45/totalSeconds
	if pct > 95 {
		pct = 95
	}
	return pct
}
