// Package reel builds the encoder directive set for a highlight reel:
// the concat manifest and the ffmpeg filter chain. Everything here is
// pure; writing the manifest to disk is the caller's job.
package reel

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/eventlens/api/internal/model"
)

// Slide is one manifest entry: an asset shown for a fixed duration.
type Slide struct {
	Path     string
	Duration int
}

// Plan is the deterministic encoder directive set for one job.
type Plan struct {
	Slides []Slide
	Filter string
	Width  int
	Height int
}

// TotalSeconds is the nominal output length, used to scale encoder
// progress.
func (p *Plan) TotalSeconds() int {
	total := 0
	for _, s := range p.Slides {
		total += s.Duration
	}
	return total
}

// Dimensions maps a resolution preset to its exact canvas size.
// Unknown presets fall back to 1080p.
func Dimensions(res model.Resolution) (width, height int) {
	switch res {
	case model.Resolution720p:
		return 1280, 720
	case model.Resolution4K:
		return 3840, 2160
	default:
		return 1920, 1080
	}
}

// Build produces the plan for the given materialized asset paths and
// options. Same inputs, same plan.
func Build(paths []string, opts model.RenderOptions) *Plan {
	w, h := Dimensions(opts.Resolution)

	slides := make([]Slide, 0, len(paths))
	for _, p := range paths {
		slides = append(slides, Slide{Path: p, Duration: opts.Duration})
	}

	return &Plan{
		Slides: slides,
		Filter: buildFilter(w, h, opts),
		Width:  w,
		Height: h,
	}
}

// Manifest renders the ffmpeg concat-demuxer input. Entries use base
// names, so the manifest must live in the same directory as the
// assets. The final file is repeated without a duration so the last
// slide holds for its full display time.
func (p *Plan) Manifest() string {
	var b strings.Builder
	for _, s := range p.Slides {
		fmt.Fprintf(&b, "file '%s'\n", filepath.Base(s.Path))
		fmt.Fprintf(&b, "duration %d\n", s.Duration)
	}
	if n := len(p.Slides); n > 0 {
		fmt.Fprintf(&b, "file '%s'\n", filepath.Base(p.Slides[n-1].Path))
	}
	return b.String()
}

func buildFilter(w, h int, opts model.RenderOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scale=%d:%d:force_original_aspect_ratio=decrease", w, h)
	fmt.Fprintf(&b, ",pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black", w, h)

	switch opts.Transition {
	case model.TransitionFade:
		fadeOut := float64(opts.Duration) - 0.5
		fmt.Fprintf(&b, ",fade=t=in:st=0:d=0.5,fade=t=out:st=%.1f:d=0.5", fadeOut)
	case model.TransitionZoom:
		// Slow Ken Burns zoom; frame budget comes from the slide
		// duration at 25 fps.
		fmt.Fprintf(&b, ",zoompan=z='min(zoom+0.0015,1.5)':d=%d:s=%dx%d:fps=25",
			25*opts.Duration, w, h)
	}

	return b.String()
}
