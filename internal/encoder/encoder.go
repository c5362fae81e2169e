// Package encoder invokes ffmpeg and turns its diagnostic stream into
// progress updates.
package encoder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// excerptLimit bounds how much diagnostic output an EncodingError keeps.
const excerptLimit = 4096

// EncodingError reports a non-zero ffmpeg exit, carrying the tail of
// its diagnostic output for operators.
type EncodingError struct {
	ExitCode int
	Output   string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoder exited with code %d: %s", e.ExitCode, e.Output)
}

// FFmpeg renders reels by spawning the ffmpeg binary.
type FFmpeg struct {
	path string
}

func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path}
}

// Render runs one encode: concat-demuxer input from the manifest, the
// plan's filter chain, and a fixed web-playback profile. The stderr
// stream is drained continuously so ffmpeg never blocks on a full
// pipe; every elapsed-time marker becomes an onProgress call. The
// context deadline kills the process.
func (f *FFmpeg) Render(ctx context.Context, manifestPath, filter string, totalSeconds int, outputPath string, onProgress func(percent int)) error {
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-r", "30",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, f.path, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open encoder stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start encoder: %w", err)
	}

	var tail bytes.Buffer
	scanner := bufio.NewScanner(stderr)
	scanner.Split(scanProgressLines)
	for scanner.Scan() {
		line := scanner.Text()
		appendTail(&tail, line)
		if elapsed, ok := ParseElapsed(line); ok && onProgress != nil {
			onProgress(EncodePercent(elapsed, totalSeconds))
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		code := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
		return &EncodingError{ExitCode: code, Output: tail.String()}
	}
	return nil
}

// scanProgressLines splits on \n and \r: ffmpeg rewrites its progress
// line with bare carriage returns.
func scanProgressLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func appendTail(tail *bytes.Buffer, line string) {
	if line == "" {
		return
	}
	tail.WriteString(line)
	tail.WriteByte('\n')
	if tail.Len() > excerptLimit {
		trimmed := tail.Bytes()[tail.Len()-excerptLimit:]
		rest := make([]byte, len(trimmed))
		copy(rest, trimmed)
		tail.Reset()
		tail.Write(rest)
	}
}
