package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// streamStdout runs ffmpeg with raw output on stdout and hands the stream to
// consume. Stderr is kept to a short tail for error reporting. Memory use is
// bounded by the consumer's read buffer, not by media length.
func (e *Executor) streamStdout(ctx context.Context, args []string, consume func(r io.Reader) error) error {
	full := append([]string{"-v", "error", "-nostdin"}, args...)

	e.logger.Debug().Strs("args", full).Msg("streaming ffmpeg output")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, full...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	consumeErr := consume(stdout)
	// Drain whatever the consumer left so the process can exit.
	_, _ = io.Copy(io.Discard, stdout)

	waitErr := cmd.Wait()
	if consumeErr != nil {
		return consumeErr
	}
	if waitErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg stream failed: %w: %s", waitErr, stderrTail(stderr.String()))
	}
	return nil
}

func stderrTail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, "; ")
}

// StreamAudio decodes the audio track to mono signed 16-bit PCM at the given
// sample rate and feeds the samples to fn in bounded chunks.
func (e *Executor) StreamAudio(ctx context.Context, input string, sampleRate int, fn func(samples []int16) error) error {
	args := []string{
		"-i", input,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", "1",
		"-f", "s16le",
		"pipe:1",
	}

	return e.streamStdout(ctx, args, func(r io.Reader) error {
		raw := make([]byte, 64*1024)
		samples := make([]int16, len(raw)/2)

		for {
			n, readErr := io.ReadFull(r, raw)
			count := n / 2 // a trailing odd byte only appears on a truncated stream
			for i := 0; i < count; i++ {
				samples[i] = int16(binary.LittleEndian.Uint16(raw[2*i : 2*i+2]))
			}
			if count > 0 {
				if err := fn(samples[:count]); err != nil {
					return err
				}
			}
			if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
				return nil
			}
			if readErr != nil {
				return fmt.Errorf("read pcm stream: %w", readErr)
			}
		}
	})
}

// StreamGrayFrames decodes video to grayscale rawvideo frames at the given
// sampling fps and spatial resolution, feeding one frame at a time to fn.
// The frame buffer is reused between calls.
func (e *Executor) StreamGrayFrames(ctx context.Context, input string, fps float64, width, height int, fn func(frame []byte) error) error {
	args := []string{
		"-i", input,
		"-an",
		"-vf", fmt.Sprintf("fps=%g,scale=%d:%d", fps, width, height),
		"-pix_fmt", "gray",
		"-f", "rawvideo",
		"pipe:1",
	}

	frameSize := width * height
	return e.streamStdout(ctx, args, func(r io.Reader) error {
		frame := make([]byte, frameSize)
		for {
			_, err := io.ReadFull(r, frame)
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read frame stream: %w", err)
			}
			if err := fn(frame); err != nil {
				return err
			}
		}
	})
}
