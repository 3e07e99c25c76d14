package ffmpeg

import (
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func discardExecutor() *Executor {
	return &Executor{logger: zerolog.New(io.Discard)}
}

func TestStreamOutputParsesProgressBlocks(t *testing.T) {
	stderr := strings.Join([]string{
		"frame=120",
		"fps=59.8",
		"time=00:00:02.00",
		"speed=1.99x",
		"progress=continue",
		"frame=240",
		"fps=60.0",
		"time=00:00:04.00",
		"speed=2.01x",
		"progress=end",
	}, "\n")

	var got []Progress
	discardExecutor().streamOutput(strings.NewReader(stderr), func(p *Progress) {
		got = append(got, *p)
	}, nil)

	if len(got) != 2 {
		t.Fatalf("got %d progress blocks, want 2", len(got))
	}
	if got[0].Frame != 120 || got[0].FPS != 59.8 {
		t.Errorf("block 0 = frame %d fps %g, want 120/59.8", got[0].Frame, got[0].FPS)
	}
	if got[0].Time != "00:00:02.00" || got[0].Speed != "1.99x" {
		t.Errorf("block 0 = time %q speed %q, want 00:00:02.00/1.99x", got[0].Time, got[0].Speed)
	}
	if got[1].Frame != 240 {
		t.Errorf("block 1 frame = %d, want 240", got[1].Frame)
	}
}

func TestStreamOutputSkipsEmptyBlocks(t *testing.T) {
	// Progress markers without a frame count carry nothing worth reporting.
	fired := 0
	discardExecutor().streamOutput(strings.NewReader("progress=end\n"), func(p *Progress) {
		fired++
	}, nil)
	if fired != 0 {
		t.Errorf("handler fired %d times on an empty block, want 0", fired)
	}
}

func TestStreamOutputForwardsLogLines(t *testing.T) {
	var lines []string
	discardExecutor().streamOutput(strings.NewReader("Input #0, matroska\nStream #0:0: Video: h264\n"), nil, func(line string) {
		lines = append(lines, line)
	})
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2", len(lines))
	}
	if lines[0] != "Input #0, matroska" {
		t.Errorf("lines[0] = %q", lines[0])
	}
}
