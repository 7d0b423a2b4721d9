package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/geonodes/pkg/pipeline"
)

const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates the current pipeline stage on one terminal line.
// The line is redrawn on every tick and whenever the stage changes.
type spinner struct {
	w       io.Writer
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once

	mu      sync.Mutex
	message string
	frame   int
	width   int // widest line drawn so far
	started bool
	done    bool
}

// newSpinner creates a spinner that writes to w and stops animating when ctx
// is cancelled.
func newSpinner(ctx context.Context, w io.Writer, message string) *spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &spinner{
		w:       w,
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
		message: message,
	}
}

// stageMessage is the spinner text for a pipeline stage.
func stageMessage(stage pipeline.Stage, detail string) string {
	switch stage {
	case pipeline.StageLoad:
		return fmt.Sprintf("Loading %s...", detail)
	case pipeline.StageApply:
		return fmt.Sprintf("Building %s...", detail)
	case pipeline.StageRender:
		return fmt.Sprintf("Rendering %s...", detail)
	}
	return detail
}

func (s *spinner) start() {
	s.mu.Lock()
	s.started = true
	s.drawLocked()
	s.mu.Unlock()

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				s.drawLocked()
				s.mu.Unlock()
			}
		}
	}()
}

// stage switches the message to the given pipeline stage. It matches
// pipeline.Runner.Progress.
func (s *spinner) stage(stage pipeline.Stage, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = stageMessage(stage, detail)
	s.drawLocked()
}

// stop halts the animation and clears the line. It is safe to call more
// than once, and before start.
func (s *spinner) stop() {
	s.once.Do(func() {
		s.cancel()
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.stopped
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.done = true
		if s.width > 0 {
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
		}
	})
}

func (s *spinner) drawLocked() {
	if s.done || !s.started {
		return
	}
	frame := spinnerFrames[s.frame%len(spinnerFrames)]
	s.frame++
	line := styleIconSpinner.Render(frame) + " " + StyleDim.Render(s.message)
	pad := ""
	if n := len(s.message) + 2; n < s.width {
		pad = strings.Repeat(" ", s.width-n)
	} else {
		s.width = n
	}
	fmt.Fprintf(s.w, "\r%s%s", line, pad)
}

// executeWithSpinner runs the pipeline, animating each stage on w. A nil w
// runs without a spinner.
func executeWithSpinner(ctx context.Context, runner *pipeline.Runner, po pipeline.Options, w io.Writer) (*pipeline.Outcome, error) {
	if w == nil {
		return runner.Execute(ctx, po)
	}
	sp := newSpinner(ctx, w, stageMessage(pipeline.StageLoad, po.Source()))
	runner.Progress = sp.stage
	sp.start()
	out, err := runner.Execute(ctx, po)
	sp.stop()
	runner.Progress = nil

	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil:
		printError("Render failed")
		return nil, err
	}
	return out, nil
}
