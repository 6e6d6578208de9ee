package ytdlp

import (
	"bufio"
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"ytfetch/internal/domain"
)

const (
	// DefaultBinary is the fetch tool invoked when none is configured.
	DefaultBinary = "yt-dlp"
	// DefaultStderrTail bounds how many diagnostic lines are retained for
	// failure messages.
	DefaultStderrTail = 8
)

// Runner spawns one fetch tool process per call and supervises it to a single
// terminal outcome: success, typed failure, or cancellation.
type Runner struct {
	Binary     string
	StderrTail int
	Logger     *logrus.Logger
}

func NewRunner(binary string, logger *logrus.Logger) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Runner{Binary: binary, StderrTail: DefaultStderrTail, Logger: logger}
}

// Run executes the tool with args, forwarding every stdout line to onLine.
// Stderr is accumulated (bounded) and folded into the error on failure. The
// child is terminated when ctx is canceled, yielding domain.ErrCanceled.
func (r *Runner) Run(ctx context.Context, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	// Unblocks the output readers if a killed child leaves a grandchild
	// holding the pipes open.
	cmd.WaitDelay = 5 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &domain.StartError{Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &domain.StartError{Err: err}
	}

	if err := cmd.Start(); err != nil {
		return &domain.StartError{Err: err}
	}

	tail := newTailBuffer(r.StderrTail)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if onLine != nil {
				onLine(scanner.Text())
			}
		}
	}()

	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			tail.Add(line)
			r.Logger.Debugf("%s stderr: %s", r.Binary, line)
		}
	}()

	wg.Wait()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return domain.ErrCanceled
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return &domain.ToolError{ExitCode: exitErr.ExitCode(), Tail: tail.Lines()}
		}
		return &domain.StartError{Err: waitErr}
	}
	return nil
}

// tailBuffer keeps the last n non-empty lines written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	lines []string
}

func newTailBuffer(limit int) *tailBuffer {
	if limit <= 0 {
		limit = DefaultStderrTail
	}
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Add(line string) {
	if line == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

func (t *tailBuffer) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}
