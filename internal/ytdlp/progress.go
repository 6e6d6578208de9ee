package ytdlp

import (
	"regexp"
	"strconv"
	"strings"

	"ytfetch/internal/domain"
)

// progressRe matches the tool's per-line progress output, e.g.
// "[download]  42.5% of 10.32MiB at 1.21MiB/s ETA 00:05".
var progressRe = regexp.MustCompile(`\[download\]\s+(\d+\.\d+)% of\s+~?\s*(\S+) at\s+(\S+)\s+ETA\s+(\S+)`)

// Parser incrementally decodes raw process output into progress events.
// Chunks may split lines arbitrarily; incomplete lines are buffered until the
// newline arrives. In pass-through mode every non-empty line is relayed as an
// opaque status event instead of being pattern-matched.
type Parser struct {
	passthrough bool
	pending     strings.Builder
}

// NewParser returns a parser for detailed per-item progress lines.
func NewParser() *Parser {
	return &Parser{}
}

// NewPassthroughParser returns a parser that forwards lines verbatim. Used for
// batch runs where the tool's own output is more useful than parsed figures.
func NewPassthroughParser() *Parser {
	return &Parser{passthrough: true}
}

// Feed consumes a chunk of raw output and returns zero or more events.
func (p *Parser) Feed(chunk []byte) []domain.Event {
	p.pending.Write(chunk)
	buffered := p.pending.String()

	idx := strings.LastIndexByte(buffered, '\n')
	if idx < 0 {
		return nil
	}

	complete := buffered[:idx]
	p.pending.Reset()
	p.pending.WriteString(buffered[idx+1:])

	var events []domain.Event
	for _, line := range strings.Split(complete, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if ev, ok := p.parseLine(line); ok {
			events = append(events, ev)
		}
	}
	return events
}

func (p *Parser) parseLine(line string) (domain.Event, bool) {
	if p.passthrough {
		return domain.Event{Kind: domain.EventStatus, Status: line}, true
	}

	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		// Unrelated tool output is expected and non-fatal.
		return domain.Event{}, false
	}
	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return domain.Event{}, false
	}
	return domain.Event{
		Kind:     domain.EventProgress,
		Progress: percent,
		Size:     m[2],
		Speed:    m[3],
		ETA:      m[4],
	}, true
}
