package subprocess

import (
	"strings"
	"sync"
)

// maxStderrTailSize is how much trailing stderr output is kept for
// ProcessExitError. Older output is dropped line by line.
const maxStderrTailSize = 64 * 1024 // 64KB

// stderrTail keeps the most recent stderr lines within a byte budget.
type stderrTail struct {
	mu    sync.Mutex
	lines []string
	size  int
	limit int
}

func newStderrTail(limit int) *stderrTail {
	return &stderrTail{limit: limit}
}

// add appends a line, evicting the oldest lines when over budget.
func (s *stderrTail) add(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(line) > s.limit {
		line = line[len(line)-s.limit:]
	}

	s.lines = append(s.lines, line)
	s.size += len(line)

	for s.size > s.limit && len(s.lines) > 0 {
		s.size -= len(s.lines[0])
		s.lines = s.lines[1:]
	}
}

// String joins the retained lines.
func (s *stderrTail) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return strings.TrimSpace(strings.Join(s.lines, "\n"))
}
