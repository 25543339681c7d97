package console

// CommandHistory keeps the most recent command lines typed at a prompt. Once full, the
// oldest line is overwritten.
type CommandHistory struct {
	lines []string
	head  int
	size  int

	// cursor is the position being browsed, counted back from the newest line.
	// -1 means the prompt is showing a fresh line.
	cursor int
}

func NewCommandHistory(capacity int) *CommandHistory {
	return &CommandHistory{
		lines:  make([]string, capacity),
		cursor: -1,
	}
}

func (h *CommandHistory) Len() int {
	return h.size
}

// Push records a line and resets browsing. Blank lines and repeats of the newest line
// are not recorded.
func (h *CommandHistory) Push(line string) {
	h.cursor = -1
	if line == "" || len(h.lines) == 0 {
		return
	}
	if h.size > 0 && h.at(0) == line {
		return
	}

	if h.size == len(h.lines) {
		h.lines[h.head] = line
		h.head = (h.head + 1) % len(h.lines)
	} else {
		h.lines[(h.head+h.size)%len(h.lines)] = line
		h.size++
	}
}

// at returns the line that is age steps older than the newest one.
func (h *CommandHistory) at(age int) string {
	return h.lines[(h.head+h.size-1-age)%len(h.lines)]
}

// Older moves the cursor one line back. It returns false at the start of history.
func (h *CommandHistory) Older() (string, bool) {
	if h.cursor+1 >= h.size {
		return "", false
	}
	h.cursor++
	return h.at(h.cursor), true
}

// Newer moves the cursor one line forward. Moving past the newest line returns an
// empty prompt and false.
func (h *CommandHistory) Newer() (string, bool) {
	if h.cursor <= 0 {
		h.cursor = -1
		return "", false
	}
	h.cursor--
	return h.at(h.cursor), true
}

func (h *CommandHistory) ResetCursor() {
	h.cursor = -1
}
