// Package scan locates one named section inside a stream of normalized lines.
//
// The Scanner is a three-mode state machine. It searches for the section heading,
// then looks exactly one line ahead: a table-of-contents entry for the heading is
// followed by a page number, while the real heading is followed by prose. Once
// confirmed, it accumulates lines until the next section's heading appears.
package scan

// State is the scanner mode.
type State int

const (
	// Searching looks for the heading.
	Searching State = iota
	// Verifying has seen the heading and inspects the following line.
	Verifying
	// Accumulating is inside the section body.
	Accumulating
	// Done has seen the end marker; no further lines are content.
	Done
)

func (s State) String() string {
	switch s {
	case Searching:
		return "searching"
	case Verifying:
		return "verifying"
	case Accumulating:
		return "accumulating"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Action tells the caller what to do with the line just stepped.
type Action int

const (
	// Skip ignores the line.
	Skip Action = iota
	// Begin means the heading matched. Counts gathered so far must be discarded.
	Begin
	// Reject means the previous heading match was a table-of-contents entry.
	// The line itself is discarded.
	Reject
	// Content means the line belongs to the section and should be tokenized.
	Content
	// Stop means the end marker matched. Scanning of this document is over.
	Stop
)

func (a Action) String() string {
	switch a {
	case Skip:
		return "skip"
	case Begin:
		return "begin"
	case Reject:
		return "reject"
	case Content:
		return "content"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// Scanner is scoped to a single document. Create one per document or call Reset.
type Scanner struct {
	heading Marker
	end     Marker

	state          State
	lines          int
	falsePositives int
}

// New creates a scanner that starts at heading and stops at end.
func New(heading, end Marker) *Scanner {
	return &Scanner{heading: heading, end: end}
}

// Step consumes one normalized line. Rules are checked in precedence order and
// the first match wins.
func (s *Scanner) Step(line string) Action {
	switch s.state {
	case Searching:
		if s.heading.Match(line) {
			s.state = Verifying
			s.lines = 0
			return Begin
		}
		return Skip

	case Verifying:
		if startsWithDigit(line) {
			s.state = Searching
			s.falsePositives++
			return Reject
		}
		s.state = Accumulating
		s.lines++
		return Content

	case Accumulating:
		if s.end.Match(line) {
			s.state = Done
			return Stop
		}
		s.lines++
		return Content

	default:
		return Stop
	}
}

// State returns the current mode.
func (s *Scanner) State() State { return s.state }

// Lines returns the number of content lines in the current section candidate.
func (s *Scanner) Lines() int { return s.lines }

// FalsePositives returns how many heading matches were rejected as
// table-of-contents entries.
func (s *Scanner) FalsePositives() int { return s.falsePositives }

// Reset returns the scanner to Searching and clears its counters.
func (s *Scanner) Reset() {
	s.state = Searching
	s.lines = 0
	s.falsePositives = 0
}
