package scraper

// Session is the working state of one keyword's run: the dedup set seeded
// from persisted history plus running counters. It is owned by the
// orchestrator, discarded when the next keyword starts, and never shared.
type Session struct {
	Keyword  string
	Seen     map[string]struct{}
	Accepted int
}

// NewSession creates a fresh session for a keyword.
func NewSession(keyword string) *Session {
	return &Session{
		Keyword: keyword,
		Seen:    make(map[string]struct{}),
	}
}

// SeedSeen adds persisted texts to the dedup set.
func (s *Session) SeedSeen(texts []string) {
	for _, t := range texts {
		s.Seen[t] = struct{}{}
	}
}

// MarkSeen records a text in the dedup set. It returns false when the text
// was already present.
func (s *Session) MarkSeen(text string) bool {
	if _, ok := s.Seen[text]; ok {
		return false
	}

	s.Seen[text] = struct{}{}

	return true
}
