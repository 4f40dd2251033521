package feedback

import "sync"

// linkStore maps a moderator id to the feedback item awaiting that
// moderator's next text message. One pending target per moderator; a new
// BeginReply overwrites the previous one.
type linkStore struct {
	mu    sync.Mutex
	links map[int64]int64
}

func newLinkStore() *linkStore {
	return &linkStore{links: make(map[int64]int64)}
}

// put stores the link and reports a displaced feedback id, if any.
func (s *linkStore) put(moderatorID, feedbackID int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, overwrote := s.links[moderatorID]
	s.links[moderatorID] = feedbackID
	return prev, overwrote
}

// take consumes the link for the moderator.
func (s *linkStore) take(moderatorID int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.links[moderatorID]
	if ok {
		delete(s.links, moderatorID)
	}
	return id, ok
}

func (s *linkStore) has(moderatorID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.links[moderatorID]
	return ok
}
