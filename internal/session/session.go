// Package session owns the shared mutable state of one scraping run: the
// cross-restart dedup set and the download counters. All check-and-admit
// sequences happen under one lock so that concurrent stages can never both
// claim the same key or jointly overshoot the download cap.
package session

import "sync"

// State combines resumed and live dedup/counter data. It is rebuilt from the
// durable index at startup and discarded at process end. The raw set and
// counters are never exposed; callers go through the admit methods.
type State struct {
	mu         sync.Mutex
	seen       map[string]struct{}
	inFlight   map[string]struct{}
	downloaded int
	capacity   int

	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a State enforcing the given download cap.
func New(capacity int) *State {
	return &State{
		seen:     make(map[string]struct{}),
		inFlight: make(map[string]struct{}),
		capacity: capacity,
		stop:     make(chan struct{}),
	}
}

// Seed loads dedup keys and the already-downloaded count recovered from the
// durable index. If the resumed count already meets the cap, the stop signal
// fires immediately and no new work is admitted for the whole run.
func (s *State) Seed(keys []string, downloaded int) {
	s.mu.Lock()
	for _, k := range keys {
		s.seen[k] = struct{}{}
	}
	s.downloaded += downloaded
	reached := s.downloaded >= s.capacity
	s.mu.Unlock()

	if reached {
		s.signalStop()
	}
}

// Admit records the dedup key if it has not been seen before. The first
// caller wins; later callers get false.
func (s *State) Admit(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Reserve admits a download attempt for url under the hard cap: it succeeds
// only while downloaded + in-flight stays below the cap, so two concurrent
// reservations can never jointly overshoot.
func (s *State) Reserve(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.downloaded+len(s.inFlight) >= s.capacity {
		return false
	}
	s.inFlight[url] = struct{}{}
	return true
}

// Release abandons an in-flight reservation after a failed fetch.
func (s *State) Release(url string) {
	s.mu.Lock()
	delete(s.inFlight, url)
	s.mu.Unlock()
}

// Commit converts an in-flight reservation into a completed download. It
// returns false, rolling the count back, if the commit would push the total
// past the cap; the caller must discard the result. Reaching the cap exactly
// fires the stop signal.
func (s *State) Commit(url string) bool {
	s.mu.Lock()
	delete(s.inFlight, url)
	s.downloaded++
	if s.downloaded > s.capacity {
		s.downloaded--
		s.mu.Unlock()
		return false
	}
	reached := s.downloaded == s.capacity
	s.mu.Unlock()

	if reached {
		s.signalStop()
	}
	return true
}

// Downloaded returns the number of successful downloads, resumed included.
func (s *State) Downloaded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloaded
}

// InFlight returns the number of reservations not yet committed or released.
func (s *State) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

// Done returns a channel closed once the cap is reached. It is a cooperative
// stop signal: new work must cease, in-flight work may drain.
func (s *State) Done() <-chan struct{} {
	return s.stop
}

// Stopped reports whether the stop signal has fired.
func (s *State) Stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *State) signalStop() {
	s.stopOnce.Do(func() { close(s.stop) })
}
