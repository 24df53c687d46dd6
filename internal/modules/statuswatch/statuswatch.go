// Package statuswatch scans member custom statuses for the server's
// invite codes and converges a reward role on matching members.
package statuswatch

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

var invitePattern = regexp.MustCompile(`(?i)(?:discord\.gg/|discord\.com/invite/|\.gg/)([a-z0-9-]+)`)

// Matches reports whether the status text advertises one of the
// configured invite codes.
func Matches(status string, codes []string) bool {
	if status == "" || len(codes) == 0 {
		return false
	}
	for _, found := range invitePattern.FindAllStringSubmatch(status, -1) {
		for _, code := range codes {
			if strings.EqualFold(found[1], code) {
				return true
			}
		}
	}
	return false
}

// Tracker remembers which members currently advertise the server, and
// since when, so the bot only touches roles on transitions.
type Tracker struct {
	mu          sync.Mutex
	codes       []string
	advertising map[string]time.Time
	now         func() time.Time
}

func NewTracker(codes []string) *Tracker {
	return &Tracker{
		codes:       codes,
		advertising: make(map[string]time.Time),
		now:         time.Now,
	}
}

// WithNow replaces the time source. Used by tests.
func (t *Tracker) WithNow(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Change describes a role transition the bot should apply.
type Change struct {
	UserID string
	Add    bool
}

// Observe records one member's current status and returns the role
// change it implies, if any.
func (t *Tracker) Observe(userID, status string) (Change, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	matches := Matches(status, t.codes)
	_, was := t.advertising[userID]
	if matches == was {
		return Change{}, false
	}
	if matches {
		t.advertising[userID] = t.now()
	} else {
		delete(t.advertising, userID)
	}
	return Change{UserID: userID, Add: matches}, true
}

// Forget drops a member, returning true if they were advertising.
func (t *Tracker) Forget(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, was := t.advertising[userID]
	delete(t.advertising, userID)
	return was
}

// Longest returns the member with the longest running streak and its
// duration. ok is false when nobody advertises.
func (t *Tracker) Longest() (userID string, streak time.Duration, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for id, since := range t.advertising {
		if d := now.Sub(since); !ok || d > streak {
			userID, streak, ok = id, d, true
		}
	}
	return userID, streak, ok
}

// Count returns how many members currently advertise the server.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.advertising)
}
