package realtime

import (
	"sync"
	"time"
)

// TypingChange is reported when a user starts or stops typing in a room.
type TypingChange struct {
	RoomID     string
	UserID     string
	Recipients []string
	Typing     bool
}

type typingKey struct{ room, user string }

type typingEntry struct {
	timer      *time.Timer
	gen        uint64
	recipients []string
}

// Typing debounces typing indicators. Each (room, user) pair has one timer;
// repeated Start calls only push the expiry back, so listeners hear one
// change per burst.
type Typing struct {
	ttl      time.Duration
	onChange func(TypingChange)

	mu      sync.Mutex
	entries map[typingKey]*typingEntry
	closed  bool
}

func NewTyping(ttl time.Duration, onChange func(TypingChange)) *Typing {
	return &Typing{ttl: ttl, onChange: onChange, entries: map[typingKey]*typingEntry{}}
}

func (t *Typing) Start(roomID, userID string, recipients []string) {
	k := typingKey{roomID, userID}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if e, ok := t.entries[k]; ok {
		e.gen++
		e.recipients = recipients
		e.timer.Stop()
		e.timer = t.arm(k, e, e.gen)
		t.mu.Unlock()
		return
	}
	e := &typingEntry{recipients: recipients}
	e.timer = t.arm(k, e, 0)
	t.entries[k] = e
	t.mu.Unlock()

	t.emit(TypingChange{RoomID: roomID, UserID: userID, Recipients: recipients, Typing: true})
}

func (t *Typing) arm(k typingKey, e *typingEntry, gen uint64) *time.Timer {
	return time.AfterFunc(t.ttl, func() { t.expire(k, e, gen) })
}

// expire fires only if the entry was not refreshed or replaced meanwhile.
func (t *Typing) expire(k typingKey, e *typingEntry, gen uint64) {
	t.mu.Lock()
	if cur, ok := t.entries[k]; !ok || cur != e || cur.gen != gen {
		t.mu.Unlock()
		return
	}
	delete(t.entries, k)
	t.mu.Unlock()

	t.emit(TypingChange{RoomID: k.room, UserID: k.user, Recipients: e.recipients})
}

func (t *Typing) Stop(roomID, userID string) {
	k := typingKey{roomID, userID}
	t.mu.Lock()
	e, ok := t.entries[k]
	if ok {
		e.timer.Stop()
		delete(t.entries, k)
	}
	t.mu.Unlock()

	if ok {
		t.emit(TypingChange{RoomID: roomID, UserID: userID, Recipients: e.recipients})
	}
}

// Clear stops typing after the user sent a message.
func (t *Typing) Clear(roomID, userID string) { t.Stop(roomID, userID) }

// StopUser stops every indicator of userID.
func (t *Typing) StopUser(userID string) {
	t.mu.Lock()
	var changes []TypingChange
	for k, e := range t.entries {
		if k.user != userID {
			continue
		}
		e.timer.Stop()
		delete(t.entries, k)
		changes = append(changes, TypingChange{RoomID: k.room, UserID: k.user, Recipients: e.recipients})
	}
	t.mu.Unlock()

	for _, c := range changes {
		t.emit(c)
	}
}

// Active reports whether userID is currently typing in roomID.
func (t *Typing) Active(roomID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[typingKey{roomID, userID}]
	return ok
}

// Close cancels all timers without reporting changes.
func (t *Typing) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for k, e := range t.entries {
		e.timer.Stop()
		delete(t.entries, k)
	}
}

func (t *Typing) emit(c TypingChange) {
	if t.onChange != nil {
		t.onChange(c)
	}
}
