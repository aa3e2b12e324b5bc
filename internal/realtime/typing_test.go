package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeLog struct {
	mu      sync.Mutex
	changes []TypingChange
}

func (l *changeLog) add(c TypingChange) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.changes = append(l.changes, c)
}

func (l *changeLog) snapshot() []TypingChange {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]TypingChange(nil), l.changes...)
}

func TestTypingEmitsOncePerBurstAndExpires(t *testing.T) {
	log := &changeLog{}
	tr := NewTyping(80*time.Millisecond, log.add)
	defer tr.Close()

	for i := 0; i < 5; i++ {
		tr.Start("room", "alice", []string{"bob"})
		time.Sleep(20 * time.Millisecond)
	}
	changes := log.snapshot()
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Typing)
	assert.Equal(t, []string{"bob"}, changes[0].Recipients)
	assert.True(t, tr.Active("room", "alice"))

	require.Eventually(t, func() bool { return len(log.snapshot()) == 2 }, time.Second, 10*time.Millisecond)
	changes = log.snapshot()
	assert.False(t, changes[1].Typing)
	assert.False(t, tr.Active("room", "alice"))
}

func TestTypingStopAndClear(t *testing.T) {
	log := &changeLog{}
	tr := NewTyping(time.Minute, log.add)
	defer tr.Close()

	tr.Stop("room", "alice")
	assert.Empty(t, log.snapshot(), "stopping a user who is not typing is silent")

	tr.Start("room", "alice", []string{"bob"})
	tr.Stop("room", "alice")
	tr.Start("room", "alice", []string{"bob"})
	tr.Clear("room", "alice")

	changes := log.snapshot()
	require.Len(t, changes, 4)
	assert.Equal(t, []bool{true, false, true, false}, []bool{changes[0].Typing, changes[1].Typing, changes[2].Typing, changes[3].Typing})
}

func TestTypingStopUser(t *testing.T) {
	log := &changeLog{}
	tr := NewTyping(time.Minute, log.add)
	defer tr.Close()

	tr.Start("r1", "alice", nil)
	tr.Start("r2", "alice", nil)
	tr.Start("r1", "bob", nil)
	tr.StopUser("alice")

	assert.False(t, tr.Active("r1", "alice"))
	assert.False(t, tr.Active("r2", "alice"))
	assert.True(t, tr.Active("r1", "bob"))
	assert.Len(t, log.snapshot(), 5)
}

func TestTypingCloseIsSilent(t *testing.T) {
	log := &changeLog{}
	tr := NewTyping(20*time.Millisecond, log.add)
	tr.Start("room", "alice", nil)
	tr.Close()
	tr.Start("room", "bob", nil)

	time.Sleep(60 * time.Millisecond)
	assert.Len(t, log.snapshot(), 1)
}
