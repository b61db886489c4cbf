package sync

import "github.com/sasha-s/go-deadlock"

// Passes for the same guild must not overlap: later phases depend on
// ids resolved earlier in the same pass. Different guilds share no
// state and can run concurrently.
var (
	guildMu    deadlock.Mutex
	guildLocks = make(map[string]*deadlock.Mutex)
)

// LockGuild serializes reconciliation and capture per guild. The
// returned function releases the lock.
func LockGuild(guildID string) func() {
	guildMu.Lock()
	l, ok := guildLocks[guildID]
	if !ok {
		l = &deadlock.Mutex{}
		guildLocks[guildID] = l
	}
	guildMu.Unlock()

	l.Lock()
	return l.Unlock
}
