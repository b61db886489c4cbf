package main

import (
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"

	"github.com/Haibread/guildsync/sync"
)

// startSyncLoop reconciles every guild with an active template on a
// fixed interval. Disabled when sync_interval is 0.
func startSyncLoop(s *discordgo.Session, r *sync.Reconciler) {
	interval := viper.GetInt("sync_interval")
	if interval <= 0 {
		return
	}
	log.Infof("Starting periodic sync every %d minutes", interval)
	ticker := time.NewTicker(time.Duration(interval) * time.Minute)
	go func() {
		for range ticker.C {
			for _, id := range guildIDs(s) {
				syncGuild(r, id)
			}
		}
	}()
}

// guildIDs snapshots the connected guild ids under the state read
// lock; the gateway goroutine mutates State.Guilds concurrently.
func guildIDs(s *discordgo.Session) []string {
	s.State.RLock()
	defer s.State.RUnlock()
	ids := make([]string, 0, len(s.State.Guilds))
	for _, g := range s.State.Guilds {
		ids = append(ids, g.ID)
	}
	return ids
}

func syncGuild(r *sync.Reconciler, guildID string) {
	unlock := sync.LockGuild(guildID)
	defer unlock()

	_, err := r.Run(guildID)
	if errors.Is(err, sync.ErrNoTemplate) {
		return
	}
	if err != nil {
		log.Errorf("guild %s: periodic sync: %v", guildID, err)
	}
}
