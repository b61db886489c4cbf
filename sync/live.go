package sync

import (
	"sort"

	"github.com/Haibread/guildsync/models"
)

// LiveRole is a guild role as it exists right now.
type LiveRole struct {
	ID   string
	Name string
}

// LiveCategory is a category read fresh from the guild. Never persisted.
type LiveCategory struct {
	ID         string
	Name       string
	Position   int
	Overwrites []*Overwrite
}

// LiveChannel is a non-category channel read fresh from the guild.
type LiveChannel struct {
	ID         string
	Name       string
	Position   int
	ParentID   string
	Kind       models.ChannelKind
	Topic      string
	NSFW       bool
	Slowmode   int
	Bitrate    int
	UserLimit  int
	ThreadSlow int
	Overwrites []*Overwrite
}

type channelKey struct {
	name     string
	parentID string
}

// LiveState is one guild's current structure, indexed for identity
// lookups. It is owned by a single reconciliation or capture pass.
type LiveState struct {
	GuildID    string
	Categories []*LiveCategory
	Channels   []*LiveChannel
	Roles      []*LiveRole

	categoryByID   map[string]*LiveCategory
	categoryByName map[string]*LiveCategory
	channelByID    map[string]*LiveChannel
	channelByKey   map[channelKey]*LiveChannel
	roleByName     map[string]*LiveRole
	roleByID       map[string]*LiveRole
}

// NewLiveState indexes an already-fetched snapshot. Categories and
// channels are sorted by their live position so capture walks them in
// display order.
func NewLiveState(guildID string, categories []*LiveCategory, channels []*LiveChannel, roles []*LiveRole) *LiveState {
	sort.SliceStable(categories, func(i, j int) bool { return categories[i].Position < categories[j].Position })
	sort.SliceStable(channels, func(i, j int) bool { return channels[i].Position < channels[j].Position })

	ls := &LiveState{
		GuildID:        guildID,
		Categories:     categories,
		Channels:       channels,
		Roles:          roles,
		categoryByID:   make(map[string]*LiveCategory, len(categories)),
		categoryByName: make(map[string]*LiveCategory, len(categories)),
		channelByID:    make(map[string]*LiveChannel, len(channels)),
		channelByKey:   make(map[channelKey]*LiveChannel, len(channels)),
		roleByName:     make(map[string]*LiveRole, len(roles)),
		roleByID:       make(map[string]*LiveRole, len(roles)),
	}
	for _, c := range categories {
		ls.categoryByID[c.ID] = c
		ls.categoryByName[c.Name] = c
	}
	for _, c := range channels {
		ls.channelByID[c.ID] = c
		ls.channelByKey[channelKey{c.Name, c.ParentID}] = c
	}
	for _, r := range roles {
		ls.roleByName[r.Name] = r
		ls.roleByID[r.ID] = r
	}
	return ls
}

// FetchLive reads the guild's current categories, channels and roles
// into one normalized snapshot.
func FetchLive(client RemoteClient, guildID string) (*LiveState, error) {
	categories, err := client.GuildCategories(guildID)
	if err != nil {
		return nil, err
	}
	channels, err := client.GuildChannels(guildID)
	if err != nil {
		return nil, err
	}
	roles, err := client.GuildRoles(guildID)
	if err != nil {
		return nil, err
	}
	return NewLiveState(guildID, categories, channels, roles), nil
}

// CategoryByName matches a category by its guild-global name.
func (ls *LiveState) CategoryByName(name string) *LiveCategory {
	return ls.categoryByName[name]
}

// ChannelByID matches a channel by remote id.
func (ls *LiveState) ChannelByID(id string) *LiveChannel {
	return ls.channelByID[id]
}

// ChannelByName matches a channel by (name, parent live id). Top-level
// channels use an empty parent id.
func (ls *LiveState) ChannelByName(name, parentID string) *LiveChannel {
	return ls.channelByKey[channelKey{name, parentID}]
}

// RoleByName returns the live role with the given name, or nil.
func (ls *LiveState) RoleByName(name string) *LiveRole {
	return ls.roleByName[name]
}

// RoleByID returns the live role with the given id, or nil.
func (ls *LiveState) RoleByID(id string) *LiveRole {
	return ls.roleByID[id]
}

// ChildCount reports how many live channels sit under the category,
// not counting ids the caller has already deleted this pass.
func (ls *LiveState) ChildCount(categoryID string, deleted map[string]bool) int {
	n := 0
	for _, c := range ls.Channels {
		if c.ParentID == categoryID && !deleted[c.ID] {
			n++
		}
	}
	return n
}
