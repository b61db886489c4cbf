package sync

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Haibread/guildsync/models"
)

// Reconciler mutates a guild's live structure until it matches the
// guild's active template. One Run processes categories, then channels,
// then unmanaged deletions, then a single bulk reorder. Runs for the
// same guild must be serialized by the caller.
type Reconciler struct {
	Client RemoteClient
	Store  Store
	Log    *zap.SugaredLogger
}

func New(client RemoteClient, store Store, log *zap.SugaredLogger) *Reconciler {
	return &Reconciler{Client: client, Store: store, Log: log}
}

// Failure records one resource that could not be reconciled.
type Failure struct {
	Kind     string
	Resource string
	Err      error
}

func (f Failure) String() string {
	return fmt.Sprintf("%s %q: %v", f.Kind, f.Resource, f.Err)
}

// Summary is the aggregate outcome of one pass. A pass always produces
// a Summary, even when some resources failed.
type Summary struct {
	GuildID  string
	Created  int
	Updated  int
	Skipped  int
	Deleted  int
	Failed   int
	Failures []Failure
}

// pass is the working state of one reconciliation run.
type pass struct {
	r   *Reconciler
	tpl *models.Template
	liv *LiveState

	claimedCategories map[string]bool
	claimedChannels   map[string]bool
	deleted           map[string]bool

	// Template ids resolved to live ids during this pass.
	categoryLive map[uint]string
	channelLive  map[uint]string
	// Resolved live parent per template channel, "" for top-level.
	channelParent map[uint]string

	summary *Summary
}

// Run reconciles the guild against its active template and returns the
// pass summary. Individual resource failures are logged and counted,
// never propagated; only the inability to load the template or the
// live snapshot fails the run itself.
func (r *Reconciler) Run(guildID string) (*Summary, error) {
	tpl, err := r.Store.ActiveTemplate(guildID)
	if err != nil {
		return nil, err
	}
	live, err := FetchLive(r.Client, guildID)
	if err != nil {
		return nil, fmt.Errorf("fetching live state for guild %s: %w", guildID, err)
	}

	p := &pass{
		r:                 r,
		tpl:               tpl,
		liv:               live,
		claimedCategories: make(map[string]bool),
		claimedChannels:   make(map[string]bool),
		deleted:           make(map[string]bool),
		categoryLive:      make(map[uint]string),
		channelLive:       make(map[uint]string),
		channelParent:     make(map[uint]string),
		summary:           &Summary{GuildID: guildID},
	}

	p.reconcileCategories()
	p.reconcileChannels()
	if tpl.DeleteUnmanaged {
		p.deleteUnmanaged()
	}
	p.reorder()

	r.Log.Infof("guild %s: template %q reconciled: %d created, %d updated, %d unchanged, %d deleted, %d failed",
		guildID, tpl.Name, p.summary.Created, p.summary.Updated, p.summary.Skipped, p.summary.Deleted, p.summary.Failed)
	return p.summary, nil
}

func (p *pass) fail(kind, name string, err error) {
	p.r.Log.Errorf("guild %s: template %d: %s %q: %v", p.liv.GuildID, p.tpl.ID, kind, name, err)
	p.summary.Failed++
	p.summary.Failures = append(p.summary.Failures, Failure{Kind: kind, Resource: name, Err: err})
}

func (p *pass) reconcileCategories() {
	cats := sortedCategories(p.tpl.Categories)
	for i := range cats {
		tc := &cats[i]
		overwrites := translateOverwrites(categoryOverwrites(tc.Permissions), p.liv, tc.Name, p.r.Log)

		if found := resolveCategory(tc, p.liv); found != nil {
			if err := p.r.Client.EditCategoryPermissions(found.ID, overwrites); err != nil {
				p.fail("category", tc.Name, err)
				continue
			}
			p.claimedCategories[found.ID] = true
			p.categoryLive[tc.ID] = found.ID
			p.summary.Skipped++
			continue
		}

		// Create with the overwrites in the same call so the category
		// never exists without its access control.
		id, err := p.r.Client.CreateCategory(p.liv.GuildID, tc.Name, overwrites)
		if err != nil {
			p.fail("category", tc.Name, err)
			continue
		}
		p.claimedCategories[id] = true
		p.categoryLive[tc.ID] = id
		p.summary.Created++
	}
}

func (p *pass) reconcileChannels() {
	chans := sortedChannels(p.tpl.Channels)
	for i := range chans {
		tc := &chans[i]

		parentLiveID := ""
		if tc.CategoryID != nil {
			if id, ok := p.categoryLive[*tc.CategoryID]; ok {
				parentLiveID = id
			} else {
				p.r.Log.Warnf("guild %s: channel %q: parent category unavailable this pass, placing top-level", p.liv.GuildID, tc.Name)
			}
		}
		p.channelParent[tc.ID] = parentLiveID

		overwrites := translateOverwrites(channelOverwrites(tc.Permissions), p.liv, tc.Name, p.r.Log)
		m := resolveChannel(tc, parentLiveID, p.liv)

		if m.live != nil {
			if m.learnedID != "" {
				if err := p.r.Store.SetChannelRemoteID(tc.ID, m.learnedID); err != nil {
					p.r.Log.Warnf("guild %s: channel %q: recording remote id: %v", p.liv.GuildID, tc.Name, err)
				}
			}
			edit, dirty := diffChannel(tc, m.live, parentLiveID)
			edit.Overwrites = overwrites
			if err := p.r.Client.EditChannel(m.live.ID, edit); err != nil {
				p.fail("channel", tc.Name, err)
				continue
			}
			p.claimedChannels[m.live.ID] = true
			p.channelLive[tc.ID] = m.live.ID
			if dirty {
				p.summary.Updated++
			} else {
				p.summary.Skipped++
			}
			continue
		}

		id, err := p.r.Client.CreateChannel(p.liv.GuildID, buildChannelSpec(tc, parentLiveID, overwrites))
		if err != nil {
			p.fail("channel", tc.Name, err)
			continue
		}
		if err := p.r.Store.SetChannelRemoteID(tc.ID, id); err != nil {
			p.r.Log.Warnf("guild %s: channel %q: recording remote id: %v", p.liv.GuildID, tc.Name, err)
		}
		p.claimedChannels[id] = true
		p.channelLive[tc.ID] = id
		p.summary.Created++
	}
}

// deleteUnmanaged removes live resources the template does not claim.
// Non-category channels go first; a category is only removed once it
// has no remaining live children, so an out-of-sync template can never
// take a populated category down with it. Channels sitting inside a
// kept unmanaged category are spared along with it for the same
// reason.
func (p *pass) deleteUnmanaged() {
	for _, c := range p.liv.Channels {
		if p.claimedChannels[c.ID] {
			continue
		}
		if c.ParentID != "" && !p.claimedCategories[c.ParentID] && p.liv.categoryByID[c.ParentID] != nil {
			p.r.Log.Warnf("guild %s: channel %q sits in an unmanaged category, leaving in place", p.liv.GuildID, c.Name)
			continue
		}
		if err := p.r.Client.DeleteChannel(c.ID); err != nil {
			p.r.Log.Warnf("guild %s: deleting unmanaged channel %q: %v", p.liv.GuildID, c.Name, err)
			continue
		}
		p.deleted[c.ID] = true
		p.summary.Deleted++
	}
	for _, c := range p.liv.Categories {
		if p.claimedCategories[c.ID] {
			continue
		}
		if n := p.liv.ChildCount(c.ID, p.deleted); n > 0 {
			p.r.Log.Warnf("guild %s: unmanaged category %q still has %d channels, leaving in place", p.liv.GuildID, c.Name, n)
			continue
		}
		if err := p.r.Client.DeleteChannel(c.ID); err != nil {
			p.r.Log.Warnf("guild %s: deleting unmanaged category %q: %v", p.liv.GuildID, c.Name, err)
			continue
		}
		p.deleted[c.ID] = true
		p.summary.Deleted++
	}
}

// reorder issues the single authoritative bulk position call. Ordering
// is best effort: a reorder failure is logged, not counted against the
// pass.
func (p *pass) reorder() {
	positions := p.reorderPositions()
	if len(positions) == 0 {
		return
	}
	if err := p.r.Client.ReorderChannels(p.liv.GuildID, positions); err != nil {
		p.r.Log.Warnf("guild %s: bulk reorder: %v", p.liv.GuildID, err)
	}
}

// reorderPositions builds the merged order: top-level channels by
// template position, then each category in template position order
// immediately followed by its channels in template position order.
// Resources that never obtained a live id this pass are left out.
func (p *pass) reorderPositions() []Position {
	var ids []string

	chans := sortedChannels(p.tpl.Channels)
	for i := range chans {
		tc := &chans[i]
		liveID, ok := p.channelLive[tc.ID]
		if !ok || p.channelParent[tc.ID] != "" {
			continue
		}
		ids = append(ids, liveID)
	}

	cats := sortedCategories(p.tpl.Categories)
	for i := range cats {
		catLiveID, ok := p.categoryLive[cats[i].ID]
		if !ok {
			continue
		}
		ids = append(ids, catLiveID)
		for j := range chans {
			tc := &chans[j]
			liveID, ok := p.channelLive[tc.ID]
			if ok && p.channelParent[tc.ID] == catLiveID {
				ids = append(ids, liveID)
			}
		}
	}

	positions := make([]Position, 0, len(ids))
	for i, id := range ids {
		positions = append(positions, Position{ChannelID: id, Position: i})
	}
	return positions
}

// buildChannelSpec dispatches on the channel kind so each variant only
// carries the fields its type supports.
func buildChannelSpec(tc *models.TemplateChannel, parentLiveID string, overwrites []*Overwrite) ChannelSpec {
	spec := ChannelSpec{
		Name:       tc.Name,
		Kind:       tc.Kind,
		ParentID:   parentLiveID,
		Overwrites: overwrites,
	}
	switch tc.Kind {
	case models.KindText:
		spec.Topic = tc.Topic
		spec.NSFW = tc.NSFW
		spec.Slowmode = tc.Slowmode
	case models.KindAnnouncement:
		spec.Topic = tc.Topic
		spec.NSFW = tc.NSFW
	case models.KindForum:
		spec.Topic = tc.Topic
		spec.NSFW = tc.NSFW
		spec.Slowmode = tc.Slowmode
		spec.ThreadSlow = tc.ThreadSlowmode
	case models.KindVoice, models.KindStage:
		spec.Bitrate = tc.Bitrate
		spec.UserLimit = tc.UserLimit
	}
	return spec
}

// diffChannel compares the mutable attributes a channel's kind supports
// and reports whether anything actually changed. Only changed fields
// are set on the edit, so an unchanged channel produces a no-op edit.
func diffChannel(tc *models.TemplateChannel, live *LiveChannel, parentLiveID string) (ChannelEdit, bool) {
	var edit ChannelEdit
	dirty := false

	if tc.Kind.HasTopic() {
		if live.Topic != tc.Topic {
			topic := tc.Topic
			edit.Topic = &topic
			dirty = true
		}
		if live.NSFW != tc.NSFW {
			nsfw := tc.NSFW
			edit.NSFW = &nsfw
			dirty = true
		}
	}
	if tc.Kind.HasSlowmode() && live.Slowmode != tc.Slowmode {
		slow := tc.Slowmode
		edit.Slowmode = &slow
		dirty = true
	}
	if tc.Kind == models.KindForum && live.ThreadSlow != tc.ThreadSlowmode {
		ts := tc.ThreadSlowmode
		edit.ThreadSlow = &ts
		dirty = true
	}
	if tc.Kind.IsVoiceLike() {
		if tc.Bitrate > 0 && live.Bitrate != tc.Bitrate {
			br := tc.Bitrate
			edit.Bitrate = &br
			dirty = true
		}
		if live.UserLimit != tc.UserLimit {
			ul := tc.UserLimit
			edit.UserLimit = &ul
			dirty = true
		}
	}
	if live.ParentID != parentLiveID {
		pid := parentLiveID
		edit.ParentID = &pid
		dirty = true
	}
	return edit, dirty
}

func sortedCategories(in []models.TemplateCategory) []models.TemplateCategory {
	out := make([]models.TemplateCategory, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func sortedChannels(in []models.TemplateChannel) []models.TemplateChannel {
	out := make([]models.TemplateChannel, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
