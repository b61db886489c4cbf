package sync

import (
	"encoding/json"
	"fmt"

	"github.com/Haibread/guildsync/models"
)

// fakeRemote is a stateful in-memory guild. Creates, edits and deletes
// mutate its backing state so a second pass observes the results of
// the first, and every mutating call is recorded for assertions.
type fakeRemote struct {
	categories []*LiveCategory
	channels   []*LiveChannel
	roles      []*LiveRole

	nextID int

	createdCategories []string
	createdChannels   []ChannelSpec
	channelEdits      map[string][]ChannelEdit
	categoryEdits     map[string][][]*Overwrite
	deletedIDs        []string
	reorders          [][]Position

	failCreateChannel  map[string]error
	failCreateCategory map[string]error
	failDelete         map[string]error
	failReorder        error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		channelEdits:       make(map[string][]ChannelEdit),
		categoryEdits:      make(map[string][][]*Overwrite),
		failCreateChannel:  make(map[string]error),
		failCreateCategory: make(map[string]error),
		failDelete:         make(map[string]error),
	}
}

func (f *fakeRemote) newID() string {
	f.nextID++
	return fmt.Sprintf("live-%d", f.nextID)
}

func (f *fakeRemote) addCategory(id, name string, overwrites ...*Overwrite) *LiveCategory {
	c := &LiveCategory{ID: id, Name: name, Position: len(f.categories), Overwrites: overwrites}
	f.categories = append(f.categories, c)
	return c
}

func (f *fakeRemote) addChannel(id, name string, kind models.ChannelKind, parentID string, overwrites ...*Overwrite) *LiveChannel {
	c := &LiveChannel{ID: id, Name: name, Kind: kind, ParentID: parentID, Position: len(f.channels), Overwrites: overwrites}
	f.channels = append(f.channels, c)
	return c
}

func (f *fakeRemote) addRole(id, name string) {
	f.roles = append(f.roles, &LiveRole{ID: id, Name: name})
}

func (f *fakeRemote) liveCategory(name string) *LiveCategory {
	for _, c := range f.categories {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (f *fakeRemote) liveChannel(name string) *LiveChannel {
	for _, c := range f.channels {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (f *fakeRemote) GuildCategories(guildID string) ([]*LiveCategory, error) {
	out := make([]*LiveCategory, len(f.categories))
	copy(out, f.categories)
	return out, nil
}

func (f *fakeRemote) GuildChannels(guildID string) ([]*LiveChannel, error) {
	out := make([]*LiveChannel, len(f.channels))
	copy(out, f.channels)
	return out, nil
}

func (f *fakeRemote) GuildRoles(guildID string) ([]*LiveRole, error) {
	return f.roles, nil
}

func (f *fakeRemote) CreateCategory(guildID, name string, overwrites []*Overwrite) (string, error) {
	if err := f.failCreateCategory[name]; err != nil {
		return "", err
	}
	c := f.addCategory(f.newID(), name, overwrites...)
	f.createdCategories = append(f.createdCategories, name)
	return c.ID, nil
}

func (f *fakeRemote) CreateChannel(guildID string, spec ChannelSpec) (string, error) {
	if err := f.failCreateChannel[spec.Name]; err != nil {
		return "", err
	}
	c := f.addChannel(f.newID(), spec.Name, spec.Kind, spec.ParentID, spec.Overwrites...)
	c.Topic = spec.Topic
	c.NSFW = spec.NSFW
	c.Slowmode = spec.Slowmode
	c.Bitrate = spec.Bitrate
	c.UserLimit = spec.UserLimit
	c.ThreadSlow = spec.ThreadSlow
	f.createdChannels = append(f.createdChannels, spec)
	return c.ID, nil
}

func (f *fakeRemote) EditCategoryPermissions(categoryID string, overwrites []*Overwrite) error {
	for _, c := range f.categories {
		if c.ID == categoryID {
			c.Overwrites = overwrites
			f.categoryEdits[categoryID] = append(f.categoryEdits[categoryID], overwrites)
			return nil
		}
	}
	return &APIError{Kind: ErrorNotFound, Op: "edit category permissions", Err: fmt.Errorf("no category %s", categoryID)}
}

func (f *fakeRemote) EditChannel(channelID string, edit ChannelEdit) error {
	for _, c := range f.channels {
		if c.ID != channelID {
			continue
		}
		if edit.Topic != nil {
			c.Topic = *edit.Topic
		}
		if edit.NSFW != nil {
			c.NSFW = *edit.NSFW
		}
		if edit.Slowmode != nil {
			c.Slowmode = *edit.Slowmode
		}
		if edit.ThreadSlow != nil {
			c.ThreadSlow = *edit.ThreadSlow
		}
		if edit.Bitrate != nil {
			c.Bitrate = *edit.Bitrate
		}
		if edit.UserLimit != nil {
			c.UserLimit = *edit.UserLimit
		}
		if edit.ParentID != nil {
			c.ParentID = *edit.ParentID
		}
		if edit.Overwrites != nil {
			c.Overwrites = edit.Overwrites
		}
		f.channelEdits[channelID] = append(f.channelEdits[channelID], edit)
		return nil
	}
	return &APIError{Kind: ErrorNotFound, Op: "edit channel", Err: fmt.Errorf("no channel %s", channelID)}
}

func (f *fakeRemote) DeleteChannel(channelID string) error {
	if err := f.failDelete[channelID]; err != nil {
		return err
	}
	for i, c := range f.channels {
		if c.ID == channelID {
			f.channels = append(f.channels[:i], f.channels[i+1:]...)
			f.deletedIDs = append(f.deletedIDs, channelID)
			return nil
		}
	}
	for i, c := range f.categories {
		if c.ID == channelID {
			f.categories = append(f.categories[:i], f.categories[i+1:]...)
			f.deletedIDs = append(f.deletedIDs, channelID)
			return nil
		}
	}
	return &APIError{Kind: ErrorNotFound, Op: "delete channel", Err: fmt.Errorf("no resource %s", channelID)}
}

func (f *fakeRemote) ReorderChannels(guildID string, positions []Position) error {
	if f.failReorder != nil {
		return f.failReorder
	}
	f.reorders = append(f.reorders, positions)
	return nil
}

// memStore is an in-memory Store with snapshot-restore transactions.
type memStore struct {
	templates map[uint]*models.Template
	active    map[string]uint
	nextID    uint

	remoteIDWrites map[uint]string
	failChannel    string // CreateChannel for this name errors
}

func newMemStore() *memStore {
	return &memStore{
		templates:      make(map[uint]*models.Template),
		active:         make(map[string]uint),
		remoteIDWrites: make(map[uint]string),
	}
}

// seed registers a pre-built template as the guild's active one,
// assigning ids to any record that has none.
func (m *memStore) seed(t *models.Template) {
	bump := func(id uint) uint {
		if id == 0 {
			m.nextID++
			return m.nextID
		}
		if id > m.nextID {
			m.nextID = id
		}
		return id
	}
	t.ID = bump(t.ID)
	for i := range t.Categories {
		t.Categories[i].ID = bump(t.Categories[i].ID)
		t.Categories[i].TemplateID = t.ID
	}
	for i := range t.Channels {
		t.Channels[i].ID = bump(t.Channels[i].ID)
		t.Channels[i].TemplateID = t.ID
	}
	m.templates[t.ID] = t
	m.active[t.GuildID] = t.ID
}

func (m *memStore) ActiveTemplate(guildID string) (*models.Template, error) {
	id, ok := m.active[guildID]
	if !ok {
		return nil, ErrNoTemplate
	}
	return m.templates[id], nil
}

func (m *memStore) TemplateForGuild(guildID string) (*models.Template, error) {
	for _, t := range m.templates {
		if t.GuildID == guildID {
			return t, nil
		}
	}
	return nil, ErrNoTemplate
}

func (m *memStore) CreateTemplate(t *models.Template) error {
	m.nextID++
	t.ID = m.nextID
	m.templates[t.ID] = t
	return nil
}

func (m *memStore) CreateCategory(c *models.TemplateCategory) error {
	t, ok := m.templates[c.TemplateID]
	if !ok {
		return fmt.Errorf("no template %d", c.TemplateID)
	}
	m.nextID++
	c.ID = m.nextID
	t.Categories = append(t.Categories, *c)
	return nil
}

func (m *memStore) CreateChannel(c *models.TemplateChannel) error {
	if m.failChannel != "" && c.Name == m.failChannel {
		return fmt.Errorf("simulated write failure for %q", c.Name)
	}
	t, ok := m.templates[c.TemplateID]
	if !ok {
		return fmt.Errorf("no template %d", c.TemplateID)
	}
	m.nextID++
	c.ID = m.nextID
	t.Channels = append(t.Channels, *c)
	return nil
}

func (m *memStore) SetChannelRemoteID(templateChannelID uint, remoteID string) error {
	m.remoteIDWrites[templateChannelID] = remoteID
	for _, t := range m.templates {
		for i := range t.Channels {
			if t.Channels[i].ID == templateChannelID {
				t.Channels[i].ChannelID = remoteID
				return nil
			}
		}
	}
	return fmt.Errorf("no template channel %d", templateChannelID)
}

func (m *memStore) SetActiveTemplate(guildID string, templateID uint) error {
	m.active[guildID] = templateID
	return nil
}

func (m *memStore) SetDeleteUnmanaged(templateID uint, value bool) error {
	t, ok := m.templates[templateID]
	if !ok {
		return fmt.Errorf("no template %d", templateID)
	}
	t.DeleteUnmanaged = value
	return nil
}

func (m *memStore) Transaction(fn func(Store) error) error {
	backup := m.snapshot()
	if err := fn(m); err != nil {
		m.templates = backup.templates
		m.active = backup.active
		m.nextID = backup.nextID
		return err
	}
	return nil
}

func (m *memStore) snapshot() *memStore {
	out := newMemStore()
	out.nextID = m.nextID
	raw, _ := json.Marshal(m.templates)
	json.Unmarshal(raw, &out.templates)
	for k, v := range m.active {
		out.active[k] = v
	}
	return out
}
