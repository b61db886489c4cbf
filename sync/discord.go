package sync

import (
	"errors"
	"net/http"

	"github.com/Haibread/guildsync/models"
	"github.com/bwmarrin/discordgo"
)

// DiscordClient implements RemoteClient on top of a discordgo session.
type DiscordClient struct {
	Session *discordgo.Session
}

var _ RemoteClient = (*DiscordClient)(nil)

func NewDiscordClient(s *discordgo.Session) *DiscordClient {
	return &DiscordClient{Session: s}
}

func (d *DiscordClient) GuildCategories(guildID string) ([]*LiveCategory, error) {
	channels, err := d.Session.GuildChannels(guildID)
	if err != nil {
		return nil, wrapErr("list categories", err)
	}
	var out []*LiveCategory
	for _, c := range channels {
		if c.Type != discordgo.ChannelTypeGuildCategory {
			continue
		}
		out = append(out, &LiveCategory{
			ID:         c.ID,
			Name:       c.Name,
			Position:   c.Position,
			Overwrites: fromDiscordOverwrites(c.PermissionOverwrites),
		})
	}
	return out, nil
}

func (d *DiscordClient) GuildChannels(guildID string) ([]*LiveChannel, error) {
	channels, err := d.Session.GuildChannels(guildID)
	if err != nil {
		return nil, wrapErr("list channels", err)
	}
	var out []*LiveChannel
	for _, c := range channels {
		kind, ok := kindFromDiscord(c.Type)
		if !ok {
			// Threads, DMs and other types the engine does not manage.
			continue
		}
		out = append(out, &LiveChannel{
			ID:         c.ID,
			Name:       c.Name,
			Position:   c.Position,
			ParentID:   c.ParentID,
			Kind:       kind,
			Topic:      c.Topic,
			NSFW:       c.NSFW,
			Slowmode:   c.RateLimitPerUser,
			Bitrate:    c.Bitrate,
			UserLimit:  c.UserLimit,
			ThreadSlow: c.DefaultThreadRateLimitPerUser,
			Overwrites: fromDiscordOverwrites(c.PermissionOverwrites),
		})
	}
	return out, nil
}

func (d *DiscordClient) GuildRoles(guildID string) ([]*LiveRole, error) {
	roles, err := d.Session.GuildRoles(guildID)
	if err != nil {
		return nil, wrapErr("list roles", err)
	}
	out := make([]*LiveRole, 0, len(roles))
	for _, r := range roles {
		out = append(out, &LiveRole{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (d *DiscordClient) CreateCategory(guildID, name string, overwrites []*Overwrite) (string, error) {
	created, err := d.Session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildCategory,
		PermissionOverwrites: toDiscordOverwrites(overwrites),
	})
	if err != nil {
		return "", wrapErr("create category", err)
	}
	return created.ID, nil
}

func (d *DiscordClient) CreateChannel(guildID string, spec ChannelSpec) (string, error) {
	data := discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 kindToDiscord(spec.Kind),
		Topic:                spec.Topic,
		NSFW:                 spec.NSFW,
		RateLimitPerUser:     spec.Slowmode,
		Bitrate:              spec.Bitrate,
		UserLimit:            spec.UserLimit,
		ParentID:             spec.ParentID,
		PermissionOverwrites: toDiscordOverwrites(spec.Overwrites),
	}
	created, err := d.Session.GuildChannelCreateComplex(guildID, data)
	if err != nil {
		return "", wrapErr("create channel", err)
	}
	// The create payload has no slot for the forum thread default, so
	// it takes a follow-up edit.
	if spec.Kind == models.KindForum && spec.ThreadSlow > 0 {
		ts := spec.ThreadSlow
		if err := d.EditChannel(created.ID, ChannelEdit{ThreadSlow: &ts}); err != nil {
			return created.ID, err
		}
	}
	return created.ID, nil
}

func (d *DiscordClient) EditCategoryPermissions(categoryID string, overwrites []*Overwrite) error {
	return wrapErr("edit category permissions", d.patchChannel(categoryID, ChannelEdit{Overwrites: overwrites}))
}

func (d *DiscordClient) EditChannel(channelID string, edit ChannelEdit) error {
	return wrapErr("edit channel", d.patchChannel(channelID, edit))
}

// channelEditBody is the PATCH payload for a channel edit. Every field
// is a pointer so that set-to-zero edits still reach the wire:
// discordgo's own ChannelEdit tags topic, parent_id and
// permission_overwrites omitempty, which drops a move to top level, a
// topic clear, and an overwrite replacement with the empty set.
type channelEditBody struct {
	Topic                         *string                           `json:"topic,omitempty"`
	NSFW                          *bool                             `json:"nsfw,omitempty"`
	RateLimitPerUser              *int                              `json:"rate_limit_per_user,omitempty"`
	Bitrate                       *int                              `json:"bitrate,omitempty"`
	UserLimit                     *int                              `json:"user_limit,omitempty"`
	ParentID                      *string                           `json:"parent_id,omitempty"`
	DefaultThreadRateLimitPerUser *int                              `json:"default_thread_rate_limit_per_user,omitempty"`
	PermissionOverwrites          *[]*discordgo.PermissionOverwrite `json:"permission_overwrites,omitempty"`
}

func editChannelBody(edit ChannelEdit) channelEditBody {
	body := channelEditBody{
		Topic:                         edit.Topic,
		NSFW:                          edit.NSFW,
		RateLimitPerUser:              edit.Slowmode,
		Bitrate:                       edit.Bitrate,
		UserLimit:                     edit.UserLimit,
		ParentID:                      edit.ParentID,
		DefaultThreadRateLimitPerUser: edit.ThreadSlow,
	}
	if edit.Overwrites != nil {
		ow := toDiscordOverwrites(edit.Overwrites)
		body.PermissionOverwrites = &ow
	}
	return body
}

func (d *DiscordClient) patchChannel(channelID string, edit ChannelEdit) error {
	endpoint := discordgo.EndpointChannel(channelID)
	_, err := d.Session.RequestWithBucketID("PATCH", endpoint, editChannelBody(edit), endpoint)
	return err
}

func (d *DiscordClient) DeleteChannel(channelID string) error {
	_, err := d.Session.ChannelDelete(channelID)
	return wrapErr("delete channel", err)
}

func (d *DiscordClient) ReorderChannels(guildID string, positions []Position) error {
	reorder := make([]*discordgo.Channel, 0, len(positions))
	for _, p := range positions {
		reorder = append(reorder, &discordgo.Channel{ID: p.ChannelID, Position: p.Position})
	}
	return wrapErr("reorder channels", d.Session.GuildChannelsReorder(guildID, reorder))
}

func toDiscordOverwrites(overwrites []*Overwrite) []*discordgo.PermissionOverwrite {
	out := make([]*discordgo.PermissionOverwrite, 0, len(overwrites))
	for _, o := range overwrites {
		out = append(out, &discordgo.PermissionOverwrite{
			ID:    o.RoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: o.Allow,
			Deny:  o.Deny,
		})
	}
	return out
}

func fromDiscordOverwrites(overwrites []*discordgo.PermissionOverwrite) []*Overwrite {
	var out []*Overwrite
	for _, o := range overwrites {
		if o.Type != discordgo.PermissionOverwriteTypeRole {
			continue
		}
		out = append(out, &Overwrite{RoleID: o.ID, Allow: o.Allow, Deny: o.Deny})
	}
	return out
}

func kindToDiscord(k models.ChannelKind) discordgo.ChannelType {
	switch k {
	case models.KindVoice:
		return discordgo.ChannelTypeGuildVoice
	case models.KindStage:
		return discordgo.ChannelTypeGuildStageVoice
	case models.KindForum:
		return discordgo.ChannelTypeGuildForum
	case models.KindAnnouncement:
		return discordgo.ChannelTypeGuildNews
	}
	return discordgo.ChannelTypeGuildText
}

func kindFromDiscord(t discordgo.ChannelType) (models.ChannelKind, bool) {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return models.KindText, true
	case discordgo.ChannelTypeGuildVoice:
		return models.KindVoice, true
	case discordgo.ChannelTypeGuildStageVoice:
		return models.KindStage, true
	case discordgo.ChannelTypeGuildForum:
		return models.KindForum, true
	case discordgo.ChannelTypeGuildNews:
		return models.KindAnnouncement, true
	}
	return "", false
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := ErrorOther
	var rateErr *discordgo.RateLimitError
	var restErr *discordgo.RESTError
	switch {
	case errors.As(err, &rateErr):
		kind = ErrorTransient
	case errors.As(err, &restErr) && restErr.Response != nil:
		switch restErr.Response.StatusCode {
		case http.StatusForbidden:
			kind = ErrorForbidden
		case http.StatusNotFound:
			kind = ErrorNotFound
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			kind = ErrorTransient
		}
	}
	return &APIError{Kind: kind, Op: op, Err: err}
}
