package models

import "gorm.io/gorm"

// Template is the persisted desired structure for one guild.
type Template struct {
	gorm.Model
	GuildID         string `json:"guild_id" gorm:"index"`
	Name            string `json:"name"`
	DeleteUnmanaged bool   `json:"delete_unmanaged"`

	Categories []TemplateCategory `json:"categories"`
	Channels   []TemplateChannel  `json:"channels"`
}

// TemplateCategory is one desired category. Name is the identity key:
// categories are matched against the live guild by name alone.
type TemplateCategory struct {
	gorm.Model
	TemplateID uint   `json:"template_id" gorm:"index"`
	Name       string `json:"name"`
	Position   int    `json:"position"`

	Permissions []CategoryPermission `json:"permissions"`
}

// TemplateChannel is one desired channel. CategoryID links it to a
// TemplateCategory of the same template; nil means top-level.
// ChannelID holds the last known remote id and is rewritten whenever a
// run re-finds the channel by name, so later runs match by id again.
type TemplateChannel struct {
	gorm.Model
	TemplateID uint        `json:"template_id" gorm:"index"`
	CategoryID *uint       `json:"category_id"`
	Name       string      `json:"name"`
	Kind       ChannelKind `json:"kind"`
	Position   int         `json:"position"`
	ChannelID  string      `json:"channel_id"`

	Topic     string `json:"topic"`
	NSFW      bool   `json:"nsfw"`
	Slowmode  int    `json:"slowmode"`
	Bitrate   int    `json:"bitrate"`
	UserLimit int    `json:"user_limit"`

	// Forum only: default slowmode applied to newly created threads.
	ThreadSlowmode int `json:"thread_slowmode"`

	Permissions []ChannelPermission `json:"permissions"`
}

// CategoryPermission is a per-role allow/deny pair on a category. Roles
// are referenced by name, not id, so a template survives a guild being
// rebuilt from scratch. Nil bitfields mean no bits set.
type CategoryPermission struct {
	gorm.Model
	TemplateCategoryID uint   `json:"template_category_id" gorm:"index"`
	RoleName           string `json:"role_name"`
	Allow              *int64 `json:"allow"`
	Deny               *int64 `json:"deny"`
}

// ChannelPermission is the channel-scoped variant of CategoryPermission.
type ChannelPermission struct {
	gorm.Model
	TemplateChannelID uint   `json:"template_channel_id" gorm:"index"`
	RoleName          string `json:"role_name"`
	Allow             *int64 `json:"allow"`
	Deny              *int64 `json:"deny"`
}

// GuildConfig carries the per-guild settings the bot owns, including
// which template is currently active for the guild.
type GuildConfig struct {
	gorm.Model
	GuildID          string `json:"guild_id" gorm:"uniqueIndex"`
	ActiveTemplateID *uint  `json:"active_template_id"`
}
