package sync

import (
	"errors"

	"github.com/Haibread/guildsync/models"
)

// ErrNoTemplate is returned when a guild has no active template.
var ErrNoTemplate = errors.New("guild has no active template")

// Store is the slice of the database the engine needs. Implementations
// must return templates with categories, channels and permissions
// preloaded and ordered by position.
type Store interface {
	// ActiveTemplate returns the template the guild's config points at,
	// or ErrNoTemplate.
	ActiveTemplate(guildID string) (*models.Template, error)
	// TemplateForGuild returns any existing template for the guild, or
	// ErrNoTemplate. Used by capture to detect the no-op case.
	TemplateForGuild(guildID string) (*models.Template, error)

	CreateTemplate(t *models.Template) error
	CreateCategory(c *models.TemplateCategory) error
	CreateChannel(c *models.TemplateChannel) error

	// SetChannelRemoteID records a freshly learned remote id on a
	// template channel.
	SetChannelRemoteID(templateChannelID uint, remoteID string) error
	SetActiveTemplate(guildID string, templateID uint) error
	SetDeleteUnmanaged(templateID uint, value bool) error

	// Transaction runs fn against a store whose writes all commit or
	// all roll back together.
	Transaction(fn func(Store) error) error
}
