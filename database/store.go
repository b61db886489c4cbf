package database

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Haibread/guildsync/models"
	"github.com/Haibread/guildsync/sync"
)

// GormStore implements sync.Store on a gorm database.
type GormStore struct {
	db *gorm.DB
}

var _ sync.Store = (*GormStore)(nil)

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ActiveTemplate(guildID string) (*models.Template, error) {
	var cfg models.GuildConfig
	err := s.db.Where("guild_id = ?", guildID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sync.ErrNoTemplate
	}
	if err != nil {
		return nil, err
	}
	if cfg.ActiveTemplateID == nil {
		return nil, sync.ErrNoTemplate
	}
	return s.loadTemplate(*cfg.ActiveTemplateID)
}

func (s *GormStore) TemplateForGuild(guildID string) (*models.Template, error) {
	var tpl models.Template
	err := s.db.Where("guild_id = ?", guildID).First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sync.ErrNoTemplate
	}
	if err != nil {
		return nil, err
	}
	return s.loadTemplate(tpl.ID)
}

func (s *GormStore) loadTemplate(id uint) (*models.Template, error) {
	var tpl models.Template
	err := s.db.
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Categories.Permissions").
		Preload("Channels", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Channels.Permissions").
		First(&tpl, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sync.ErrNoTemplate
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (s *GormStore) CreateTemplate(t *models.Template) error {
	return s.db.Create(t).Error
}

func (s *GormStore) CreateCategory(c *models.TemplateCategory) error {
	return s.db.Create(c).Error
}

func (s *GormStore) CreateChannel(c *models.TemplateChannel) error {
	return s.db.Create(c).Error
}

func (s *GormStore) SetChannelRemoteID(templateChannelID uint, remoteID string) error {
	return s.db.Model(&models.TemplateChannel{}).
		Where("id = ?", templateChannelID).
		Update("channel_id", remoteID).Error
}

func (s *GormStore) SetActiveTemplate(guildID string, templateID uint) error {
	var cfg models.GuildConfig
	if err := s.db.Where(models.GuildConfig{GuildID: guildID}).FirstOrCreate(&cfg).Error; err != nil {
		return err
	}
	return s.db.Model(&cfg).Update("active_template_id", templateID).Error
}

func (s *GormStore) SetDeleteUnmanaged(templateID uint, value bool) error {
	return s.db.Model(&models.Template{}).
		Where("id = ?", templateID).
		Update("delete_unmanaged", value).Error
}

func (s *GormStore) Transaction(fn func(sync.Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
