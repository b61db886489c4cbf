package sync

import (
	"errors"
	"fmt"

	"github.com/Haibread/guildsync/models"
)

// Capture records the guild's current live structure as a fresh
// template and makes it the guild's active one. If the guild already
// has a template, capture changes nothing structural: it only repoints
// the active template and returns the existing record, with created
// false.
//
// Unlike reconciliation, capture is all or nothing: the template and
// every category, channel and overwrite row commit in one transaction,
// and any failure rolls the whole snapshot back.
func (r *Reconciler) Capture(guildID, name string) (tpl *models.Template, created bool, err error) {
	existing, err := r.Store.TemplateForGuild(guildID)
	if err == nil {
		if err := r.Store.SetActiveTemplate(guildID, existing.ID); err != nil {
			return nil, false, err
		}
		r.Log.Infof("guild %s: template %q already exists, re-linked as active", guildID, existing.Name)
		return existing, false, nil
	}
	if !errors.Is(err, ErrNoTemplate) {
		return nil, false, err
	}

	live, err := FetchLive(r.Client, guildID)
	if err != nil {
		return nil, false, fmt.Errorf("fetching live state for guild %s: %w", guildID, err)
	}

	err = r.Store.Transaction(func(s Store) error {
		tpl = &models.Template{GuildID: guildID, Name: name}
		if err := s.CreateTemplate(tpl); err != nil {
			return err
		}

		// Live category id to created template category id, for parent
		// linking of the channels below.
		catTemplate := make(map[string]uint, len(live.Categories))
		for pos, lc := range live.Categories {
			cat := &models.TemplateCategory{
				TemplateID:  tpl.ID,
				Name:        lc.Name,
				Position:    pos,
				Permissions: r.captureCategoryPermissions(lc, live),
			}
			if err := s.CreateCategory(cat); err != nil {
				return err
			}
			catTemplate[lc.ID] = cat.ID
		}

		for pos, lc := range live.Channels {
			ch := &models.TemplateChannel{
				TemplateID:     tpl.ID,
				Name:           lc.Name,
				Kind:           lc.Kind,
				Position:       pos,
				ChannelID:      lc.ID,
				Topic:          lc.Topic,
				NSFW:           lc.NSFW,
				Slowmode:       lc.Slowmode,
				Bitrate:        lc.Bitrate,
				UserLimit:      lc.UserLimit,
				ThreadSlowmode: lc.ThreadSlow,
				Permissions:    r.captureChannelPermissions(lc, live),
			}
			if lc.ParentID != "" {
				if id, ok := catTemplate[lc.ParentID]; ok {
					parentID := id
					ch.CategoryID = &parentID
				}
			}
			if err := s.CreateChannel(ch); err != nil {
				return err
			}
		}

		return s.SetActiveTemplate(guildID, tpl.ID)
	})
	if err != nil {
		return nil, false, fmt.Errorf("capturing guild %s: %w", guildID, err)
	}

	r.Log.Infof("guild %s: captured template %q: %d categories, %d channels", guildID, name, len(live.Categories), len(live.Channels))
	return tpl, true, nil
}

func (r *Reconciler) captureCategoryPermissions(lc *LiveCategory, live *LiveState) []models.CategoryPermission {
	var out []models.CategoryPermission
	for _, o := range captureRoleOverwrites(lc.Overwrites, live) {
		out = append(out, models.CategoryPermission{RoleName: o.Role, Allow: o.Allow, Deny: o.Deny})
	}
	return out
}

func (r *Reconciler) captureChannelPermissions(lc *LiveChannel, live *LiveState) []models.ChannelPermission {
	var out []models.ChannelPermission
	for _, o := range captureRoleOverwrites(lc.Overwrites, live) {
		out = append(out, models.ChannelPermission{RoleName: o.Role, Allow: o.Allow, Deny: o.Deny})
	}
	return out
}

// captureRoleOverwrites maps live role-id overwrites back to role
// names. All-zero pairs are noise and are not persisted; overwrites for
// ids that no longer resolve to a role are dropped.
func captureRoleOverwrites(overwrites []*Overwrite, live *LiveState) []roleOverwrite {
	var out []roleOverwrite
	for _, o := range overwrites {
		if o.Allow == 0 && o.Deny == 0 {
			continue
		}
		role := live.RoleByID(o.RoleID)
		if role == nil {
			continue
		}
		ro := roleOverwrite{Role: role.Name}
		if o.Allow != 0 {
			allow := o.Allow
			ro.Allow = &allow
		}
		if o.Deny != 0 {
			deny := o.Deny
			ro.Deny = &deny
		}
		out = append(out, ro)
	}
	return out
}
