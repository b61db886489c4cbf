package commands

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/Haibread/guildsync/sync"
)

func Ping(s *discordgo.Session, i *discordgo.InteractionCreate) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseType(4),
		Data: &discordgo.InteractionResponseData{
			Content: "Pong",
		},
	})
}

// Capture snapshots the guild's current structure into a template. If
// the guild already has one, nothing is overwritten and the existing
// template is reported.
func Capture(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferResponse(s, i)

	name := ""
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "name" {
			name = opt.StringValue()
		}
	}
	if name == "" {
		name = guildName(s, i.GuildID)
	}

	unlock := sync.LockGuild(i.GuildID)
	tpl, created, err := reconciler.Capture(i.GuildID, name)
	unlock()

	switch {
	case err != nil:
		reconciler.Log.Errorf("guild %s: capture: %v", i.GuildID, err)
		followUp(s, i, "Capture failed, nothing was saved.")
	case !created:
		followUp(s, i, fmt.Sprintf("Template **%s** already exists for this guild and is now active.", tpl.Name))
	default:
		followUp(s, i, fmt.Sprintf("Captured template **%s**: %d categories, %d channels.", tpl.Name, len(tpl.Categories), len(tpl.Channels)))
	}
}

// Sync reconciles the guild against its active template and reports
// the pass counts, including partial failures.
func Sync(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferResponse(s, i)

	unlock := sync.LockGuild(i.GuildID)
	summary, err := reconciler.Run(i.GuildID)
	unlock()

	if errors.Is(err, sync.ErrNoTemplate) {
		followUp(s, i, "This guild has no active template. Run `/capture` first.")
		return
	}
	if err != nil {
		reconciler.Log.Errorf("guild %s: sync: %v", i.GuildID, err)
		followUp(s, i, "Sync failed before any changes were made.")
		return
	}

	msg := fmt.Sprintf("Sync done: %d created, %d updated, %d unchanged, %d deleted.",
		summary.Created, summary.Updated, summary.Skipped, summary.Deleted)
	if summary.Failed > 0 {
		msg += fmt.Sprintf(" %d resources failed, see the logs.", summary.Failed)
	}
	followUp(s, i, msg)
}

// TemplateInfo shows the active template and optionally flips the
// delete-unmanaged flag.
func TemplateInfo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	tpl, err := reconciler.Store.ActiveTemplate(i.GuildID)
	if errors.Is(err, sync.ErrNoTemplate) {
		respond(s, i, "This guild has no active template. Run `/capture` first.")
		return
	}
	if err != nil {
		reconciler.Log.Errorf("guild %s: template info: %v", i.GuildID, err)
		respond(s, i, "Could not load the template.")
		return
	}

	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "prune" {
			value := opt.BoolValue()
			if err := reconciler.Store.SetDeleteUnmanaged(tpl.ID, value); err != nil {
				reconciler.Log.Errorf("guild %s: setting prune flag: %v", i.GuildID, err)
				respond(s, i, "Could not update the prune flag.")
				return
			}
			tpl.DeleteUnmanaged = value
		}
	}

	respond(s, i, fmt.Sprintf("Template **%s**: %d categories, %d channels, prune unmanaged: %t.",
		tpl.Name, len(tpl.Categories), len(tpl.Channels), tpl.DeleteUnmanaged))
}

func guildName(s *discordgo.Session, guildID string) string {
	if g, err := s.State.Guild(guildID); err == nil {
		return g.Name
	}
	if g, err := s.Guild(guildID); err == nil {
		return g.Name
	}
	return guildID
}

func deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func followUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	})
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}
