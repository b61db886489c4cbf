package commands

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/Haibread/guildsync/sync"
)

var (
	reconciler *sync.Reconciler

	botCommands = []*discordgo.ApplicationCommand{
		{
			Type:        discordgo.ChatApplicationCommand,
			Name:        "ping",
			Description: "Basic command",
		},
		{
			Type:        discordgo.ChatApplicationCommand,
			Name:        "capture",
			Description: "Record this guild's current structure as its template",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Template name (defaults to the guild name)",
				},
			},
		},
		{
			Type:        discordgo.ChatApplicationCommand,
			Name:        "sync",
			Description: "Reconcile this guild against its active template",
		},
		{
			Type:        discordgo.ChatApplicationCommand,
			Name:        "template",
			Description: "Show the active template",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "prune",
					Description: "Allow sync to delete channels not in the template",
				},
			},
		},
	}

	commandHandlers = map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"ping":     Ping,
		"capture":  Capture,
		"sync":     Sync,
		"template": TemplateInfo,
	}
)

func RegisterCommands(dg *discordgo.Session, r *sync.Reconciler, log *zap.SugaredLogger) {
	reconciler = r
	addCommands(dg, log)
	addHandlers(dg)
}

func addCommands(dg *discordgo.Session, log *zap.SugaredLogger) {
	log.Info("Adding commands")
	User, _ := dg.User("@me")
	UserID := User.ID
	_, err := dg.ApplicationCommandBulkOverwrite(UserID, "", botCommands)
	if err != nil {
		log.Panicf("Cannot create commands : %v", err)
	}
}

func addHandlers(dg *discordgo.Session) {
	dg.AddHandler(
		func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if h, ok := commandHandlers[i.ApplicationCommandData().Name]; ok {
				h(s, i)
			}
		})
}

func RemoveCommands(dg *discordgo.Session, log *zap.SugaredLogger) {
	applicationsCommandsAvailable, err := dg.ApplicationCommands(dg.State.User.ID, "")
	if err != nil {
		log.Fatal(err)
	}
	for _, v := range applicationsCommandsAvailable {
		if err = dg.ApplicationCommandDelete(dg.State.User.ID, "", v.ID); err != nil {
			log.Infof("Could not delete '%s' command: %v", v.Name, err)
		}
		log.Infof("Deleted command %s", v.Name)
	}
	log.Info("Deleted commands")
}
