package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Haibread/guildsync/commands"
	"github.com/Haibread/guildsync/database"
	"github.com/Haibread/guildsync/sync"
)

var log *zap.SugaredLogger

func main() {
	initLogger()
	initconfig()
	database.InitDB(viper.GetString("database_path"))

	dg, err := discordgo.New("Bot " + viper.GetString("token"))
	if err != nil {
		log.Fatal("error creating discord session, ", err)
	}

	log.Info("Opening Websocket connection")
	err = dg.Open()
	if err != nil {
		log.Fatalf("Could not open Websocket connection %s", err)
	}

	dg.UpdateListeningStatus(viper.GetString("bot_status"))
	dg.Identify.Intents = discordgo.IntentsGuilds

	reconciler := sync.New(sync.NewDiscordClient(dg), database.NewStore(database.GetDB()), log)

	log.Info("Adding handlers")
	commands.RegisterCommands(dg, reconciler, log)

	startSyncLoop(dg, reconciler)

	log.Info("Bot is now running.  Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	commands.RemoveCommands(dg, log)

	defer dg.Close()
}

func initLogger() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log = logger.Sugar()
}

func initconfig() {
	viper.SetDefault("token", "")
	viper.SetDefault("bot_status", "Keeping your guild in shape")
	viper.SetDefault("database_path", "guildsync.db")
	viper.SetDefault("sync_interval", 0)
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	err := viper.ReadInConfig()
	if err != nil {
		log.Fatal(err)
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)
	})
	viper.WatchConfig()
}
