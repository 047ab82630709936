package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/faideww/claw-machine/internal/announcer"
	"github.com/faideww/claw-machine/internal/bot"
	"github.com/faideww/claw-machine/internal/clock"
	"github.com/faideww/claw-machine/internal/game"
	"github.com/faideww/claw-machine/internal/prize"
	"github.com/faideww/claw-machine/internal/ratelimit"
	"github.com/faideww/claw-machine/internal/store"
)

func main() {
	config, err := LoadConfig()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	defaults := prize.Defaults()
	if config.PrizesJson != "" {
		defaults, err = prize.LoadDefaultsFromJSON(config.PrizesJson)
		if err != nil {
			log.Fatal(err)
		}
	}

	st, err := store.OpenSQLite(config.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := clock.NewLoop()
	go loop.Run(ctx)
	defer loop.Stop()

	machine, err := game.New(ctx, game.Options{
		Scheduler:       loop,
		Snapshots:       store.NewSnapshots(st),
		Resolver:        newResolver(config.Resolver),
		Announcer:       newAnnouncer(config),
		AnnounceTimeout: config.AnnouncerTimeout,
		HistoryCap:      config.HistoryCap,
		Defaults:        defaults,
	})
	if err != nil {
		log.Fatal("failed to build machine: ", err)
	}
	defer machine.Close()

	session, err := discordgo.New("Bot " + config.DiscordToken)
	if err != nil {
		log.Fatal("failed to start session: ", err)
	}

	session.ShardCount = config.ShardCount
	session.ShardID = config.ShardId

	if err := session.Open(); err != nil {
		log.Fatal("failed to open session connection: ", err)
	}
	defer session.Close()

	appId := session.State.User.ID

	playLim := ratelimit.NewLimiter(
		time.Duration(config.CooldownPlayMin)*time.Second,
		time.Duration(config.CooldownPlayMax)*time.Second,
		nil,
	)
	teardown, err := bot.Setup(session, appId, config.DevGuild, machine, playLim)
	if err != nil {
		log.Fatal("failed to setup bot: ", err)
	}
	defer teardown()

	log.Println("Claw machine is running")
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func newResolver(kind string) prize.Resolver {
	if kind == "random" {
		return prize.NewRandomResolver(nil)
	}
	return prize.ZoneResolver{}
}

func newAnnouncer(config *Config) announcer.Announcer {
	if config.AnnouncerAPIKey == "" {
		log.Println("no ANNOUNCER_API_KEY, using scripted lines")
		return announcer.Static{}
	}
	return announcer.NewOpenAI(announcer.OpenAIConfig{
		APIKey:  config.AnnouncerAPIKey,
		Model:   config.AnnouncerModel,
		BaseURL: config.AnnouncerBaseURL,
	})
}
