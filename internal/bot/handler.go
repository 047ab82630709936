package bot

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/faideww/claw-machine/internal/game"
	"github.com/faideww/claw-machine/internal/history"
	"github.com/faideww/claw-machine/internal/prize"
	"github.com/faideww/claw-machine/internal/ratelimit"
)

const eventBuffer = 64

type module struct {
	s          *discordgo.Session
	appId      string
	scopeGuild string
	machine    *game.Machine
	playLim    *ratelimit.Limiter

	// startMu pairs a pending channel with the StartAs call that uses it.
	startMu     sync.Mutex
	mu          sync.Mutex
	roundChan   string
	pendingChan string
	events      chan routedEvent
	quit        chan struct{}
	stopPosting sync.Once
}

// routedEvent carries the channel a machine event belongs to, fixed when
// the event was emitted.
type routedEvent struct {
	channel string
	event   game.Event
}

func Setup(
	session *discordgo.Session,
	appId, scopeGuild string,
	machine *game.Machine,
	playLim *ratelimit.Limiter,
) (func(), error) {

	m := &module{
		s:          session,
		appId:      appId,
		scopeGuild: scopeGuild,
		machine:    machine,
		playLim:    playLim,
		events:     make(chan routedEvent, eventBuffer),
		quit:       make(chan struct{}),
	}

	cmds := commandDefs()

	created, err := session.ApplicationCommandBulkOverwrite(appId, scopeGuild, cmds)
	if err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}

	for _, c := range created {
		log.Printf("command active: %s (%s)", c.Name, c.Description)
	}

	machine.Subscribe(m.onEvent)
	go m.postEvents()

	session.AddHandler(m.onInteraction)

	return func() {
		m.stopPosting.Do(func() { close(m.quit) })
	}, nil
}

// onEvent runs on the game loop, so it only hands the event over. A round
// starting moves the pending channel into place before anything from that
// round is routed.
func (m *module) onEvent(e game.Event) {
	m.mu.Lock()
	if e.Kind == game.StatusChanged && e.Status == game.Countdown && m.pendingChan != "" {
		m.roundChan, m.pendingChan = m.pendingChan, ""
	}
	ch := m.roundChan
	m.mu.Unlock()

	select {
	case m.events <- routedEvent{channel: ch, event: e}:
	default:
		log.Printf("bot: poster is behind, dropping event %d", e.Kind)
	}
}

func (m *module) postEvents() {
	for {
		select {
		case <-m.quit:
			return
		case re := <-m.events:
			msg, ok := progressMessage(re.event)
			if !ok || re.channel == "" {
				continue
			}
			if _, err := m.s.ChannelMessageSendComplex(re.channel, msg); err != nil {
				logREST("progress post failed", err)
			}
		}
	}
}

func (m *module) setPending(id string) {
	m.mu.Lock()
	m.pendingChan = id
	m.mu.Unlock()
}

// startRound charges the player's cooldown and starts a round whose
// progress goes to channelId. A positive wait means the player is cooling
// down; zero with started false means the machine was busy.
func (m *module) startRound(guildId, userId, channelId string, sess history.Session) (started bool, wait time.Duration) {
	if ok, rem := m.playLim.TryPlayer(guildId, userId); !ok {
		return false, rem
	}

	m.startMu.Lock()
	defer m.startMu.Unlock()

	m.setPending(channelId)
	if !m.machine.StartAs(sess) {
		m.setPending("")
		m.playLim.Refund(guildId, userId)
		return false, 0
	}
	return true, 0
}

func (m *module) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		switch i.MessageComponentData().CustomID {
		case stopButtonId:
			m.handleStop(s, i)
		case resetButtonId:
			m.handleReset(s, i)
		}
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		sub, args := subcommandOf(data)
		switch data.Name {
		case "claw":
			m.handleClaw(s, i, sub)
		case "prizes":
			m.handlePrizes(s, i, sub, args)
		case "favorites":
			m.handleFavorites(s, i, sub, args)
		case "history":
			m.handleHistory(s, i, sub, args)
		}
	}
}

func (m *module) handleClaw(s *discordgo.Session, i *discordgo.InteractionCreate, sub string) {
	switch sub {
	case "start":
		m.handleStart(s, i)
	case "stop":
		m.handleStop(s, i)
	case "reset":
		m.handleReset(s, i)
	case "refresh":
		m.machine.Refresh()
		respondText(s, i, "🔀 Prizes reshuffled. The machine is ready.")
	case "status":
		respondEmbed(s, i, statusEmbed(m.machine.Snapshot()))
	}
}

func (m *module) handleStart(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// Validate execution context (/claw start must be run in a server)
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		respondEphemeral(s, i, "Use this command in a server!")
		return
	}
	userId := i.Member.User.ID

	sess := history.Session{Player: displayName(i.Member), Device: "discord"}
	started, wait := m.startRound(i.GuildID, userId, i.ChannelID, sess)
	switch {
	case wait > 0:
		respondEphemeral(s, i, fmt.Sprintf("⏳ Out of coins… try again in %s.", pretty(wait)))
		return
	case !started:
		respondEphemeral(s, i, fmt.Sprintf("The machine is busy (%s).", m.machine.Snapshot().Status))
		return
	}

	respondText(s, i, fmt.Sprintf("🪙 %s is up! Get ready...", sess.Player))
}

func (m *module) handleStop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !m.machine.Stop() {
		respondEphemeral(s, i, "The claw isn't moving.")
		return
	}
	respondText(s, i, "🪝 Dropping the claw...")
}

func (m *module) handleReset(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !m.machine.Reset() {
		respondEphemeral(s, i, "Nothing to reset.")
		return
	}
	respondText(s, i, "✨ Machine reset. `/claw start` to play again!")
}

func (m *module) handlePrizes(s *discordgo.Session, i *discordgo.InteractionCreate, sub string, args map[string]string) {
	id := args["id"]

	switch sub {
	case "list":
		respondEmbed(s, i, &discordgo.MessageEmbed{
			Title:       "🎁 Prizes",
			Description: prizeLines(m.machine.Items()),
			Color:       machineColor,
		})

	case "liked":
		liked := m.machine.Liked()
		if len(liked) == 0 {
			respondEphemeral(s, i, "Nothing liked yet - try `/prizes like`.")
			return
		}
		respondEmbed(s, i, &discordgo.MessageEmbed{
			Title:       "♥ Liked prizes",
			Description: prizeLines(liked),
			Color:       machineColor,
		})

	case "rename":
		name := strings.TrimSpace(args["name"])
		if name == "" {
			respondEphemeral(s, i, "A prize needs a name.")
			return
		}
		if !m.machine.UpdateItem(id, prize.Patch{Name: &name}) {
			respondEphemeral(s, i, unknownId(id))
			return
		}
		respondText(s, i, fmt.Sprintf("Renamed `%s` to **%s**.", id, name))

	case "symbol":
		code := strings.TrimSpace(args["code"])
		if code == "" {
			respondEphemeral(s, i, "A symbol can't be empty.")
			return
		}
		if !m.machine.UpdateItem(id, prize.Patch{Visual: prize.Symbol{Code: code}}) {
			respondEphemeral(s, i, unknownId(id))
			return
		}
		respondText(s, i, fmt.Sprintf("`%s` now shows %s.", id, code))

	case "add":
		name := strings.TrimSpace(args["name"])
		if name == "" {
			respondEphemeral(s, i, "A prize needs a name.")
			return
		}
		it := prize.Item{Name: name, Color: machineColor}
		if code := strings.TrimSpace(args["symbol"]); code != "" {
			it.Visual = prize.Symbol{Code: code}
		}
		added := m.machine.AddItem(it)
		respondText(s, i, fmt.Sprintf("Added %s **%s** · `%s`", prize.Label(added.Visual), added.Name, added.Id))

	case "remove":
		err := m.machine.RemoveItem(id)
		switch {
		case errors.Is(err, prize.ErrLastItem):
			respondEphemeral(s, i, "The machine needs at least one prize.")
		case err != nil:
			respondEphemeral(s, i, unknownId(id))
		default:
			respondText(s, i, fmt.Sprintf("Removed `%s`.", id))
		}

	case "like":
		liked, ok := m.machine.ToggleLiked(id)
		if !ok {
			respondEphemeral(s, i, unknownId(id))
			return
		}
		if liked {
			respondEphemeral(s, i, "♥ Liked.")
		} else {
			respondEphemeral(s, i, "Unliked.")
		}

	case "favorite":
		fav, ok := m.machine.SaveFavorite(id)
		if !ok {
			respondEphemeral(s, i, unknownId(id))
			return
		}
		respondText(s, i, fmt.Sprintf("⭐ Saved %s **%s** to favorites.", prize.Label(fav.Visual), fav.Name))
	}
}

func (m *module) handleFavorites(s *discordgo.Session, i *discordgo.InteractionCreate, sub string, args map[string]string) {
	switch sub {
	case "list":
		favs := m.machine.Favorites()
		if len(favs) == 0 {
			respondEphemeral(s, i, "No favorites yet - try `/prizes favorite`.")
			return
		}
		respondEmbed(s, i, &discordgo.MessageEmbed{
			Title:       "⭐ Favorites",
			Description: favoriteLines(favs),
			Color:       machineColor,
		})

	case "remove":
		if !m.machine.RemoveFavorite(args["id"]) {
			respondEphemeral(s, i, unknownId(args["id"]))
			return
		}
		respondText(s, i, "Favorite removed.")
	}
}

func (m *module) handleHistory(s *discordgo.Session, i *discordgo.InteractionCreate, sub string, args map[string]string) {
	switch sub {
	case "list":
		// Send a deferred ack so we don't hit a timeout while the loop is busy
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		}); err != nil {
			logREST("defer response failed", err)
			return
		}

		recs := m.machine.History()
		if len(recs) == 0 {
			editResponseText(s, i, "No catches yet - type `/claw start` to make the first!")
			return
		}

		embed := &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("🏆 Recent catches (%d/%d)", len(recs), m.machine.HistoryCap()),
			Description: historyLines(recs),
			Color:       0xf1c40f,
		}
		if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Embeds: &[]*discordgo.MessageEmbed{embed},
		}); err != nil {
			logREST("edit failed", err)
		}

	case "delete":
		if !m.machine.DeleteRecord(args["id"]) {
			respondEphemeral(s, i, unknownId(args["id"]))
			return
		}
		respondText(s, i, "Catch deleted.")

	case "clear":
		m.machine.ClearHistory()
		respondText(s, i, "History cleared.")
	}
}

// subcommandOf returns the invoked subcommand and its string arguments.
func subcommandOf(data discordgo.ApplicationCommandInteractionData) (string, map[string]string) {
	args := make(map[string]string)
	if len(data.Options) == 0 {
		return "", args
	}
	sub := data.Options[0]
	for _, opt := range sub.Options {
		if opt.Type == discordgo.ApplicationCommandOptionString {
			args[opt.Name] = opt.StringValue()
		}
	}
	return sub.Name, args
}

func displayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}

func unknownId(id string) string {
	return fmt.Sprintf("Nothing found with id `%s`.", id)
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	respond(s, i, &discordgo.InteractionResponseData{
		Content: msg,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func respondText(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	respond(s, i, &discordgo.InteractionResponseData{Content: msg})
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	respond(s, i, &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}})
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		logREST("respond failed", err)
	}
}

func editResponseText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, _ = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content})
}

func logREST(msg string, err error) {
	if rerr, ok := err.(*discordgo.RESTError); ok && rerr.Message != nil {
		log.Printf("%s: code=%d msg=%s", msg, rerr.Message.Code, rerr.Message.Message)
	} else {
		log.Printf("%s: %v", msg, err)
	}
}
