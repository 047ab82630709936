package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/faideww/claw-machine/internal/game"
	"github.com/faideww/claw-machine/internal/history"
	"github.com/faideww/claw-machine/internal/prize"
)

const (
	stopButtonId  = "claw:stop"
	resetButtonId = "claw:reset"

	machineColor = 0xEC4899
)

func button(label, id string, style discordgo.ButtonStyle) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: label, Style: style, CustomID: id},
			},
		},
	}
}

// progressMessage turns a machine event into something to post in the
// round's channel. Events that are not worth a message report false.
func progressMessage(e game.Event) (*discordgo.MessageSend, bool) {
	switch e.Kind {
	case game.CountdownTick:
		return &discordgo.MessageSend{Content: fmt.Sprintf("**%d**...", e.Countdown)}, true

	case game.StatusChanged:
		if e.Status != game.Moving {
			return nil, false
		}
		return &discordgo.MessageSend{
			Content:    "🕹️ The claw is moving. Press **Stop** to drop it!",
			Components: button("Stop", stopButtonId, discordgo.DangerButton),
		}, true

	case game.Recorded:
		if e.Item == nil || e.Record == nil {
			return nil, false
		}
		return &discordgo.MessageSend{
			Embeds:     []*discordgo.MessageEmbed{winEmbed(*e.Item, *e.Record)},
			Components: button("Play again", resetButtonId, discordgo.PrimaryButton),
		}, true

	case game.Announced:
		if e.Announcement.Text == "" {
			return nil, false
		}
		return &discordgo.MessageSend{Content: "📣 *" + e.Announcement.Text + "*"}, true
	}
	return nil, false
}

func winEmbed(it prize.Item, rec history.Record) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s won %s!", rec.Player, it.Name),
		Description: fmt.Sprintf("%s  **%s**", prize.Label(rec.Visual), rec.ItemName),
		Color:       it.Color,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Added to history · /history list",
		},
		Timestamp: rec.CaughtAt.Format(time.RFC3339),
	}
}

func statusEmbed(snap game.Snapshot) *discordgo.MessageEmbed {
	player := snap.Session.Player
	if snap.Session.IsGuest() {
		player = "Guest"
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Status", Value: snap.Status.String(), Inline: true},
		{Name: "Claw", Value: fmt.Sprintf("x %.1f · y %.0f", snap.Claw.X, snap.Claw.Y), Inline: true},
		{Name: "Player", Value: player, Inline: true},
	}
	if snap.Status == game.Countdown {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Countdown", Value: fmt.Sprint(snap.Countdown), Inline: true})
	}
	if snap.Caught != nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Holding",
			Value: prize.Label(snap.Caught.Visual) + " " + snap.Caught.Name,
		})
	}

	color := machineColor
	if snap.Caught != nil {
		color = snap.Caught.Color
	}

	return &discordgo.MessageEmbed{
		Title:       "🧸 Claw Machine",
		Description: "📣 *" + snap.Announcement.Text + "*",
		Color:       color,
		Fields:      fields,
	}
}

func prizeLines(items []prize.Item) string {
	b := strings.Builder{}
	for _, it := range items {
		heart := ""
		if it.Liked {
			heart = " ♥"
		}
		fmt.Fprintf(&b, "%s **%s**%s · `%s`\n", prize.Label(it.Visual), it.Name, heart, it.Id)
	}
	return b.String()
}

func favoriteLines(favs []prize.Favorite) string {
	b := strings.Builder{}
	for _, f := range favs {
		fmt.Fprintf(&b, "%s **%s** · saved <t:%d:R> · `%s`\n", prize.Label(f.Visual), f.Name, f.SavedAt.Unix(), f.Id)
	}
	return b.String()
}

func historyLines(recs []history.Record) string {
	b := strings.Builder{}
	for idx, r := range recs {
		fmt.Fprintf(&b, "**#%d** %s %s · %s · <t:%d:R> · `%s`\n",
			idx+1, prize.Label(r.Visual), r.ItemName, r.Player, r.CaughtAt.Unix(), r.Id)
	}
	return b.String()
}

func pretty(d time.Duration) string {
	// mm:ss
	if d < 0 {
		d = 0
	}
	m := int(d / time.Minute)
	s := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%d:%02d", m, s)
}
