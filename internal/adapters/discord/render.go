package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/pug-coordinator/internal/domain"
)

const (
	maxDeficitLines = 8
	colorReady      = 0x2ecc71
	colorShort      = 0xe67e22
)

// RenderStatus arma el embed del tablero: disponibles por rol, capitanes y lo que falta.
func RenderStatus(roles []domain.Role, snap domain.Snapshot) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(roles)+1)
	for _, role := range roles {
		players := snap.Players[role.ID]
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("%s (%d/%d)", role.ID, len(players), role.Min*2),
			Value:  aliases(players),
			Inline: true,
		})
	}
	fields = append(fields, &discordgo.MessageEmbedField{
		Name:  fmt.Sprintf("Capitanes (%d)", len(snap.Captains)),
		Value: aliases(snap.Captains),
	})

	desc := "✅ Hay gente para armar un match."
	color := colorReady
	if !snap.Ready() {
		color = colorShort
		var b strings.Builder
		b.WriteString("Faltan jugadores:\n")
		for i, d := range snap.Deficits {
			if i == maxDeficitLines {
				fmt.Fprintf(&b, "… y %d combinaciones más\n", len(snap.Deficits)-i)
				break
			}
			fmt.Fprintf(&b, "• %s: %d\n", strings.Join(d.Roles, " + "), d.Needed)
		}
		desc = b.String()
	}

	return &discordgo.MessageEmbed{
		Title:       "PUG — Disponibles",
		Description: desc,
		Color:       color,
		Fields:      fields,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

func aliases(ps []domain.PublicProfile) string {
	if len(ps) == 0 {
		return "—"
	}
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Alias
	}
	return strings.Join(names, ", ")
}
