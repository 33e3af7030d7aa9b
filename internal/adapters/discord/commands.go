package discord

import "github.com/bwmarrin/discordgo"

var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "pug",
		Description: "PUG: disponibilidad y matches",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "status", Description: "Ver quién está disponible y qué falta"},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "abort",
				Description: "Abortar un match (admins)",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "match",
					Description: "ID del match",
					Required:    true,
				}},
			},
		},
	},
}

// subcommand devuelve el subcomando de /pug y sus opciones string.
func subcommand(data discordgo.ApplicationCommandInteractionData) (string, map[string]string) {
	if len(data.Options) == 0 {
		return "", nil
	}
	sub := data.Options[0]
	args := make(map[string]string, len(sub.Options))
	for _, o := range sub.Options {
		if o.Type == discordgo.ApplicationCommandOptionString {
			args[o.Name] = o.StringValue()
		}
	}
	return sub.Name, args
}
