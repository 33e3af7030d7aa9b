package discord

import "github.com/bwmarrin/discordgo"

// isAdmin: dueño del guild, bit Administrator en alguno de sus roles, o un rol de admin del bot.
func isAdmin(member *discordgo.Member, ownerID string, guildRoles []*discordgo.Role, adminRoleIDs []string) bool {
	if member == nil {
		return false
	}
	if member.User != nil && ownerID != "" && member.User.ID == ownerID {
		return true
	}

	has := make(map[string]struct{}, len(member.Roles))
	for _, rid := range member.Roles {
		has[rid] = struct{}{}
	}
	for _, ro := range guildRoles {
		if _, ok := has[ro.ID]; ok && ro.Permissions&discordgo.PermissionAdministrator != 0 {
			return true
		}
	}

	// Roles explícitos del bot
	for _, want := range adminRoleIDs {
		if _, ok := has[want]; ok {
			return true
		}
	}
	return false
}

func (r *Router) requireAdmin(ic *discordgo.InteractionCreate) bool {
	ownerID := ""
	if g, _ := r.s.State.Guild(ic.GuildID); g != nil {
		ownerID = g.OwnerID
	}
	roles, err := r.s.GuildRoles(ic.GuildID)
	if err != nil {
		r.log.Warn().Err(err).Str("guild", ic.GuildID).Msg("guild roles")
	}
	if isAdmin(ic.Member, ownerID, roles, r.adminRoleIDs) {
		return true
	}
	r.replyEphemeral(ic, "🔒 No tienes permisos para esta acción.")
	return false
}
