package bot

import "github.com/bwmarrin/discordgo"

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ban",
			Description: "Ban a member",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to ban", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason for the ban", Required: false},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "delete_days", Description: "Days of messages to delete (0-7)", Required: false},
			},
		},
		{
			Name:        "kick",
			Description: "Kick a member",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to kick", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason for the kick", Required: false},
			},
		},
		{
			Name:        "mute",
			Description: "Timeout a member",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to mute", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "duration", Description: "Duration like 10m, 2h or 7d (max 28d)", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason for the mute", Required: false},
			},
		},
		{
			Name:        "unmute",
			Description: "Remove a member's timeout",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to unmute", Required: true},
			},
		},
		{
			Name:        "lockdown",
			Description: "Lock a channel, or every channel",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Channel to lock (omit for the whole server)", Required: false},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason shown in the log", Required: false},
			},
		},
		{
			Name:        "unlock",
			Description: "Restore locked channels",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Channel to unlock (omit for all locked)", Required: false},
			},
		},
		{
			Name:        "antiraid",
			Description: "Configure the anti-raid gate",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type: discordgo.ApplicationCommandOptionString, Name: "mode", Description: "on or off", Required: true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "on", Value: "on"},
						{Name: "off", Value: "off"},
					},
				},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "min_age_days", Description: "Minimum account age in days", Required: false},
			},
		},
		{
			Name:        "clearserver",
			Description: "Delete channels and roles, keeping protected ones",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "filter", Description: "category:<name> or prefix:<name>", Required: false},
			},
		},
		{
			Name:        "setupticket",
			Description: "Post the ticket panel in this channel",
		},
		{
			Name:        "closeticket",
			Description: "Close the current ticket",
		},
		{
			Name:        "closealltickets",
			Description: "Close every open ticket",
		},
		{
			Name:        "createslot",
			Description: "Create a slot channel for a member",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Slot owner", Required: true},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "days", Description: "Slot lifetime in days", Required: true},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "everyone_pings", Description: "Allowed @everyone pings", Required: true},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "here_pings", Description: "Allowed @here pings", Required: true},
			},
		},
		{
			Name:        "closeslot",
			Description: "Close the current slot channel",
		},
		{
			Name:        "restoreslot",
			Description: "Restore a slot from a backup file",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionAttachment, Name: "backup", Description: "Backup JSON from a closed slot", Required: true},
			},
		},
		{
			Name:        "giveaway",
			Description: "Run giveaways",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type: discordgo.ApplicationCommandOptionSubCommand, Name: "start", Description: "Start a giveaway in this channel",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "prize", Description: "What is being given away", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "duration", Description: "Duration like 1h or 2d", Required: true},
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "winners", Description: "Number of winners", Required: false},
					},
				},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "end", Description: "End a running giveaway early"},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "reroll", Description: "Draw new winners for an ended giveaway"},
			},
		},
		{
			Name:        "setupvc",
			Description: "Create the join-to-create voice hub",
		},
		{
			Name:        "vclimit",
			Description: "Set the user limit of your voice channel",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "limit", Description: "0 removes the limit", Required: true},
			},
		},
		{
			Name:        "vcname",
			Description: "Rename your voice channel",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "New channel name", Required: true},
			},
		},
		{
			Name:        "vclock",
			Description: "Lock or unlock your voice channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type: discordgo.ApplicationCommandOptionString, Name: "mode", Description: "lock or unlock", Required: true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "lock", Value: "lock"},
						{Name: "unlock", Value: "unlock"},
					},
				},
			},
		},
		{
			Name:        "vouch",
			Description: "Vouch for a member",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to vouch for", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "What went well", Required: true},
			},
		},
		{
			Name:        "vouches",
			Description: "List a member's vouches",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to inspect", Required: false},
			},
		},
		{
			Name:        "vouchstats",
			Description: "Server-wide vouch statistics",
		},
		{
			Name:        "deletevouch",
			Description: "Delete a vouch you gave, or any as staff",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Vouched member", Required: true},
				{Type: discordgo.ApplicationCommandOptionUser, Name: "voucher", Description: "Voucher (staff only)", Required: false},
			},
		},
		{
			Name:        "report",
			Description: "Report a member to the staff team",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to report", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "What happened", Required: true},
			},
		},
		{
			Name:        "praise",
			Description: "Leave positive feedback for a member",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to praise", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "What went well", Required: true},
			},
		},
		{
			Name:        "status",
			Description: "Show a member's feedback standing",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to inspect", Required: false},
			},
		},
		{
			Name:        "reviewreport",
			Description: "Review a pending report",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "Report id", Required: true},
			},
		},
		{
			Name:        "setupwelcome",
			Description: "Use this channel for welcome messages",
		},
		{
			Name:        "togglewelcome",
			Description: "Enable or disable welcome messages",
		},
		{
			Name:        "statusstats",
			Description: "Show who is advertising the server in their status",
		},
		{
			Name:        "giverole",
			Description: "Give a role to a member",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to receive the role", Required: true},
				{Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "Role to give", Required: true},
			},
		},
		{
			Name:        "removerole",
			Description: "Remove a role from a member",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to strip the role from", Required: true},
				{Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "Role to remove", Required: true},
			},
		},
		{
			Name:        "roles",
			Description: "List the server's roles",
		},
	}
}

// registerCommands reconciles the guild's slash commands with the
// desired set: edit in place, create missing, delete stale.
func (b *Bot) registerCommands() error {
	commands := commandDefinitions()
	appID := b.session.State.User.ID
	guildID := b.cfg.GuildID

	existing, err := b.session.ApplicationCommands(appID, guildID)
	if err != nil {
		for _, cmd := range commands {
			if _, err := b.session.ApplicationCommandCreate(appID, guildID, cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{})
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(appID, guildID, current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(appID, guildID, cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, guildID, cmd.ID)
	}

	// Stale global commands from older deployments shadow the guild set.
	globals, err := b.session.ApplicationCommands(appID, "")
	if err == nil {
		for _, cmd := range globals {
			_ = b.session.ApplicationCommandDelete(appID, "", cmd.ID)
		}
	}
	return nil
}
