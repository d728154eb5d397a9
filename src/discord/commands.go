package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/newsfilter/src/textutil"
	"go.uber.org/zap"
)

const (
	CommandCheck = "check"

	checkOption   = "text"
	minCheckRunes = 5
)

const checkUsage = "❓ **How to use:**\n" +
	"`/check text: <text to verify>`\n\n" +
	"**Example:**\n" +
	"`/check text: Discord announced a new AI moderation feature`\n\n" +
	"The text is analyzed exactly like a message from a watched channel."

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandCheck: {
		Name:        CommandCheck,
		Description: "Fact-check a piece of text",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        checkOption,
				Description: "Text to analyze",
				Required:    true,
			},
		},
	},
}

var defaultCommandOrder = []string{CommandCheck}

// RegisterSlashCommands registers the requested slash commands for a guild.
// When no command names are provided, all known commands are registered.
func RegisterSlashCommands(s *discordgo.Session, guildID string, logger *zap.Logger, names ...string) error {
	if guildID == "" {
		return fmt.Errorf("discord: guildID is required to register slash commands")
	}
	if len(names) == 0 {
		names = defaultCommandOrder
	}

	var failures []string
	for _, name := range names {
		definition, ok := commandDefinitions[name]
		if !ok {
			logger.Warn("unknown slash command", zap.String("command", name))
			continue
		}
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, definition); err != nil {
			if isDuplicateCommandError(err) {
				logger.Debug("slash command already registered", zap.String("command", name))
				continue
			}
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("discord: slash command registration errors: %s", strings.Join(failures, "; "))
	}
	return nil
}

func isDuplicateCommandError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		if strings.Contains(strings.ToLower(restErr.Message.Message), "already exists") {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "50035") && strings.Contains(msg, "already exists")
}

// handleCheck answers /check: a usage hint for missing or too short text, otherwise a
// deferred reply that is edited with the rendered verdict.
func (b *Bot) handleCheck(ctx context.Context, i *discordgo.Interaction) {
	text := textutil.Clean(checkText(i))
	log := b.logger.With(zap.String("command", CommandCheck), zap.String("user", interactionUser(i)))

	if utf8.RuneCountInString(text) < minCheckRunes {
		err := b.out.InteractionRespond(i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: checkUsage,
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		if err != nil {
			log.Warn("usage reply failed", zap.Error(err))
		}
		return
	}

	if err := b.out.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		log.Warn("deferred reply failed", zap.Error(err))
		return
	}

	origin := "manual check by " + interactionUser(i)
	res, err := b.analyzer.Analyze(ctx, text, origin)
	if err != nil {
		log.Error("analysis failed", zap.Error(err))
	}
	content := fmt.Sprintf("❌ **Analysis failed**\n\n%v", err)
	if res.Category != "" {
		content = FormatResult(origin, text, res, b.cfg.SendDebugInfo)
	}

	chunks := BuildLongMessages(content)
	if _, err := b.out.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &chunks[0]}); err != nil {
		log.Warn("edit reply failed", zap.Error(err))
		return
	}
	for _, chunk := range chunks[1:] {
		if _, err := b.out.FollowupMessageCreate(i, true, &discordgo.WebhookParams{Content: chunk}); err != nil {
			log.Warn("followup failed", zap.Error(err))
			return
		}
	}
}

func checkText(i *discordgo.Interaction) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == checkOption && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

func interactionUser(i *discordgo.Interaction) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.Username
	case i.User != nil:
		return i.User.Username
	default:
		return "unknown"
	}
}
