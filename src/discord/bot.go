// Package discord listens to source channels, runs every new message through the
// filter pipeline and posts the verdicts to a target channel.
package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
	"github.com/stake-plus/newsfilter/src/config"
	"github.com/stake-plus/newsfilter/src/dedup"
	"github.com/stake-plus/newsfilter/src/factcheck"
	"github.com/stake-plus/newsfilter/src/textutil"
	"go.uber.org/zap"
)

// Analyzer classifies one message.
type Analyzer interface {
	Analyze(ctx context.Context, text, contextLabel string) (factcheck.Result, error)
}

// session is the part of *discordgo.Session the bot writes through.
type session interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Bot struct {
	cfg      config.Discord
	discord  *discordgo.Session
	out      session
	analyzer Analyzer
	seen     dedup.Set
	sources  map[string]struct{}
	logger   *zap.Logger

	// mu orders spawn against shutdown so no work is added once Wait may run.
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates the Discord session and wires the handlers. It does not connect.
func New(cfg config.Discord, analyzer Analyzer, seen dedup.Set, logger *zap.Logger) (*Bot, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("discord: token not configured")
	}
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	b := newBot(cfg, s, analyzer, seen, logger)
	b.discord = s
	b.initHandlers()
	return b, nil
}

func newBot(cfg config.Discord, out session, analyzer Analyzer, seen dedup.Set, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	if seen == nil {
		seen = dedup.NewMemorySet(0)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		cfg:      cfg,
		out:      out,
		analyzer: analyzer,
		seen:     seen,
		sources:  lo.SliceToMap(cfg.SourceChannels, func(id string) (string, struct{}) { return id, struct{}{} }),
		logger:   logger.With(zap.String("component", "discord")),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (b *Bot) initHandlers() {
	b.discord.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("logged in", zap.String("user", r.User.Username), zap.Int("source_channels", len(b.sources)))
		if b.cfg.GuildID == "" {
			return
		}
		if err := RegisterSlashCommands(s, b.cfg.GuildID, b.logger); err != nil {
			b.logger.Warn("slash command registration incomplete", zap.Error(err))
		}
	})

	b.discord.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot || (s.State.User != nil && m.Author.ID == s.State.User.ID) {
			return
		}
		if !b.watching(m.ChannelID) {
			return
		}
		origin := channelLabel(s, m.ChannelID)
		b.spawn(func(ctx context.Context) { b.handleMessage(ctx, m.Message, origin) })
	})

	b.discord.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic.Type != discordgo.InteractionApplicationCommand {
			return
		}
		if ic.ApplicationCommandData().Name != CommandCheck {
			return
		}
		b.spawn(func(ctx context.Context) { b.handleCheck(ctx, ic.Interaction) })
	})
}

// Run connects and blocks until ctx is done. In-flight analyses are cancelled and
// awaited before the session closes.
func (b *Bot) Run(ctx context.Context) error {
	if b.discord == nil {
		return fmt.Errorf("discord: session not initialized")
	}
	if err := b.discord.Open(); err != nil {
		return fmt.Errorf("discord: open session: %w", err)
	}
	b.logger.Info("listening", zap.Strings("channels", b.cfg.SourceChannels), zap.String("target", b.cfg.TargetChannel))

	<-ctx.Done()
	b.shutdown()
	if err := b.discord.Close(); err != nil {
		return fmt.Errorf("discord: close session: %w", err)
	}
	return nil
}

// spawn runs fn in a tracked goroutine. It reports false and drops fn once the bot
// is shutting down.
func (b *Bot) spawn(fn func(context.Context)) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx.Err() != nil {
		return false
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn(b.ctx)
	}()
	return true
}

// shutdown cancels in-flight work and waits for it.
func (b *Bot) shutdown() {
	b.mu.Lock()
	b.cancel()
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Bot) watching(channelID string) bool {
	_, ok := b.sources[channelID]
	return ok
}

func channelLabel(s *discordgo.Session, channelID string) string {
	if ch, err := s.State.Channel(channelID); err == nil && ch.Name != "" {
		return "#" + ch.Name
	}
	return "#" + channelID
}

// handleMessage analyzes one source-channel message and delivers the verdict.
func (b *Bot) handleMessage(ctx context.Context, m *discordgo.Message, origin string) {
	text := messageText(m)
	if text == "" {
		return
	}
	log := b.logger.With(zap.String("channel", m.ChannelID), zap.String("message_id", m.ID))

	if b.duplicate(ctx, dedup.Fingerprint(m.ChannelID, m.ID)) || b.duplicate(ctx, dedup.Fingerprint(strings.ToLower(text))) {
		log.Debug("duplicate message skipped")
		return
	}

	res, err := b.analyzer.Analyze(ctx, text, origin)
	if err != nil {
		log.Error("analysis failed", zap.Error(err))
	}
	if res.Category == "" {
		return
	}
	if res.Category == factcheck.CategorySuppressed && !b.cfg.ShowAll {
		log.Info("message suppressed", zap.String("comment", res.Comment))
		return
	}

	if err := b.deliver(FormatResult(origin, text, res, b.cfg.SendDebugInfo)); err != nil {
		log.Error("delivery failed", zap.Error(err))
		return
	}
	log.Info("verdict delivered", zap.String("category", string(res.Category)))
}

// duplicate fails open: a broken set must not stop the feed.
func (b *Bot) duplicate(ctx context.Context, key uint64) bool {
	seen, err := b.seen.Seen(ctx, key)
	if err != nil {
		b.logger.Warn("dedup lookup failed", zap.Error(err))
		return false
	}
	return seen
}

func (b *Bot) deliver(content string) error {
	if b.cfg.TargetChannel == "" {
		return fmt.Errorf("discord: target channel not configured")
	}
	for _, chunk := range BuildLongMessages(content) {
		if _, err := b.out.ChannelMessageSend(b.cfg.TargetChannel, chunk); err != nil {
			return fmt.Errorf("discord: send to %s: %w", b.cfg.TargetChannel, err)
		}
	}
	return nil
}

// messageText joins the content with any embed title and description and cleans it.
func messageText(m *discordgo.Message) string {
	parts := []string{m.Content}
	for _, e := range m.Embeds {
		if e == nil {
			continue
		}
		parts = append(parts, e.Title, e.Description)
	}
	parts = lo.Compact(lo.Map(parts, func(p string, _ int) string { return strings.TrimSpace(p) }))
	return textutil.Clean(strings.Join(parts, "\n"))
}
