package discord

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/newsfilter/src/config"
	"github.com/stake-plus/newsfilter/src/factcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type sentMessage struct {
	channel string
	content string
}

type fakeSession struct {
	mu        sync.Mutex
	sent      []sentMessage
	responses []*discordgo.InteractionResponse
	edits     []string
	followups []string
	sendErr   error
}

func (f *fakeSession) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, sentMessage{channel: channelID, content: content})
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeSession) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, *edit.Content)
	return &discordgo.Message{}, nil
}

func (f *fakeSession) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, data.Content)
	return &discordgo.Message{}, nil
}

type fakeAnalyzer struct {
	mu     sync.Mutex
	texts  []string
	labels []string
	result factcheck.Result
	err    error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, text, label string) (factcheck.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.labels = append(f.labels, label)
	return f.result, f.err
}

func testDiscordConfig() config.Discord {
	return config.Discord{
		SourceChannels: []string{"src-1"},
		TargetChannel:  "target",
	}
}

func newTestBot(t *testing.T, cfg config.Discord, analyzer Analyzer) (*Bot, *fakeSession) {
	t.Helper()
	fs := &fakeSession{}
	return newBot(cfg, fs, analyzer, nil, zaptest.NewLogger(t)), fs
}

func newsResult() factcheck.Result {
	return factcheck.Result{Category: factcheck.CategoryNews, Comment: "Confirmed (95%)"}
}

func TestHandleMessageDelivers(t *testing.T) {
	analyzer := &fakeAnalyzer{result: newsResult()}
	b, fs := newTestBot(t, testDiscordConfig(), analyzer)

	b.handleMessage(context.Background(), &discordgo.Message{
		ID:        "m1",
		ChannelID: "src-1",
		Content:   "<b>Курс доллара</b>   вырос на 5%",
	}, "#feed")

	require.Equal(t, []string{"Курс доллара вырос на 5%"}, analyzer.texts)
	assert.Equal(t, []string{"#feed"}, analyzer.labels)
	require.Len(t, fs.sent, 1)
	assert.Equal(t, "target", fs.sent[0].channel)
	assert.Contains(t, fs.sent[0].content, "📰 **NEWS**")
	assert.Contains(t, fs.sent[0].content, "> Confirmed (95%)")
}

func TestHandleMessageSkipsDuplicates(t *testing.T) {
	analyzer := &fakeAnalyzer{result: newsResult()}
	b, fs := newTestBot(t, testDiscordConfig(), analyzer)
	ctx := context.Background()

	msg := &discordgo.Message{ID: "m1", ChannelID: "src-1", Content: "Центробанк поднял ключевую ставку"}
	b.handleMessage(ctx, msg, "#feed")
	b.handleMessage(ctx, msg, "#feed")
	b.handleMessage(ctx, &discordgo.Message{ID: "m2", ChannelID: "src-1", Content: "центробанк  поднял ключевую ставку"}, "#feed")

	assert.Len(t, analyzer.texts, 1)
	assert.Len(t, fs.sent, 1)
}

func TestHandleMessageSuppressed(t *testing.T) {
	tests := []struct {
		name    string
		showAll bool
		want    int
	}{
		{"hidden by default", false, 0},
		{"shown when all messages are shown", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testDiscordConfig()
			cfg.ShowAll = tt.showAll
			analyzer := &fakeAnalyzer{result: factcheck.Result{Category: factcheck.CategorySuppressed, Comment: factcheck.SpamComment}}
			b, fs := newTestBot(t, cfg, analyzer)

			b.handleMessage(context.Background(), &discordgo.Message{ID: "m1", ChannelID: "src-1", Content: "СУПЕР СКИДКА! Только сегодня!"}, "#feed")
			assert.Len(t, fs.sent, tt.want)
		})
	}
}

func TestHandleMessageDebugBlock(t *testing.T) {
	cfg := testDiscordConfig()
	cfg.SendDebugInfo = true
	res := newsResult()
	res.Debug = &factcheck.DebugInfo{Attempts: 1, FallbackUsed: true}
	b, fs := newTestBot(t, cfg, &fakeAnalyzer{result: res})

	b.handleMessage(context.Background(), &discordgo.Message{ID: "m1", ChannelID: "src-1", Content: "Apple представила новый iPhone"}, "#feed")
	require.Len(t, fs.sent, 1)
	assert.Contains(t, fs.sent[0].content, "🔧 **Debug**")
	assert.Contains(t, fs.sent[0].content, "🚩 Flags: fallback")
	assert.NotContains(t, fs.sent[0].content, "📊")
}

func TestHandleMessageAnalyzerError(t *testing.T) {
	t.Run("best effort result is delivered", func(t *testing.T) {
		analyzer := &fakeAnalyzer{result: factcheck.Result{Category: factcheck.CategoryOther}, err: errors.New("analysis panicked")}
		b, fs := newTestBot(t, testDiscordConfig(), analyzer)
		b.handleMessage(context.Background(), &discordgo.Message{ID: "m1", ChannelID: "src-1", Content: "Что-то произошло в городе"}, "#feed")
		assert.Len(t, fs.sent, 1)
	})

	t.Run("nothing is delivered without a category", func(t *testing.T) {
		analyzer := &fakeAnalyzer{err: errors.New("boom")}
		b, fs := newTestBot(t, testDiscordConfig(), analyzer)
		b.handleMessage(context.Background(), &discordgo.Message{ID: "m1", ChannelID: "src-1", Content: "Что-то произошло в городе"}, "#feed")
		assert.Empty(t, fs.sent)
	})

	t.Run("missing target channel", func(t *testing.T) {
		cfg := testDiscordConfig()
		cfg.TargetChannel = ""
		b, fs := newTestBot(t, cfg, &fakeAnalyzer{result: newsResult()})
		b.handleMessage(context.Background(), &discordgo.Message{ID: "m1", ChannelID: "src-1", Content: "Что-то произошло в городе"}, "#feed")
		assert.Empty(t, fs.sent)
	})
}

func TestShutdownWaitsAndRejectsNewWork(t *testing.T) {
	b, _ := newTestBot(t, testDiscordConfig(), &fakeAnalyzer{result: newsResult()})

	started := make(chan struct{})
	var cancelled bool
	require.True(t, b.spawn(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		cancelled = true
	}))
	<-started

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.spawn(func(context.Context) {})
		}()
	}
	b.shutdown()
	wg.Wait()

	assert.True(t, cancelled)
	ran := false
	assert.False(t, b.spawn(func(context.Context) { ran = true }))
	assert.False(t, ran)
}

func TestMessageText(t *testing.T) {
	m := &discordgo.Message{
		Content: "  Breaking:  ",
		Embeds: []*discordgo.MessageEmbed{
			{Title: "Rate decision", Description: "The <i>key rate</i> is 16%"},
			nil,
		},
	}
	assert.Equal(t, "Breaking: Rate decision The key rate is 16%", messageText(m))
	assert.Equal(t, "", messageText(&discordgo.Message{Content: "   "}))
}

func TestWatching(t *testing.T) {
	b, _ := newTestBot(t, testDiscordConfig(), &fakeAnalyzer{})
	assert.True(t, b.watching("src-1"))
	assert.False(t, b.watching("other"))
}

func checkInteraction(text string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{
			Name: CommandCheck,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: checkOption, Type: discordgo.ApplicationCommandOptionString, Value: text},
			},
		},
		Member: &discordgo.Member{User: &discordgo.User{Username: "operator"}},
	}
}

func TestHandleCheck(t *testing.T) {
	t.Run("usage hint for short text", func(t *testing.T) {
		analyzer := &fakeAnalyzer{result: newsResult()}
		b, fs := newTestBot(t, testDiscordConfig(), analyzer)

		b.handleCheck(context.Background(), checkInteraction(" hi "))
		require.Len(t, fs.responses, 1)
		assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, fs.responses[0].Type)
		assert.Equal(t, checkUsage, fs.responses[0].Data.Content)
		assert.Equal(t, discordgo.MessageFlagsEphemeral, fs.responses[0].Data.Flags)
		assert.Empty(t, analyzer.texts)
	})

	t.Run("verdict replaces the deferred reply", func(t *testing.T) {
		analyzer := &fakeAnalyzer{result: newsResult()}
		b, fs := newTestBot(t, testDiscordConfig(), analyzer)

		b.handleCheck(context.Background(), checkInteraction("Discord объявил новую функцию ИИ-модерации"))
		require.Len(t, fs.responses, 1)
		assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, fs.responses[0].Type)
		assert.Equal(t, []string{"manual check by operator"}, analyzer.labels)
		require.Len(t, fs.edits, 1)
		assert.Contains(t, fs.edits[0], "📰 **NEWS**")
		assert.Empty(t, fs.followups)
		assert.Empty(t, fs.sent)
	})

	t.Run("failure is reported", func(t *testing.T) {
		analyzer := &fakeAnalyzer{err: errors.New("no LLM client configured")}
		b, fs := newTestBot(t, testDiscordConfig(), analyzer)

		b.handleCheck(context.Background(), checkInteraction("Discord объявил новую функцию"))
		require.Len(t, fs.edits, 1)
		assert.Contains(t, fs.edits[0], "Analysis failed")
		assert.Contains(t, fs.edits[0], "no LLM client configured")
	})
}

func TestIsDuplicateCommandError(t *testing.T) {
	dup := &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: 50035, Message: "Application command with that name already exists"}}
	assert.True(t, isDuplicateCommandError(dup))
	assert.False(t, isDuplicateCommandError(errors.New("401 unauthorized")))
}
