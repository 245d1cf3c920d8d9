package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"no-time-buddy/internal/board"
	"no-time-buddy/internal/config"
	"no-time-buddy/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDeadline
)

const cbCancelPrefix = "cancel:"

// queueSize bounds the updates buffered per user before polling waits.
const queueSize = 32

type conversationState struct {
	stage conversationStage
	title string
}

// sender is the part of the Telegram API the handlers talk to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the chat front-end of the planner: a mission form, the mission list
// with cancel buttons and notices after every action.
type Bot struct {
	api     *tgbotapi.BotAPI
	out     sender
	board   *board.Board
	digest  *service.DigestService
	ownerID int64
	log     *slog.Logger
	now     func() time.Time

	conversations map[int64]conversationState
	mu            sync.Mutex

	queues map[int64]chan tgbotapi.Update
	qmu    sync.Mutex
	wg     sync.WaitGroup
}

func New(cfg config.Telegram, missions *board.Board, digest *service.DigestService, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	b := newBot(api, missions, digest, cfg.OwnerID, log)
	b.api = api

	b.log.Info("bot authorized", "account", api.Self.UserName, "owner", cfg.OwnerID)

	return b, nil
}

func newBot(out sender, missions *board.Board, digest *service.DigestService, ownerID int64, log *slog.Logger) *Bot {
	return &Bot{
		out:           out,
		board:         missions,
		digest:        digest,
		ownerID:       ownerID,
		log:           log.With("logger", "bot"),
		now:           time.Now,
		conversations: make(map[int64]conversationState),
		queues:        make(map[int64]chan tgbotapi.Update),
	}
}

// Start polls updates until ctx is cancelled. Updates of one user are handled
// in arrival order by that user's worker, so a slow database call never stalls
// polling and form steps never overtake each other.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	// in-flight actions finish even after shutdown was requested
	handlerCtx := context.WithoutCancel(ctx)

	for update := range updates {
		b.dispatch(handlerCtx, update)
	}

	b.drain()
	return nil
}

// dispatch queues the update for its sender, starting the sender's worker on
// first use.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	userID := updateUserID(update)

	b.qmu.Lock()
	queue, ok := b.queues[userID]
	if !ok {
		queue = make(chan tgbotapi.Update, queueSize)
		b.queues[userID] = queue

		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for u := range queue {
				b.handleUpdate(ctx, u)
			}
		}()
	}
	b.qmu.Unlock()

	queue <- update
}

// drain closes every queue and waits for the workers to finish what is queued.
func (b *Bot) drain() {
	b.qmu.Lock()
	for userID, queue := range b.queues {
		close(queue)
		delete(b.queues, userID)
	}
	b.qmu.Unlock()

	b.wg.Wait()
}

func updateUserID(update tgbotapi.Update) int64 {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	}
	return 0
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Error("handle callback", "error", err)
		}
	case update.Message != nil:
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error("handle message", "error", err)
		}
	}
}

// allowed is false for everyone when no owner is configured.
func (b *Bot) allowed(userID int64) bool {
	return b.ownerID != 0 && b.ownerID == userID
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return nil
	}
	if !b.allowed(msg.From.ID) {
		b.log.Warn("message from unknown user ignored", "user", msg.From.ID)
		return nil
	}

	if !msg.IsCommand() {
		if isAbortInput(msg.Text) {
			b.clearConversation(msg.From.ID)
			return b.sendText(msg.Chat.ID, "⏪ Mission form dropped.")
		}
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.Debug("command", "user", msg.From.ID, "command", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if _, ok := b.getConversation(msg.From.ID); ok {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "Send /new to add a mission or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "new":
		return b.startMissionForm(msg)
	case "list":
		return b.sendList(msg.Chat.ID, b.board.Refresh(ctx))
	case "cancel":
		return b.handleCancelCommand(ctx, msg)
	case "abort":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Mission form dropped.")
	case "report":
		return b.sendDigest(ctx, msg.Chat.ID)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case strings.ToLower(menuLabelNew):
		return true, b.startMissionForm(msg)
	case strings.ToLower(menuLabelList):
		return true, b.sendList(msg.Chat.ID, b.board.Refresh(ctx))
	case strings.ToLower(menuLabelReport):
		return true, b.sendDigest(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelHelp):
		return true, b.sendText(msg.Chat.ID, helpText)
	default:
		return false, nil
	}
}

func (b *Bot) startMissionForm(msg *tgbotapi.Message) error {
	b.setConversation(msg.From.ID, conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New mission.\n<b>Step 1:</b> what is the title?", abortKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state, ok := b.getConversation(msg.From.ID)
	if !ok {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		b.setConversation(msg.From.ID, conversationState{stage: stageDeadline, title: text})
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ <b>Step 2:</b> deadline as <code>2026-11-30</code>, <code>today</code> or <code>tomorrow</code>.", abortKeyboard())
	case stageDeadline:
		deadline, err := parseDeadline(text, b.now())
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Cannot read that date. Use <code>2026-11-30</code>, <code>today</code> or <code>tomorrow</code>.", abortKeyboard())
		}
		b.clearConversation(msg.From.ID)
		return b.sendView(msg.Chat.ID, b.board.Save(ctx, state.title, &deadline))
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Form reset. Start again with /new.")
	}
}

func (b *Bot) handleCancelCommand(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Give the mission number: /cancel 12")
	}

	id, err := strconv.ParseUint(args, 10, 64)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Mission number must be a positive integer.")
	}

	return b.sendView(msg.Chat.ID, b.board.Cancel(ctx, uint(id)))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}

	if _, err := b.out.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", "error", err)
	}

	if !b.allowed(cb.From.ID) {
		b.log.Warn("callback from unknown user ignored", "user", cb.From.ID)
		return nil
	}

	if !strings.HasPrefix(cb.Data, cbCancelPrefix) {
		return nil
	}

	id, err := parseMissionID(cb.Data, cbCancelPrefix)
	if err != nil {
		return nil
	}

	return b.sendView(cb.Message.Chat.ID, b.board.Cancel(ctx, id))
}

// SendDigest pushes the mission digest to the owner.
func (b *Bot) SendDigest(ctx context.Context) error {
	if b.ownerID == 0 {
		b.log.Debug("digest skipped, no owner configured")
		return nil
	}
	return b.sendDigest(ctx, b.ownerID)
}

func (b *Bot) sendDigest(ctx context.Context, chatID int64) error {
	now := b.now()
	digest, err := b.digest.Build(ctx, now)
	if err != nil {
		b.log.Error("error building digest", "error", err)
		return b.sendText(chatID, "Failed to build the report.")
	}
	return b.sendText(chatID, renderDigest(digest, now))
}

// sendView shows the notice first, then the refreshed list when there is one.
func (b *Bot) sendView(chatID int64, view board.View) error {
	if view.Notice != nil {
		if err := b.sendText(chatID, renderNotice(view.Notice)); err != nil {
			return err
		}
	}
	if !view.Loaded {
		return nil
	}
	return b.sendList(chatID, view)
}

func (b *Bot) sendList(chatID int64, view board.View) error {
	if !view.Loaded {
		return b.sendView(chatID, view)
	}

	text, markup := renderList(view.Missions)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = *markup
	} else {
		msg.ReplyMarkup = mainMenuKeyboard()
	}
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) setConversation(userID int64, state conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) (conversationState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.conversations[userID]
	return state, ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func parseMissionID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

func parseDeadline(text string, now time.Time) (time.Time, error) {
	today := service.DateOnly(now, now.Location())
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}
	return time.ParseInLocation(time.DateOnly, strings.TrimSpace(text), now.Location())
}
