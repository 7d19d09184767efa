package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"goal-tracker/internal/apperrors"
	"goal-tracker/internal/logger"
	"goal-tracker/internal/model"
	"goal-tracker/internal/service"
)

const (
	cbDonePrefix = "done:"
	cbNoPrefix   = "no:"
)

const (
	menuLabelTasks = "📋 Tasks"
	menuLabelHelp  = "ℹ️ Help"
)

// sender is the part of tgbotapi.BotAPI the bot talks to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type TaskWriter interface {
	List(ctx context.Context) (service.Overview, error)
	Confirm(ctx context.Context, taskID uint, answer string) (service.ConfirmResult, error)
	RecordValue(ctx context.Context, taskID uint, value float64) error
}

type SubscriberStore interface {
	UpsertFromTelegram(ctx context.Context, telegramID, chatID int64, firstName, lastName, username string) (*model.Subscriber, error)
	ListAll(ctx context.Context) ([]model.Subscriber, error)
}

type Reporter interface {
	DailySummary(ctx context.Context) (string, error)
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           sender
	updates       func(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	stop          func()
	allowedUserID int64
	subscribers   SubscriberStore
	tasks         TaskWriter
	reports       Reporter
	log           *logger.Logger
}

func New(token string, allowedUserID int64, subscribers SubscriberStore, tasks TaskWriter, reports Reporter, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Info("bot authorized", zap.String("account", api.Self.UserName))

	b := newBot(api, allowedUserID, subscribers, tasks, reports, log)
	b.updates = api.GetUpdatesChan
	b.stop = api.StopReceivingUpdates
	return b, nil
}

func newBot(api sender, allowedUserID int64, subscribers SubscriberStore, tasks TaskWriter, reports Reporter, log *logger.Logger) *Bot {
	b := &Bot{
		api:           api,
		allowedUserID: allowedUserID,
		subscribers:   subscribers,
		tasks:         tasks,
		reports:       reports,
		log:           log.With(zap.String("component", "bot")),
	}
	if allowedUserID == 0 {
		b.log.Warn("telegram.allowed_user_id is not set, every Telegram user can record check-ins and values")
	}
	return b
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.updates == nil {
		return errors.New("bot has no update source")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.updates(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.stop()
	}()

	for update := range updates {
		b.HandleUpdate(ctx, update)
	}
	return nil
}

// HandleUpdate dispatches a single update. Errors are logged, never returned.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Error("handle callback", zap.Error(err))
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error("handle message", zap.Error(err))
		}
	}
}

func (b *Bot) allowed(from *tgbotapi.User) bool {
	return from != nil && (b.allowedUserID == 0 || from.ID == b.allowedUserID)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !b.allowed(msg.From) {
		return nil
	}

	if !msg.IsCommand() {
		switch strings.TrimSpace(msg.Text) {
		case menuLabelTasks:
			return b.handleTasks(ctx, msg.Chat.ID)
		case menuLabelHelp:
			return b.sendText(msg.Chat.ID, helpText)
		}
		return b.sendText(msg.Chat.ID, "I did not get that. Try /help for the list of commands.")
	}

	b.log.Info("command received",
		zap.Int64("user_id", msg.From.ID),
		zap.String("command", msg.Command()),
		zap.String("args", msg.CommandArguments()),
	)

	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "tasks", "report":
		return b.handleTasks(ctx, msg.Chat.ID)
	case "done":
		return b.handleConfirm(ctx, msg, model.AnswerYes)
	case "no":
		return b.handleConfirm(ctx, msg, model.AnswerNo)
	case "value":
		return b.handleValue(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /tasks — today's progress for every goal\n" +
	"• /done &lt;id&gt; — mark a confirm task as done today\n" +
	"• /no &lt;id&gt; — record that a confirm task was not done today\n" +
	"• /value &lt;id&gt; &lt;number&gt; — record today's value, e.g. /value 2 81.4\n" +
	"• /report — the daily summary\n" +
	"• /help — this message"

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.subscribers.UpsertFromTelegram(ctx, msg.From.ID, msg.Chat.ID, msg.From.FirstName, msg.From.LastName, msg.From.UserName); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>You will get a progress summary every day.</b>\n\n%s", html.EscapeString(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleTasks(ctx context.Context, chatID int64) error {
	overview, err := b.tasks.List(ctx)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, service.FormatSummary(overview))
	msg.ParseMode = tgbotapi.ModeHTML
	if markup, ok := confirmButtons(overview); ok {
		msg.ReplyMarkup = markup
	}
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleConfirm(ctx context.Context, msg *tgbotapi.Message, answer string) error {
	taskID, err := parseID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Usage: /%s &lt;id&gt;", msg.Command()))
	}
	return b.confirm(ctx, msg.Chat.ID, taskID, answer)
}

func (b *Bot) confirm(ctx context.Context, chatID int64, taskID uint, answer string) error {
	res, err := b.tasks.Confirm(ctx, taskID, answer)
	if err != nil {
		return b.replyError(chatID, err)
	}
	switch {
	case res.AlreadyYes:
		return b.sendText(chatID, fmt.Sprintf("✅ Task #%d is already done today.", taskID))
	case answer == model.AnswerYes:
		return b.sendText(chatID, fmt.Sprintf("✅ Task #%d done for today.", taskID))
	default:
		return b.sendText(chatID, fmt.Sprintf("Noted, task #%d not done today.", taskID))
	}
}

func (b *Bot) handleValue(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, value, err := parseValueArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Usage: /value &lt;id&gt; &lt;number&gt;")
	}
	if err := b.tasks.RecordValue(ctx, taskID, value); err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("📈 Recorded %s for task #%d.", service.FormatNumber(value), taskID))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.Message == nil || !b.allowed(cb.From) {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", zap.Error(err))
	}

	var answer, prefix string
	switch {
	case strings.HasPrefix(cb.Data, cbDonePrefix):
		answer, prefix = model.AnswerYes, cbDonePrefix
	case strings.HasPrefix(cb.Data, cbNoPrefix):
		answer, prefix = model.AnswerNo, cbNoPrefix
	default:
		return nil
	}

	taskID, err := parseID(strings.TrimPrefix(cb.Data, prefix))
	if err != nil {
		return nil
	}
	b.log.Info("callback", zap.Int64("user_id", cb.From.ID), zap.Uint("task_id", taskID), zap.String("answer", answer))
	return b.confirm(ctx, cb.Message.Chat.ID, taskID, answer)
}

// SendDailyReports sends the summary to every subscriber.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	subs, err := b.subscribers.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	text, err := b.reports.DailySummary(ctx)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.sendText(sub.ChatID, text); err != nil {
			b.log.Warn("send summary", zap.Int64("chat_id", sub.ChatID), zap.Error(err))
		}
	}
	return nil
}

// replyError answers user-facing failures and passes everything else up.
func (b *Bot) replyError(chatID int64, err error) error {
	var (
		validation *apperrors.ValidationError
		notFound   *apperrors.NotFoundError
		conflict   *apperrors.ConflictError
	)
	if errors.As(err, &validation) || errors.As(err, &notFound) || errors.As(err, &conflict) {
		return b.sendText(chatID, "⚠️ "+html.EscapeString(err.Error()))
	}
	if sendErr := b.sendText(chatID, "Something went wrong, try again later."); sendErr != nil {
		b.log.Warn("send error reply", zap.Error(sendErr))
	}
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

// confirmButtons offers done/no buttons for confirm tasks still open today.
func confirmButtons(overview service.Overview) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, view := range overview.Tasks {
		confirm, ok := view.(service.ConfirmView)
		if !ok || confirm.DoneToday {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", confirm.ID, shortTitle(confirm.TileText, 24)), fmt.Sprintf("%s%d", cbDonePrefix, confirm.ID)),
			tgbotapi.NewInlineKeyboardButtonData("✖️ no", fmt.Sprintf("%s%d", cbNoPrefix, confirm.ID)),
		))
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelTasks),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return uint(id), nil
}

// parseValueArgs reads "<id> <number>". A decimal comma is accepted.
func parseValueArgs(args string) (uint, float64, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected <id> <number>, got %q", args)
	}
	id, err := parseID(fields[0])
	if err != nil {
		return 0, 0, err
	}
	value, err := strconv.ParseFloat(strings.Replace(fields[1], ",", ".", 1), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number %q", fields[1])
	}
	return id, value, nil
}

func shortTitle(title string, maxLen int) string {
	title = strings.Join(strings.Fields(title), " ")
	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
