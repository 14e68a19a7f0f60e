// Package telegram plays quiz sessions in Telegram chats.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/quizforge/backend/internal/domain/quizsession"
	"github.com/quizforge/backend/internal/service"
	"github.com/quizforge/backend/internal/source"
)

const (
	cmdStart  = "start"
	cmdHelp   = "help"
	cmdTopics = "topics"
	cmdQuiz   = "quiz"
	cmdStats  = "stats"
	cmdReset  = "reset"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot runs at most one quiz per chat. Questions are asked one at a time in
// session order.
type Bot struct {
	api    API
	quiz   *service.QuizService
	topics service.TopicLister
	logger *slog.Logger

	mu    sync.Mutex
	chats map[int64]*chatState
}

type chatState struct {
	sessionID string
	index     int
}

// New connects to Telegram with token.
func New(token string, quiz *service.QuizService, topics service.TopicLister, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	logger.Info("telegram bot authorized", "username", api.Self.UserName)
	return NewWithAPI(api, quiz, topics, logger), nil
}

func NewWithAPI(api API, quiz *service.QuizService, topics service.TopicLister, logger *slog.Logger) *Bot {
	return &Bot{
		api:    api,
		quiz:   quiz,
		topics: topics,
		logger: logger,
		chats:  make(map[int64]*chatState),
	}
}

// Run polls for updates until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("telegram bot polling")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !msg.IsCommand() {
		b.answerText(ctx, chatID, msg.Text)
		return
	}

	arg := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case cmdStart, cmdHelp:
		b.send(chatID, helpText, nil)
	case cmdTopics:
		b.listTopics(ctx, chatID)
	case cmdQuiz:
		b.startQuiz(ctx, chatID, arg)
	case cmdStats:
		b.showStats(ctx, chatID, arg)
	case cmdReset:
		b.resetTopic(ctx, chatID, arg)
	default:
		b.send(chatID, "Unknown command. Send /help for the list.", nil)
	}
}

func (b *Bot) listTopics(ctx context.Context, chatID int64) {
	topics, err := b.quiz.Topics(ctx, b.topics)
	if err != nil {
		b.logger.Error("failed to list topics", "error", err)
		b.send(chatID, "Topics are unavailable right now.", nil)
		return
	}
	b.send(chatID, topicsText(topics), nil)
}

func (b *Bot) startQuiz(ctx context.Context, chatID int64, topic string) {
	if topic == "" {
		b.send(chatID, "Usage: /quiz &lt;topic&gt;. Send /topics for the list.", nil)
		return
	}

	learner := learnerID(chatID)
	sess, err := b.quiz.StartSession(ctx, learner, topic, quizsession.DefaultConfig())
	if errors.Is(err, source.ErrNoQuestions) {
		b.send(chatID, "Unknown topic. Send /topics for the list.", nil)
		return
	}
	if err != nil {
		b.logger.Error("failed to start quiz", "chat_id", chatID, "topic", topic, "error", err)
		b.send(chatID, "Could not start the quiz, try again later.", nil)
		return
	}

	b.mu.Lock()
	if prev, ok := b.chats[chatID]; ok {
		_ = b.quiz.EndSession(learner, prev.sessionID)
		delete(b.chats, chatID)
	}
	b.mu.Unlock()

	if sess.Len() == 0 {
		_ = b.quiz.EndSession(learner, sess.ID)
		b.send(chatID, fmt.Sprintf("Every question of this topic is mastered (%d). Send /reset %s to start over.", sess.Summary().Hidden, topic), nil)
		return
	}

	st := &chatState{sessionID: sess.ID}
	b.mu.Lock()
	b.chats[chatID] = st
	b.mu.Unlock()

	b.sendQuestion(chatID, sess, st.index)
}

func (b *Bot) sendQuestion(chatID int64, sess *quizsession.Session, index int) {
	items := sess.Items()
	it := items[index]

	var markup any
	if kb := answerKeyboard(sess.ID, index, it.Question); kb != nil {
		markup = kb
	}
	b.send(chatID, questionText(it, index, len(items)), markup)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("failed to answer callback", "error", err)
	}
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	c, err := parseCallback(cb.Data)
	if err != nil {
		b.logger.Warn("ignoring callback", "data", cb.Data, "error", err)
		return
	}

	st := b.current(chatID)
	if st == nil || st.sessionID != c.SessionID || st.index != c.Index {
		b.send(chatID, "This question is no longer active.", nil)
		return
	}

	sess, ok := b.session(chatID, st)
	if !ok {
		return
	}
	options := sess.Items()[st.index].Question.Options
	if c.Option >= len(options) {
		b.logger.Warn("callback option out of range", "data", cb.Data)
		return
	}

	strip := tgbotapi.NewEditMessageReplyMarkup(chatID, cb.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	if _, err := b.api.Request(strip); err != nil {
		b.logger.Debug("failed to remove keyboard", "error", err)
	}

	b.submit(ctx, chatID, st, sess, options[c.Option])
}

func (b *Bot) answerText(ctx context.Context, chatID int64, text string) {
	st := b.current(chatID)
	if st == nil {
		b.send(chatID, "Send /quiz &lt;topic&gt; to start a quiz, or /help.", nil)
		return
	}
	sess, ok := b.session(chatID, st)
	if !ok {
		return
	}
	b.submit(ctx, chatID, st, sess, text)
}

// submit grades raw for the current question and moves on to the next one.
func (b *Bot) submit(ctx context.Context, chatID int64, st *chatState, sess *quizsession.Session, raw string) {
	learner := learnerID(chatID)
	items := sess.Items()
	qid := items[st.index].Question.ID

	fb, err := b.quiz.Validate(ctx, learner, st.sessionID, qid, &raw)
	switch {
	case errors.Is(err, quizsession.ErrNoAnswer):
		b.send(chatID, "Please send an answer.", nil)
		return
	case errors.Is(err, quizsession.ErrAlreadySubmitted):
		return
	case err != nil:
		b.logger.Error("failed to validate answer", "chat_id", chatID, "question_id", qid, "error", err)
		b.send(chatID, "Could not check your answer, try again.", nil)
		return
	}
	b.send(chatID, feedbackText(fb), nil)

	b.mu.Lock()
	st.index++
	done := st.index >= len(items)
	if done {
		delete(b.chats, chatID)
	}
	b.mu.Unlock()

	if done {
		b.send(chatID, summaryText(sess.Summary()), nil)
		_ = b.quiz.EndSession(learner, st.sessionID)
		return
	}
	b.sendQuestion(chatID, sess, st.index)
}

func (b *Bot) showStats(ctx context.Context, chatID int64, topic string) {
	if topic == "" {
		b.send(chatID, "Usage: /stats &lt;topic&gt;", nil)
		return
	}
	report, err := b.quiz.TopicReport(ctx, learnerID(chatID), topic)
	if errors.Is(err, source.ErrNoQuestions) {
		b.send(chatID, "Unknown topic. Send /topics for the list.", nil)
		return
	}
	if err != nil {
		b.logger.Error("failed to build report", "topic", topic, "error", err)
		b.send(chatID, "Statistics are unavailable right now.", nil)
		return
	}
	b.send(chatID, reportText(report), nil)
}

func (b *Bot) resetTopic(ctx context.Context, chatID int64, topic string) {
	if topic == "" {
		b.send(chatID, "Usage: /reset &lt;topic&gt;", nil)
		return
	}
	b.quiz.ResetMastery(ctx, learnerID(chatID), topic)
	b.send(chatID, "Progress cleared. Every question will show up again.", nil)
}

func (b *Bot) current(chatID int64) *chatState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chats[chatID]
}

// session returns the live session of st, forgetting the chat state when
// it expired.
func (b *Bot) session(chatID int64, st *chatState) (*quizsession.Session, bool) {
	sess, err := b.quiz.Session(learnerID(chatID), st.sessionID)
	if err == nil {
		return sess, true
	}

	b.mu.Lock()
	delete(b.chats, chatID)
	b.mu.Unlock()

	if errors.Is(err, service.ErrSessionNotFound) {
		b.send(chatID, "Your quiz expired. Send /quiz &lt;topic&gt; to start again.", nil)
	} else {
		b.logger.Error("failed to load session", "chat_id", chatID, "error", err)
	}
	return nil, false
}

func (b *Bot) send(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}
