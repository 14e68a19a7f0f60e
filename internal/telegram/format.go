package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/quizforge/backend/internal/answer"
	"github.com/quizforge/backend/internal/domain/question"
	"github.com/quizforge/backend/internal/domain/quizsession"
	"github.com/quizforge/backend/internal/service"
)

const callbackPrefix = "a:"

var errBadCallback = errors.New("malformed callback data")

// choice is the payload of an answer button.
type choice struct {
	SessionID string
	Index     int
	Option    int
}

func formatCallback(c choice) string {
	return fmt.Sprintf("%s%s:%d:%d", callbackPrefix, c.SessionID, c.Index, c.Option)
}

func parseCallback(data string) (choice, error) {
	if !strings.HasPrefix(data, callbackPrefix) {
		return choice{}, errBadCallback
	}
	parts := strings.Split(strings.TrimPrefix(data, callbackPrefix), ":")
	if len(parts) != 3 || parts[0] == "" {
		return choice{}, errBadCallback
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil || index < 0 {
		return choice{}, errBadCallback
	}
	option, err := strconv.Atoi(parts[2])
	if err != nil || option < 0 {
		return choice{}, errBadCallback
	}
	return choice{SessionID: parts[0], Index: index, Option: option}, nil
}

// learnerID maps a chat to the learner key used for mastery counters.
func learnerID(chatID int64) string {
	return "tg-" + strconv.FormatInt(chatID, 10)
}

// ── Rendering ───────────────────────────────────────────────────────────────

func questionText(it quizsession.Item, index, total int) string {
	q := it.Question
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%d/%d · %s</b>\n", index+1, total, answer.EscapeHTML(q.Title))
	if q.Code != "" {
		fmt.Fprintf(&b, "<pre>%s</pre>\n", answer.EscapeHTML(q.Code))
	}
	switch {
	case q.Kind == question.KindMulti && q.HasOptions():
		b.WriteString("\nSeveral answers: reply with them separated by commas.\n")
		for i, opt := range q.Options {
			fmt.Fprintf(&b, "%d. %s\n", i+1, answer.EscapeHTML(opt))
		}
	case q.Kind == question.KindMulti:
		b.WriteString("\nSeveral answers: reply with them separated by commas.")
	case q.HasOptions():
		b.WriteString("\nPick an answer:")
	default:
		b.WriteString("\nReply with your answer.")
	}
	return strings.TrimRight(b.String(), "\n")
}

// answerKeyboard returns the buttons of a single-choice question, nil for
// the other kinds.
func answerKeyboard(sessionID string, index int, q question.Question) *tgbotapi.InlineKeyboardMarkup {
	if q.Kind != question.KindSingle || !q.HasOptions() {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(q.Options))
	for i, opt := range q.Options {
		data := formatCallback(choice{SessionID: sessionID, Index: index, Option: i})
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(opt, data)))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func feedbackText(fb quizsession.Feedback) string {
	var b strings.Builder
	if fb.Correct {
		fmt.Fprintf(&b, "✅ Correct! (%d/%d)", fb.Count, fb.Threshold)
		if fb.Mastered {
			b.WriteString("\nMastered: this question will not come back.")
		}
	} else {
		fmt.Fprintf(&b, "❌ Wrong.\nYour answer: %s\nExpected: %s", fb.UserAnswer, answer.EscapeHTML(fb.CorrectAnswer))
	}
	if fb.Explanation != "" {
		fmt.Fprintf(&b, "\n\n%s", answer.EscapeHTML(fb.Explanation))
	}
	if fb.Example != "" {
		fmt.Fprintf(&b, "\n<pre>%s</pre>", answer.EscapeHTML(fb.Example))
	}
	return b.String()
}

func summaryText(s quizsession.Summary) string {
	text := fmt.Sprintf("Quiz finished: %d/%d correct.", s.Correct, s.Total)
	if s.Hidden > 0 {
		text += fmt.Sprintf("\n%d mastered question(s) were skipped.", s.Hidden)
	}
	return text + "\nSend /quiz &lt;topic&gt; to play again."
}

func topicsText(topics []service.TopicSummary) string {
	if len(topics) == 0 {
		return "No topics yet."
	}
	var b strings.Builder
	b.WriteString("Available topics:\n")
	for _, t := range topics {
		fmt.Fprintf(&b, "• <code>%s</code> %s (%d)\n", answer.EscapeHTML(t.Name), answer.EscapeHTML(t.DisplayName), t.Questions)
	}
	b.WriteString("\nStart with /quiz &lt;topic&gt;.")
	return b.String()
}

func reportText(r *service.TopicReport) string {
	return fmt.Sprintf("<b>%s</b>\nQuestions: %d\nMastered: %d\nRemaining: %d",
		answer.EscapeHTML(r.Topic), r.Total-r.Deleted, r.Hidden, r.Remaining)
}

const helpText = `<b>Commands</b>
/topics - list the quiz topics
/quiz &lt;topic&gt; - start a quiz
/stats &lt;topic&gt; - your progress on a topic
/reset &lt;topic&gt; - forget your progress on a topic
/help - this message

Choice questions have buttons. For the others, reply with your answer.
A question answered correctly 5 times is mastered and hidden for a year.`
