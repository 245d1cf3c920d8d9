package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"no-time-buddy/internal/board"
	"no-time-buddy/internal/model"
	"no-time-buddy/internal/service"
)

const (
	btnAbort        = "⏪ Abort"
	iconDefault     = "🟢"
	iconDue         = "⏳"
	iconOverdue     = "⚠️"
	iconSuccess     = "✅"
	iconFailed      = "❌"
	menuLabelNew    = "➕ New mission"
	menuLabelList   = "📋 Missions"
	menuLabelReport = "🗓 Report"
	menuLabelHelp   = "ℹ️ Help"
)

const helpText = "ℹ️ <b>No time, buddy</b>\n" +
	"• /new — add a mission (title, then deadline)\n" +
	"• /list — active missions, earliest deadline first\n" +
	"• /cancel &lt;id&gt; — cancel a mission\n" +
	"• /report — deadline digest\n" +
	"• /abort — drop the mission form"

func renderNotice(n *board.Notice) string {
	icon := iconSuccess
	if n.Failed() {
		icon = iconFailed
	}
	return fmt.Sprintf("%s <b>%s</b>\n%s", icon, escape(n.Title), escape(n.Message))
}

// renderList returns the list text and, when there is something to cancel,
// one inline cancel button per mission.
func renderList(missions []board.MissionView) (string, *tgbotapi.InlineKeyboardMarkup) {
	if len(missions) == 0 {
		return "📋 No active missions. Add one with /new.", nil
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Missions</b>\n\n")

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(missions))
	for _, m := range missions {
		builder.WriteString(fmt.Sprintf("%s <b>#%d</b> %s\n", icon(m.DaysLeft), m.ID, escape(m.Title)))
		builder.WriteString(fmt.Sprintf("   ⏰ %s · %s\n", m.Deadline.Format(time.DateOnly), m.Remaining))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✖ Cancel #%d · %s", m.ID, shortTitle(m.Title, 24)),
				fmt.Sprintf("%s%d", cbCancelPrefix, m.ID),
			),
		))
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return strings.TrimSpace(builder.String()), &markup
}

func renderDigest(d service.Digest, now time.Time) string {
	var builder strings.Builder
	builder.WriteString("🗓 <b>Mission digest</b>\n")
	builder.WriteString(fmt.Sprintf("%s\n", d.Date.Format(time.DateOnly)))

	if d.Empty() {
		builder.WriteString("\nNothing planned. Add a mission with /new.")
		return builder.String()
	}

	section := func(title string, missions []model.Mission) {
		if len(missions) == 0 {
			return
		}
		builder.WriteString(fmt.Sprintf("\n<b>%s</b>\n", title))
		for _, m := range missions {
			days := service.DaysLeft(m.Deadline, now)
			builder.WriteString(fmt.Sprintf("%s #%d %s — %s\n", icon(days), m.ID, escape(m.Title), service.FormatDaysLeft(days)))
		}
	}

	section("Overdue", d.Overdue)
	section("Due soon", d.DueSoon)
	section("Later", d.Upcoming)

	return strings.TrimSpace(builder.String())
}

func icon(daysLeft int) string {
	switch {
	case daysLeft < 0:
		return iconOverdue
	case daysLeft <= 2:
		return iconDue
	default:
		return iconDefault
	}
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNew),
			tgbotapi.NewKeyboardButton(menuLabelList),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelReport),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func abortKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAbort),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isAbortInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnAbort) || value == "abort"
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
