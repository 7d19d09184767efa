package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"goal-tracker/internal/clock"
)

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	tasks *TaskService
}

func NewReminderService(tasks *TaskService) *ReminderService {
	return &ReminderService{tasks: tasks}
}

// DailySummary renders today's progress of every task as Telegram-safe HTML.
func (s *ReminderService) DailySummary(ctx context.Context) (string, error) {
	overview, err := s.tasks.List(ctx)
	if err != nil {
		return "", err
	}
	return FormatSummary(overview), nil
}

func FormatSummary(overview Overview) string {
	var builder strings.Builder
	builder.WriteString("📋 <b>Daily progress</b>\n")
	if day, err := clock.ParseDate(overview.Today); err == nil {
		builder.WriteString(fmt.Sprintf("🗓 %s\n\n", day.Format("02.01.2006")))
	}

	if len(overview.Tasks) == 0 {
		builder.WriteString("— no tasks defined\n")
		return strings.TrimSpace(builder.String())
	}

	for _, view := range overview.Tasks {
		builder.WriteString(formatView(view))
	}
	return strings.TrimSpace(builder.String())
}

func formatView(view TaskView) string {
	var sb strings.Builder
	summary := view.Summary()

	icon := "⬜"
	if summary.DoneToday {
		icon = "✅"
	}
	if nd, ok := view.(NumberDiffView); ok && nd.Achieved {
		icon = "🏆"
	}

	sb.WriteString(fmt.Sprintf("%s <b>#%d</b> %s", icon, summary.ID, html.EscapeString(strings.TrimSpace(summary.TileText))))

	switch v := view.(type) {
	case ConfirmView:
		sb.WriteString(fmt.Sprintf("\n   📈 %d / %s", v.Current, FormatNumber(v.Goal)))
		if text := strings.TrimSpace(v.SuccessRendered); text != "" {
			sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.ReplaceAll(text, "\n", " "))))
		}
	case NumberDiffView:
		if v.LatestValue == nil {
			sb.WriteString(fmt.Sprintf("\n   📈 no values yet, goal %s", FormatNumber(v.Goal)))
		} else {
			sb.WriteString(fmt.Sprintf("\n   📈 %s → %s", FormatNumber(*v.LatestValue), FormatNumber(v.Goal)))
			if v.CurrentMinusGoal != nil && *v.CurrentMinusGoal > 0 {
				sb.WriteString(fmt.Sprintf(" · %s to go", FormatNumber(*v.CurrentMinusGoal)))
			}
		}
	}

	if summary.Deadline != "" {
		sb.WriteString(fmt.Sprintf("\n   ⏰ until %s", summary.Deadline))
	}
	sb.WriteByte('\n')
	return sb.String()
}
