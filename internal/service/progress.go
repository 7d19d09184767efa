package service

import (
	"context"

	"goal-tracker/internal/model"
	"goal-tracker/internal/repository"
)

// ValueClass tells the front-end how to colour a difference.
type ValueClass string

const (
	ClassGood    ValueClass = "good"
	ClassBad     ValueClass = "bad"
	ClassNeutral ValueClass = "neutral"
)

// TaskView is the computed, read-only progress of one task. The concrete type
// depends on the task type: ConfirmView or NumberDiffView.
type TaskView interface {
	Summary() TaskSummary
}

// TaskSummary holds the fields every view carries.
type TaskSummary struct {
	ID              uint           `json:"id"`
	TechnicalName   string         `json:"technical_name"`
	TileText        string         `json:"tile_text"`
	SuccessText     string         `json:"success_text"`
	Deadline        string         `json:"deadline"`
	Goal            float64        `json:"goal"`
	TaskType        model.TaskType `json:"task_type"`
	DoneToday       bool           `json:"done_today"`
	SuccessRendered string         `json:"success_rendered"`
}

func (s TaskSummary) Summary() TaskSummary { return s }

type ConfirmView struct {
	TaskSummary
	Current int `json:"current"`
}

type NumberDiffView struct {
	TaskSummary
	StartValue             *float64   `json:"startvalue"`
	LatestValue            *float64   `json:"latest_value"`
	LatestDay              *string    `json:"latest_day"`
	Achieved               bool       `json:"achieved"`
	StartMinusCurrent      *float64   `json:"start_minus_current"`
	StartMinusCurrentClass ValueClass `json:"start_minus_current_class,omitempty"`
	CurrentMinusGoal       *float64   `json:"current_minus_goal"`
	CurrentMinusGoalClass  ValueClass `json:"current_minus_goal_class,omitempty"`
}

// ProgressDate anchors a computation to one calendar day.
type ProgressDate struct {
	Today     string
	YearStart string
}

// TaskEntries are the stored entries a view is computed from.
type TaskEntries struct {
	Checkins      []model.Checkin
	NumberEntries []model.NumberEntry
}

type taskKind struct {
	load    func(ctx context.Context, store *repository.Store, task model.Task, date ProgressDate) (TaskEntries, error)
	compute func(task model.Task, entries TaskEntries, date ProgressDate) TaskView
}

// taskKinds is the single dispatch point for type-specific behaviour.
var taskKinds = map[model.TaskType]taskKind{
	model.TaskTypeConfirm: {
		load: func(ctx context.Context, store *repository.Store, task model.Task, date ProgressDate) (TaskEntries, error) {
			checkins, err := store.Checkins.ListSince(ctx, task.ID, date.YearStart)
			return TaskEntries{Checkins: checkins}, err
		},
		compute: func(task model.Task, entries TaskEntries, date ProgressDate) TaskView {
			return ComputeConfirm(task, entries.Checkins, date)
		},
	},
	model.TaskTypeNumberDiff: {
		load: func(ctx context.Context, store *repository.Store, task model.Task, _ ProgressDate) (TaskEntries, error) {
			entries, err := store.NumberEntries.ListByTask(ctx, task.ID)
			return TaskEntries{NumberEntries: entries}, err
		},
		compute: func(task model.Task, entries TaskEntries, date ProgressDate) TaskView {
			return ComputeNumberDiff(task, entries.NumberEntries, date)
		},
	},
}

// ComputeView dispatches on the task type. Unknown types yield the bare summary.
func ComputeView(task model.Task, entries TaskEntries, date ProgressDate) TaskView {
	kind, ok := taskKinds[task.TaskType]
	if !ok {
		return summaryOf(task)
	}
	return kind.compute(task, entries, date)
}

func loadEntries(ctx context.Context, store *repository.Store, task model.Task, date ProgressDate) (TaskEntries, error) {
	kind, ok := taskKinds[task.TaskType]
	if !ok {
		return TaskEntries{}, nil
	}
	return kind.load(ctx, store, task, date)
}

// ComputeConfirm counts "yes" answers from January 1st of the current year up to
// and including the deadline.
func ComputeConfirm(task model.Task, checkins []model.Checkin, date ProgressDate) ConfirmView {
	view := ConfirmView{TaskSummary: summaryOf(task)}

	for _, c := range checkins {
		if c.Answer != model.AnswerYes {
			continue
		}
		if c.Day >= date.YearStart && c.Day <= task.Deadline {
			view.Current++
		}
		if c.Day == date.Today {
			view.DoneToday = true
		}
	}

	view.SuccessRendered = RenderTemplate(task.SuccessText, TemplateValues{
		Current:  FormatNumber(float64(view.Current)),
		Goal:     FormatNumber(task.Goal),
		Deadline: task.Deadline,
	})
	return view
}

// ComputeNumberDiff derives distance to goal from the most recent entry.
func ComputeNumberDiff(task model.Task, entries []model.NumberEntry, date ProgressDate) NumberDiffView {
	view := NumberDiffView{TaskSummary: summaryOf(task), StartValue: task.StartValue}

	var latest *model.NumberEntry
	for i := range entries {
		e := &entries[i]
		if e.Day == date.Today {
			view.DoneToday = true
		}
		if latest == nil || e.Day > latest.Day {
			latest = e
		}
	}

	current := ""
	if task.StartValue != nil {
		current = FormatNumber(*task.StartValue)
	}

	if latest != nil {
		value := latest.Value
		day := latest.Day
		view.LatestValue = &value
		view.LatestDay = &day
		view.Achieved = value <= task.Goal
		current = FormatNumber(value)

		toGoal := roundDiff(value - task.Goal)
		view.CurrentMinusGoal = &toGoal
		view.CurrentMinusGoalClass = ClassBad
		if toGoal <= 0 {
			view.CurrentMinusGoalClass = ClassGood
		}

		if task.StartValue != nil {
			done := roundDiff(*task.StartValue - value)
			view.StartMinusCurrent = &done
			switch {
			case done > 0:
				view.StartMinusCurrentClass = ClassGood
			case done < 0:
				view.StartMinusCurrentClass = ClassBad
			default:
				view.StartMinusCurrentClass = ClassNeutral
			}
		}
	}

	view.SuccessRendered = RenderTemplate(task.SuccessText, TemplateValues{
		Current:  current,
		Goal:     FormatNumber(task.Goal),
		Deadline: task.Deadline,
	})
	return view
}

func summaryOf(task model.Task) TaskSummary {
	return TaskSummary{
		ID:              task.ID,
		TechnicalName:   task.TechnicalName,
		TileText:        task.TileText,
		SuccessText:     task.SuccessText,
		Deadline:        task.Deadline,
		Goal:            task.Goal,
		TaskType:        task.TaskType,
		SuccessRendered: task.SuccessText,
	}
}
