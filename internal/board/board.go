// Package board is the boundary between a front-end and the mission service.
// It turns every outcome into a notice plus a fresh list, so front-ends never
// handle storage errors themselves.
package board

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"no-time-buddy/internal/model"
	"no-time-buddy/internal/service"
)

const (
	TitleSuccess = "Success"
	TitleFailed  = "Failed"
)

const (
	msgSaved        = "Mission saved successfully."
	msgSaveFailed   = "Failed to save mission."
	msgCanceled     = "Mission canceled."
	msgCancelFailed = "Failed to cancel mission."
	msgLoadFailed   = "Failed to load missions."
	msgMissingInput = "Please enter Mission Title and Deadline."
	msgPastDeadline = "Mission Deadline cannot be earlier than today."
)

// Notice is the modal message shown after an action.
type Notice struct {
	Title   string
	Message string
}

func (n *Notice) Failed() bool {
	return n != nil && n.Title == TitleFailed
}

// MissionView is one row of the displayed list.
type MissionView struct {
	ID        uint
	Title     string
	Deadline  time.Time
	DaysLeft  int
	Remaining string
}

// View replaces whatever the front-end displayed before.
// Loaded is false when the list could not be read.
type View struct {
	Notice   *Notice
	Missions []MissionView
	Loaded   bool
}

type Board struct {
	missions *service.MissionService
	actorID  int64
	log      *slog.Logger
}

func New(missions *service.MissionService, actorID int64, log *slog.Logger) *Board {
	return &Board{
		missions: missions,
		actorID:  actorID,
		log:      log.With("logger", "board", "actor", actorID),
	}
}

// Save validates and stores a new mission, then reloads the list.
// Validation failures return without a reload since nothing changed.
func (b *Board) Save(ctx context.Context, title string, deadline *time.Time) View {
	mission, err := b.missions.CreateMission(ctx, b.actorID, service.MissionInput{Title: title, Deadline: deadline})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return View{Notice: &Notice{Title: TitleFailed, Message: validationMessage(err)}}
		}
		b.log.Error("error saving mission", "error", err)
		return b.withNotice(ctx, &Notice{Title: TitleFailed, Message: msgSaveFailed})
	}

	b.log.Info("mission saved", "id", mission.ID, "deadline", mission.Deadline.Format(time.DateOnly))
	return b.withNotice(ctx, &Notice{Title: TitleSuccess, Message: msgSaved})
}

// Cancel soft-deletes the mission, then reloads the list.
func (b *Board) Cancel(ctx context.Context, id uint) View {
	if err := b.missions.CancelMission(ctx, b.actorID, id); err != nil {
		b.log.Error("error canceling mission", "id", id, "error", err)
		return b.withNotice(ctx, &Notice{Title: TitleFailed, Message: msgCancelFailed})
	}

	b.log.Info("mission canceled", "id", id)
	return b.withNotice(ctx, &Notice{Title: TitleSuccess, Message: msgCanceled})
}

// Refresh reloads the active missions.
func (b *Board) Refresh(ctx context.Context) View {
	return b.withNotice(ctx, nil)
}

func (b *Board) withNotice(ctx context.Context, notice *Notice) View {
	missions, err := b.missions.ListActive(ctx)
	if err != nil {
		b.log.Error("error loading missions", "error", err)
		// a write outcome takes precedence; Loaded=false tells the caller the list is stale
		if notice == nil {
			notice = &Notice{Title: TitleFailed, Message: msgLoadFailed}
		}
		return View{Notice: notice}
	}

	return View{Notice: notice, Missions: Views(missions, b.missions.Now()), Loaded: true}
}

// Views converts missions to display rows relative to now.
func Views(missions []model.Mission, now time.Time) []MissionView {
	out := make([]MissionView, 0, len(missions))
	for _, m := range missions {
		days := service.DaysLeft(m.Deadline, now)
		out = append(out, MissionView{
			ID:        m.ID,
			Title:     m.Title,
			Deadline:  service.DateOnly(m.Deadline, now.Location()),
			DaysLeft:  days,
			Remaining: service.FormatDaysLeft(days),
		})
	}
	return out
}

func validationMessage(err error) string {
	if errors.Is(err, service.ErrPastDeadline) {
		return msgPastDeadline
	}
	return msgMissingInput
}
