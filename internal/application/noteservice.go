package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

// ProjectURL is the public home of the tracker.
const ProjectURL = "https://github.com/shilph/art"

// NoteService serves the note of the day, at most once per calendar day
// unless forced.
type NoteService struct {
	settings driven.SettingStore
	source   driven.NoteSource
	now      func() time.Time
}

// NewNoteService creates a new NoteService.
func NewNoteService(settings driven.SettingStore, source driven.NoteSource) *NoteService {
	return &NoteService{settings: settings, source: source, now: time.Now}
}

// Today returns the latest note. Without force it returns nil once the note
// has already been shown today. A successful fetch marks today as shown.
func (s *NoteService) Today(ctx context.Context, force bool) (*model.Note, error) {
	today := s.now().Format(model.DateLayout)

	if !force {
		last, err := s.settings.Get(ctx, model.SettingLastNoteDay)
		if err != nil {
			return nil, fmt.Errorf("load last note day: %w", err)
		}
		if last.Value == today {
			return nil, nil
		}
	}

	blog, err := s.settings.Get(ctx, model.SettingBlogLink)
	if err != nil {
		return nil, fmt.Errorf("load blog link: %w", err)
	}

	note, err := s.source.Latest(ctx, blog.Value)
	if err != nil {
		return nil, fmt.Errorf("fetch note: %w", err)
	}

	if err := s.settings.Set(ctx, model.SettingLastNoteDay, today); err != nil {
		slog.Warn("failed to mark note as shown", "error", err)
	}
	return note, nil
}

// AboutInfo describes the running tracker.
type AboutInfo struct {
	ProjectURL string
	Latest     *model.Release
}

// About returns the project page and, best effort, the latest release.
// checker may be nil.
func About(ctx context.Context, checker driven.ReleaseChecker) AboutInfo {
	info := AboutInfo{ProjectURL: ProjectURL}
	if checker == nil {
		return info
	}
	rel, err := checker.LatestRelease(ctx)
	if err != nil {
		slog.Debug("latest release lookup failed", "error", err)
		return info
	}
	info.Latest = rel
	return info
}
