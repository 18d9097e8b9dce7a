package driven

import (
	"context"

	"github.com/shilph/art/internal/domain/model"
)

// NoteSource fetches the latest note of the day from the project blog.
type NoteSource interface {
	Latest(ctx context.Context, blogURL string) (*model.Note, error)
}

// ReleaseChecker looks up the latest published release of the tracker.
type ReleaseChecker interface {
	LatestRelease(ctx context.Context) (*model.Release, error)
}
