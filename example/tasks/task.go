package tasks

import (
	"time"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

// Task is a versioned entity. An empty ID marks a task that was never persisted.
type Task struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// NewTask returns a new, unsaved task created at now.
func NewTask(title, description string, now time.Time) *Task {
	now = versionhistory.NormalizeTimestamp(now)

	return &Task{
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Touch sets UpdatedAt, the as-of time of the next version of the task.
func (t *Task) Touch(now time.Time) {
	t.UpdatedAt = versionhistory.NormalizeTimestamp(now)
}
