package models

import "time"

// Task is an admin-published job. Reward is immutable once the task is
// visible; changing it means deleting and recreating the task.
type Task struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Reward    int64     `json:"reward" db:"reward"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// TaskCompletion is the one-time-per-task-per-account record that guards
// reward crediting against duplicate completion calls.
type TaskCompletion struct {
	UserID    int       `json:"userId" db:"user_id"`
	TaskID    string    `json:"taskId" db:"task_id"`
	Reward    int64     `json:"reward" db:"reward"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
