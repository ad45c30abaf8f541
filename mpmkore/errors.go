package mpmkore

import (
	"context"
	"fmt"
)

// TaskError is returned when a task run fails.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task '%s': %s", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

type Notification struct {
	Title    string
	Subtitle string
	Message  string
	Err      error
}

// Notifier delivers failure notifications to the operator.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type NotifierFunc func(context.Context, Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}
