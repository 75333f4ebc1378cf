package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-emailbuilder/components/builder"
	"github.com/goliatone/go-emailbuilder/components/builder/commands"
)

// Executor is the command surface transports call into.
type Executor interface {
	Insert(ctx context.Context, input commands.InsertBlockInput) error
	Move(ctx context.Context, input commands.MoveBlockInput) error
	Update(ctx context.Context, input commands.UpdateBlockInput) error
	Remove(ctx context.Context, input commands.RemoveBlockInput) error
	Layout(ctx context.Context, input commands.UpdateLayoutInput) error
	Save(ctx context.Context, input commands.SaveLayoutInput) error
}

var errCommandNotConfigured = errors.New("httpapi: command not configured")

// CommandExecutor adapts go-command commanders to Executor.
type CommandExecutor struct {
	InsertCommander gocommand.Commander[commands.InsertBlockInput]
	MoveCommander   gocommand.Commander[commands.MoveBlockInput]
	UpdateCommander gocommand.Commander[commands.UpdateBlockInput]
	RemoveCommander gocommand.Commander[commands.RemoveBlockInput]
	LayoutCommander gocommand.Commander[commands.UpdateLayoutInput]
	SaveCommander   gocommand.Commander[commands.SaveLayoutInput]
}

var _ Executor = (*CommandExecutor)(nil)

func (e *CommandExecutor) Insert(ctx context.Context, input commands.InsertBlockInput) error {
	return execute(ctx, e.InsertCommander, input)
}

func (e *CommandExecutor) Move(ctx context.Context, input commands.MoveBlockInput) error {
	return execute(ctx, e.MoveCommander, input)
}

func (e *CommandExecutor) Update(ctx context.Context, input commands.UpdateBlockInput) error {
	return execute(ctx, e.UpdateCommander, input)
}

func (e *CommandExecutor) Remove(ctx context.Context, input commands.RemoveBlockInput) error {
	return execute(ctx, e.RemoveCommander, input)
}

func (e *CommandExecutor) Layout(ctx context.Context, input commands.UpdateLayoutInput) error {
	return execute(ctx, e.LayoutCommander, input)
}

func (e *CommandExecutor) Save(ctx context.Context, input commands.SaveLayoutInput) error {
	return execute(ctx, e.SaveCommander, input)
}

func execute[T any](ctx context.Context, cmd gocommand.Commander[T], input T) error {
	if cmd == nil {
		return errCommandNotConfigured
	}
	return cmd.Execute(ctx, input)
}

// NewSessionExecutor wires every command against one editor session.
func NewSessionExecutor(session *builder.Session, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		InsertCommander: commands.NewInsertBlockCommand(session, telemetry),
		MoveCommander:   commands.NewMoveBlockCommand(session, telemetry),
		UpdateCommander: commands.NewUpdateBlockCommand(session, telemetry),
		RemoveCommander: commands.NewRemoveBlockCommand(session, telemetry),
		LayoutCommander: commands.NewUpdateLayoutCommand(session, telemetry),
		SaveCommander:   commands.NewSaveLayoutCommand(session, telemetry),
	}
}
