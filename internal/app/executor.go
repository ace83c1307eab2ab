package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jsamuelsen/quotebook/internal/platform/logging"
	"github.com/jsamuelsen/quotebook/internal/platform/telemetry"
)

// Sync and resolution run as a pipeline of five steps. Nothing is written
// before Archive, so a failed fetch or diff leaves the store untouched:
//
//	validate -> perform (fetch) -> verify (diff) -> archive (write) -> respond

// ExecutionStep names a pipeline step.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError records the step at which an operation failed.
type ExecutionError struct {
	Op      string
	Step    ExecutionStep
	Message string
	Cause   error
}

func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s failed: %s: %v", e.Op, e.Step, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s failed: %s", e.Op, e.Step, e.Message)
}

// Unwrap exposes the cause so domain error helpers see through the step.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Operation supplies the function for each step. Nil steps are skipped.
type Operation[I, P, V, O any] struct {
	Name string

	Validate func(ctx context.Context, input I) error
	Perform  func(ctx context.Context, input I) (P, error)
	Verify   func(ctx context.Context, input I, performed P) (V, error)
	Archive  func(ctx context.Context, input I, verified V) error
	Respond  func(ctx context.Context, input I, verified V) (O, error)
}

// Executor runs operations with step logging and a span per operation.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor. A nil logger falls back to slog.Default.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Execute runs op against input.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], input I) (O, error) {
	var zero O

	ctx, span := otel.Tracer(telemetry.InstrumentationName).Start(ctx, "app."+op.Name)
	defer span.End()

	logger := logging.FromContextOr(ctx, exec.logger).With(slog.String("operation", op.Name))
	start := time.Now()

	fail := func(step ExecutionStep, msg string, err error) (O, error) {
		span.SetAttributes(attribute.String("app.failed_step", string(step)))
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)

		level := slog.LevelWarn
		if step == StepArchive {
			level = slog.LevelError
		}

		logger.Log(ctx, level, "operation failed",
			slog.String("step", string(step)),
			slog.Any("error", err),
		)

		return zero, &ExecutionError{Op: op.Name, Step: step, Message: msg, Cause: err}
	}

	if op.Validate != nil {
		if err := op.Validate(ctx, input); err != nil {
			return fail(StepValidate, "input validation failed", err)
		}
	}

	var performed P

	if op.Perform != nil {
		logger.DebugContext(ctx, "performing operation")

		var err error
		if performed, err = op.Perform(ctx, input); err != nil {
			return fail(StepPerform, "operation failed", err)
		}
	}

	var verified V

	if op.Verify != nil {
		var err error
		if verified, err = op.Verify(ctx, input, performed); err != nil {
			return fail(StepVerify, "verification failed", err)
		}
	}

	if op.Archive != nil {
		if err := op.Archive(ctx, input, verified); err != nil {
			return fail(StepArchive, "state persistence failed", err)
		}
	}

	result := zero

	if op.Respond != nil {
		var err error
		if result, err = op.Respond(ctx, input, verified); err != nil {
			return fail(StepRespond, "response failed", err)
		}
	}

	logger.InfoContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}

// GetExecutionStep reports the step at which err occurred.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
