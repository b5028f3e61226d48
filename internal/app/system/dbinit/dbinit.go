// Package dbinit decides what happens when database initialization fails at
// startup.
//
// Local development fails loudly so a broken database is noticed at once.
// Containerized and non-development deployments log the failure and keep
// serving; individual requests that need the database fail on their own.
package dbinit

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// DevelopmentEnvironment is the only environment label that can make an
// initialization failure fatal. The comparison is case-sensitive.
const DevelopmentEnvironment = "Development"

// ContainerEnvVar signals a containerized deployment when set to "true".
const ContainerEnvVar = "DOTNET_RUNNING_IN_CONTAINER"

// Decision is the outcome for a failed initialization.
type Decision int

const (
	// Suppress logs the failure and lets startup continue.
	Suppress Decision = iota
	// Propagate aborts startup with the original error as cause.
	Propagate
)

func (d Decision) String() string {
	switch d {
	case Propagate:
		return "propagate"
	default:
		return "suppress"
	}
}

// Decide returns the outcome for an initialization failure given the hosting
// environment label and whether the process runs inside a container.
func Decide(environment string, inContainer bool) Decision {
	if environment == DevelopmentEnvironment && !inContainer {
		return Propagate
	}
	return Suppress
}

// InitError is returned when a failure is propagated. It keeps the original
// error reachable through errors.Is / errors.As.
type InitError struct {
	Environment string
	Err         error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("database initialization failed (environment %q): %v", e.Environment, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Policy is the initialization policy computed once at startup.
type Policy struct {
	Environment string
	InContainer bool
	FailFast    bool
}

// NewPolicy computes the policy for an environment and container signal.
func NewPolicy(environment string, inContainer bool) Policy {
	return Policy{
		Environment: environment,
		InContainer: inContainer,
		FailFast:    Decide(environment, inContainer) == Propagate,
	}
}

// Handle logs err at error level and returns a non-nil error only when the
// policy is fail-fast. A nil err is a no-op.
func (p Policy) Handle(err error, logger *zap.Logger) error {
	if err == nil {
		return nil
	}
	decision := Suppress
	if p.FailFast {
		decision = Propagate
	}
	logger.Error("database initialization failed",
		zap.Error(err),
		zap.String("environment", p.Environment),
		zap.Bool("in_container", p.InContainer),
		zap.Stringer("decision", decision),
	)
	if decision == Propagate {
		return &InitError{Environment: p.Environment, Err: err}
	}
	return nil
}

// IsInitError reports whether err is (or wraps) an InitError.
func IsInitError(err error) bool {
	var ie *InitError
	return errors.As(err, &ie)
}

// RunningInContainer reads the container signal from the environment.
// A nil getenv uses os.Getenv.
func RunningInContainer(getenv func(string) string) bool {
	if getenv == nil {
		getenv = os.Getenv
	}
	return strings.EqualFold(strings.TrimSpace(getenv(ContainerEnvVar)), "true")
}

// EnvironmentName maps a short core environment ("dev", "prod", ...) to its
// hosting environment label. Unknown values pass through unchanged.
func EnvironmentName(coreEnv string) string {
	switch coreEnv {
	case "dev":
		return DevelopmentEnvironment
	case "prod":
		return "Production"
	case "test":
		return "Test"
	case "staging":
		return "Staging"
	default:
		return coreEnv
	}
}
