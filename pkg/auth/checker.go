package auth

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Letdown2491/waypoint/pkg/log"
	"github.com/Letdown2491/waypoint/pkg/metrics"
	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

// PIDResolver maps an IPC caller's bus address to its process id.
type PIDResolver interface {
	ResolvePID(ctx context.Context, sender string) (uint32, error)
}

// PolicyAgent is the platform policy service (polkit on Linux) consulted
// for every state-changing action.
type PolicyAgent interface {
	CheckAuthorization(ctx context.Context, pid uint32, startTime uint64, action string) (authorized bool, err error)
}

// Checker gates a named action behind the host's policy agent, subject to
// the calling process's pid and start time.
type Checker struct {
	resolver PIDResolver
	agent    PolicyAgent
	logger   zerolog.Logger
}

// NewChecker builds a Checker from its collaborators.
func NewChecker(resolver PIDResolver, agent PolicyAgent) *Checker {
	return &Checker{resolver: resolver, agent: agent, logger: log.WithComponent("auth")}
}

// Check resolves sender to a (pid, start_time) pair and asks the policy
// agent whether that process may perform action. It returns nil iff the
// agent authorizes the request.
func (c *Checker) Check(ctx context.Context, sender string, action string) error {
	pid, err := c.resolver.ResolvePID(ctx, sender)
	if err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "resolve caller process id", err)
	}

	startTime, err := processStartTime(pid)
	if err != nil {
		return err
	}

	authorized, err := c.agent.CheckAuthorization(ctx, pid, startTime, action)
	if err != nil {
		return waypointerr.Wrap(waypointerr.ExternalFailure, "policy agent round trip", err)
	}
	if !authorized {
		metrics.AuthorizationDeniedTotal.WithLabelValues(action).Inc()
		c.logger.Warn().Uint32("pid", pid).Str("action", action).Msg("authorization denied")
		return waypointerr.New(waypointerr.AuthorizationDenied, "not authorized for action: "+action)
	}

	return nil
}
