// Package console mirrors player list changes onto a running server through its remote console so
// they take effect without a restart.
package console

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charlesshaw3/SimpleServers/internal/metrics"
	"github.com/charlesshaw3/SimpleServers/internal/servers"
	"github.com/leighmacdonald/rcon/rcon"
	"go.uber.org/ratelimit"
)

var (
	ErrDial = errors.New("failed to dial server console")
	ErrExec = errors.New("failed to exec console command")
)

type Options struct {
	DialTimeout time.Duration
	ExecTimeout time.Duration
	// Interval is the minimum spacing between commands across all servers.
	Interval time.Duration
}

// RCON sends commands over the Source RCON protocol.
type RCON struct {
	opts    Options
	limiter ratelimit.Limiter
}

func NewRCON(opts Options) *RCON {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}

	if opts.ExecTimeout <= 0 {
		opts.ExecTimeout = 15 * time.Second
	}

	limiter := ratelimit.NewUnlimited()
	if opts.Interval > 0 {
		limiter = ratelimit.New(1, ratelimit.Per(opts.Interval))
	}

	return &RCON{opts: opts, limiter: limiter}
}

// Exec runs each command in order on a single connection. The first failure stops the sequence.
func (r *RCON) Exec(ctx context.Context, server servers.Server, commands ...string) error {
	if len(commands) == 0 {
		return nil
	}

	execCtx, cancel := context.WithTimeout(ctx, r.opts.ExecTimeout)
	defer cancel()

	conn, errDial := rcon.Dial(execCtx, server.RCONAddress, server.RCONPassword, r.opts.DialTimeout)
	if errDial != nil {
		metrics.LiveSync(errDial)

		return errors.Join(errDial, ErrDial)
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			slog.Debug("Failed to close console connection", slog.String("server", server.Name))
		}
	}()

	for _, command := range commands {
		r.limiter.Take()

		resp, errExec := conn.Exec(command)
		metrics.LiveSync(errExec)

		if errExec != nil {
			return errors.Join(errExec, ErrExec)
		}

		slog.Debug("Console command sent", slog.String("server", server.Name),
			slog.String("command", command), slog.String("response", strings.TrimSpace(resp)))
	}

	return nil
}
