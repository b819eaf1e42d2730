package main

import (
	"context"

	log "github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"
)

type sessionAction func(ctx context.Context, c *cli.Context) error

// requireSession guards a command behind the presence of a stored token.
// When no token is stored the wrapped action never runs, so no request
// reaches the gateway.
func requireSession(env *environment, action sessionAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		_, ok, err := env.session.Get(env.ctx)
		if err != nil {
			return err
		}
		if !ok {
			log.Debugf("command '%s' refused: no session token stored", c.Command.FullName())
			return ErrNotAuthenticated
		}
		return action(env.ctx, c)
	}
}
