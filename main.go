package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/medilabo/medilabo-cli/medilabo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
	"gopkg.in/urfave/cli.v1"
)

type environment struct {
	ctx          context.Context
	config       Config
	session      SessionStore
	client       *MedilaboClient
	out          io.Writer
	colored      bool
	readPassword func() (string, error)
	closers      []io.Closer
}

func (e *environment) load(configPath string) error {
	config, err := parseConfig(configPath)
	if err != nil {
		return err
	}
	store, err := OpenSessionStore(e.ctx, config.SessionDB)
	if err != nil {
		return err
	}
	e.closers = append(e.closers, store)

	client, err := NewMedilaboClient(config, store)
	if err != nil {
		return err
	}
	e.config = config
	e.session = store
	e.client = client
	return nil
}

func (e *environment) close() {
	for _, closer := range e.closers {
		if err := closer.Close(); err != nil {
			log.Warnf("failed to release resource: %s", err)
		}
	}
}

func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no password given and stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Mot de passe : ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

func initLogs(verbose bool) {
	log.SetOutput(os.Stdout)
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func newApp(env *environment) *cli.App {
	app := cli.NewApp()
	app.Name = "medilabo"
	app.Usage = "Manage MediLabo patients, appointments, clinical notes and users through the API gateway"
	app.Writer = env.out
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "path to the JSON configuration file",
			EnvVar: "MEDILABO_CONFIG",
		},
	}
	app.Before = func(c *cli.Context) error {
		if env.client != nil {
			return nil
		}
		return env.load(c.String("config"))
	}
	app.Commands = commands(env)
	return app
}

// explainError turns the errors of a command into the message shown to the
// user.
func explainError(err error) string {
	var validationErr *medilabo.ValidationError
	if errors.As(err, &validationErr) {
		var b strings.Builder
		b.WriteString("Le formulaire contient des erreurs :")
		for _, field := range validationErr.FieldNames() {
			fmt.Fprintf(&b, "\n  %s : %s", field, validationErr.Fields[field])
		}
		return b.String()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return "Erreur réseau ou serveur : " + err.Error()
	}
	return err.Error()
}

func main() {
	initLogs(os.Getenv("VERBOSE") != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	env := &environment{
		ctx:          ctx,
		out:          os.Stdout,
		colored:      isatty.IsTerminal(os.Stdout.Fd()),
		readPassword: promptPassword,
	}

	err := newApp(env).Run(os.Args)
	env.close()
	stop()
	if err != nil {
		log.Fatal(explainError(err))
	}
}
