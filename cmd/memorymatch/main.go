// cmd/memorymatch: terminal client. Plays the game locally and talks to
// the backend for accounts and the leaderboard.
//
//	memorymatch [-url http://localhost:5175] [-pairs 8]
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorymatch/internal/config"
	"github.com/robalobadob/memorymatch/internal/game"
	"github.com/robalobadob/memorymatch/internal/gateway/remote"
	"github.com/robalobadob/memorymatch/internal/session"
)

const helpText = `commands:
  register <user> <password>   create an account
  login <user> <password>      play under your name
  start                        deal a new board
  flip <n> | <n>               turn card n
  board                        show the board and clock
  top                          show the leaderboard
  quit
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	url := flag.String("url", cfg.Client.BackendURL, "backend base URL")
	pairs := flag.Int("pairs", cfg.Game.PairCount, "number of pairs on the board")
	flag.Parse()

	level, err := zerolog.ParseLevel(cfg.Client.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	backend := remote.New(*url,
		remote.WithTimeout(cfg.Client.HTTPTimeout),
		remote.WithMaxTries(cfg.Client.RetryMaxTries),
	)
	view := newTermView(os.Stdout)
	ctrl := session.NewController(backend, backend, view,
		session.WithSettings(session.Settings{
			PairCount:      *pairs,
			RollbackDelay:  cfg.Game.RollbackDelay(),
			TickInterval:   cfg.Game.TickInterval(),
			GatewayTimeout: cfg.Client.HTTPTimeout * time.Duration(max(cfg.Client.RetryMaxTries, 1)),
		}),
	)
	defer ctrl.Close()

	fmt.Print(helpText)
	if err := repl(context.Background(), os.Stdin, os.Stdout, ctrl, view); err != nil {
		log.Error().Err(err).Msg("read input")
	}
}

// repl reads commands until quit or EOF.
func repl(ctx context.Context, in io.Reader, out io.Writer, ctrl *session.Controller, view *termView) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := dispatch(ctx, out, ctrl, view, fields); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func dispatch(ctx context.Context, out io.Writer, ctrl *session.Controller, view *termView, fields []string) error {
	cmd, args := fields[0], fields[1:]
	if _, err := strconv.Atoi(cmd); err == nil {
		cmd, args = "flip", fields
	}

	switch cmd {
	case "help", "?":
		fmt.Fprint(out, helpText)

	case "register":
		if len(args) != 2 {
			return errors.New("usage: register <user> <password>")
		}
		_, err := ctrl.Register(ctx, args[0], args[1])
		return err

	case "login":
		if len(args) != 2 {
			return errors.New("usage: login <user> <password>")
		}
		err := ctrl.Login(ctx, args[0], args[1])
		if errors.Is(err, session.ErrAuthRejected) {
			return nil // the gateway's message was already shown
		}
		return err

	case "start":
		_, err := ctrl.StartGame()
		return err

	case "flip":
		if len(args) != 1 {
			return errors.New("usage: flip <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("not a card number: %q", args[0])
		}
		outcome, err := ctrl.CardClicked(n)
		if err != nil {
			return err
		}
		switch outcome {
		case game.OutcomeRejected:
			fmt.Fprintln(out, "can't flip that card now")
		case game.OutcomeMismatched:
			fmt.Fprintln(out, "no match")
		}

	case "board":
		st, err := ctrl.State()
		if err != nil {
			return err
		}
		view.ShowBoard(st.Board)
		if st.Running {
			fmt.Fprintf(out, "playing as %s, %s\n", ctrl.Identity(), view.Elapsed())
		} else {
			fmt.Fprintf(out, "finished in %s\n", game.FormatElapsed(st.Elapsed.Milliseconds()))
		}

	case "top":
		return ctrl.RefreshLeaderboard(ctx)

	case "whoami":
		fmt.Fprintln(out, ctrl.Identity())

	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}
