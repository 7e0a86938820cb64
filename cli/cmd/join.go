package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opuscine/watchtogether-sdk-go/watchtogether"
)

var joinCmd = &cobra.Command{
	Use:   "join <room>",
	Short: "Join a watch-together room and chat",
	Long: `Joins the given room (the content id of what everyone is watching),
announces your entry and starts an interactive chat. Type messages and press
enter to send; /quit leaves the room.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJoin(args[0])
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
}

func runJoin(roomKey string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(viper.GetBool(verboseKey))
	session := watchtogether.NewSession(sdkConfig(), consoleSurface{out: os.Stdout})
	session.SetLogger(logger)

	session.OnStateChanged(func(ev watchtogether.StateEvent) {
		logger.Info("connection state", map[string]any{
			"from": ev.OldState.String(),
			"to":   ev.NewState.String(),
		})
	})
	session.OnError(func(err error) {
		logger.Warn("session error", map[string]any{"error": err.Error()})
	})

	if err := session.Start(ctx, roomKey); err != nil {
		switch {
		case watchtogether.IsAuthRequired(err):
			fmt.Fprintln(os.Stderr, "Login required: sign in to the site before joining a room.")
		case watchtogether.CodeOf(err) == watchtogether.ErrorConnectFailed:
			fmt.Fprintln(os.Stderr, "Unable to join the room right now. Try again shortly.")
		}
		return err
	}
	defer session.Leave()

	fmt.Printf("Joined %q as %s. Type messages, /quit to leave.\n", roomKey, session.Participant().Nickname)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-session.Done():
			return errors.New("connection lost")
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "/quit" {
				return nil
			}
			if err := session.SendMessage(ctx, line); err != nil {
				logger.Warn("send failed", map[string]any{"error": err.Error()})
			}
		}
	}
}
