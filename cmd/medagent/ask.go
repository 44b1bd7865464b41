package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().Bool("route", false, "Print the routing decision before the answer")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("question must not be empty")
	}

	ctx := cmd.Context()

	a, err := newApp(ctx, envFlag(cmd))
	if err != nil {
		return err
	}
	defer a.Close()

	answer := a.orchestrator.Answer(ctx, question)

	out := cmd.OutOrStdout()
	if showRoute, _ := cmd.Flags().GetBool("route"); showRoute {
		route := string(answer.Decision.Path)
		if answer.Decision.Domain != "" {
			route += "/" + answer.Decision.Domain.String()
		}
		fmt.Fprintf(out, "[%s]\n", route)
	}
	fmt.Fprintln(out, answer.Text)
	return nil
}
