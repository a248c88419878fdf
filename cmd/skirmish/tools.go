package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hexhammer/skirmish/internal/roster"
	"github.com/hexhammer/skirmish/internal/scenario"
	"github.com/hexhammer/skirmish/internal/server"
	"github.com/hexhammer/skirmish/internal/stats"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [scenario.json]",
		Short: "Check a scenario file without starting a server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			sc, err := scenario.Load(path)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %dx%d board, %d units\n",
				sc.Name, sc.Board.Cols, sc.Board.Rows, len(sc.Units))
			return nil
		},
	}
}

func autoplayCmd() *cobra.Command {
	var seed int64
	var scenarioPath string
	cmd := &cobra.Command{
		Use:   "autoplay",
		Short: "Play a headless bot-vs-bot match and print the outcome",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := scenario.Load(scenarioPath)
			if err != nil {
				return err
			}
			st, err := stats.Open("")
			if err != nil {
				return err
			}
			defer st.Close()

			srv := server.New(sc, st, roster.NewClient(""))
			room := srv.NewBotMatch(seed)
			if err := room.PlayOut(); err != nil {
				return err
			}
			winner, draw, turns := room.Result()
			switch {
			case draw:
				fmt.Printf("draw after %d turns\n", turns)
			default:
				fmt.Printf("%s wins after %d turns\n", winner, turns)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 1, "dice seed")
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "scenario file (default: built-in)")
	return cmd
}

func initdbCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb <path>",
		Short: "Create or migrate the stats database",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			st, err := stats.Open(args[0])
			if err != nil {
				return err
			}
			if err := st.Close(); err != nil {
				return err
			}
			fmt.Printf("stats database ready at %s\n", args[0])
			return nil
		},
	}
}
