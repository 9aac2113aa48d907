package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robalobadob/linguapet/internal/game"
	"github.com/robalobadob/linguapet/internal/similarity"
)

var scoreCmd = &cobra.Command{
	Use:   "score <target> <spoken>",
	Short: "Score a speech transcript against a target word",
	Long: `Score prints the pronunciation similarity of a transcript, the same way
the server judges pronunciation answers (lowercased, trimmed).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold := cfg.PassThreshold
		if cmd.Flags().Changed("threshold") {
			threshold, _ = cmd.Flags().GetFloat64("threshold")
		}
		judge := game.NewJudge(threshold)

		target, spoken := similarity.Normalize(args[0]), similarity.Normalize(args[1])
		score := similarity.Score(target, spoken)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "similarity:   %.3f\n", score)
		fmt.Fprintf(out, "sounds alike: %t\n", similarity.SoundsAlike(target, spoken))
		fmt.Fprintf(out, "pass (> %.2f): %t\n", judge.Threshold(), score > judge.Threshold())
		return nil
	},
}

func init() {
	scoreCmd.Flags().Float64("threshold", game.DefaultPassThreshold, "Similarity a transcript must exceed to pass (overrides PASS_THRESHOLD)")
}
