// Score command runs the personality keyword heuristic.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/personality"
	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

const excerptLen = 80

type scoreOutput struct {
	ID     string             `json:"id"`
	Source string             `json:"source"`
	Result personality.Result `json:"result"`
}

func newScoreCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "score [text|-]",
		Short: "Score text with the personality keyword heuristic",
		Long: `Score computes base + sum(count * weight) over the configured keyword
categories, clamped to the configured cap. Text comes from the argument,
from stdin when the argument is "-", or from --file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, source, err := a.scoreInput(args, file)
			if err != nil {
				return err
			}
			res := a.scorer().Analyze(text)

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Detach()
			id, err := store.AppendScore(types.ScoreRecord{
				Source:  source,
				Excerpt: excerpt(text),
				Score:   res.Score,
				Bonus:   res.Bonus,
				Matches: res.Total(),
			})
			if err != nil {
				return sysError(fmt.Errorf("log score: %w", err))
			}

			if a.flagJSON {
				return printJSON(cmd.OutOrStdout(), scoreOutput{ID: id, Source: source, Result: res})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Score: %.3f (base %.2f + bonus %.3f)\n", res.Score, res.Base, res.Bonus)
			if len(res.Matched) > 0 {
				fmt.Fprintln(out, "Matched:", strings.Join(res.Matched, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read text from a file")
	return cmd
}

func (a *app) scoreInput(args []string, file string) (string, string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", "", fmt.Errorf("give either text or --file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", file, err)
		}
		return string(data), "file:" + file, nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", "", sysError(fmt.Errorf("read stdin: %w", err))
		}
		return string(data), "stdin", nil
	case len(args) == 1:
		return args[0], "cli", nil
	default:
		return "", "", fmt.Errorf("no text given")
	}
}

// excerpt returns the first excerptLen runes of text on one line.
func excerpt(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	r := []rune(s)
	if len(r) > excerptLen {
		return string(r[:excerptLen]) + "…"
	}
	return s
}
