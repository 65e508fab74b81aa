package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/workload-radar/internal/dashboard"
	"github.com/spigell/workload-radar/internal/recommend"
)

const (
	PromptDone = "done"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank people for a set of required skills",
	Run: func(cmd *cobra.Command, _ []string) {
		runRecommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringSliceP("skills", "s", nil, "required skills, comma separated")
	recommendCmd.Flags().IntP("top", "t", 0, "number of candidates to show (default recommend.top or 3)")
	recommendCmd.Flags().Float64("hours", 0, "estimated hours, echoed in the result")
	recommendCmd.Flags().BoolP("interactive", "i", false, "pick skills from the ones present in the dataset")
}

func runRecommend(cmd *cobra.Command) {
	ctx := context.Background()
	p := setup(ctx, "recommend")

	ds := p.dataset(ctx)

	skills, _ := cmd.Flags().GetStringSlice("skills")
	top, _ := cmd.Flags().GetInt("top")
	hours, _ := cmd.Flags().GetFloat64("hours")
	if top == 0 {
		top = p.config.topK()
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		picked, err := pickSkills(dashboard.Skills(ds.People), skills)
		if err != nil {
			p.logger.Fatal("picking skills", zap.Error(err))
		}
		skills = picked
	}

	query := recommend.Query{Skills: skills, Hours: hours, TopK: top}
	if err := query.Validate(); err != nil {
		p.logger.Fatal("invalid query", zap.Error(err))
	}

	p.metrics.RecordRecommendation()
	result := recommend.Recommend(query, ds.People)

	if len(result.Candidates) == 0 {
		p.logger.Info("no candidates", zap.Strings("skills", result.Query.Skills))
		return
	}

	for i, c := range result.Candidates {
		p.logger.Info(fmt.Sprintf("#%d %s", i+1, c.Person.Name),
			zap.Float64("score", c.Score),
			zap.Float64("similarity", c.Similarity),
			zap.Float64("availability", c.Availability),
			zap.Strings("skills", c.Person.Skills),
		)
	}
}

// pickSkills lets the user add skills one by one until done is chosen.
func pickSkills(available, picked []string) ([]string, error) {
	if len(available) == 0 {
		return nil, errors.New("the dataset carries no skills")
	}

	chosen := make(map[string]bool, len(picked))
	for _, s := range picked {
		chosen[s] = true
	}

	for {
		items := make([]string, 0, len(available)+1)
		for _, s := range available {
			if !chosen[s] {
				items = append(items, s)
			}
		}

		skillPrompt := promptui.Select{
			Label: fmt.Sprintf("Choose a skill and press ENTER (selected: %d)", len(picked)),
			Items: append(items, PromptDone),
			Size:  10,
		}

		_, selected, err := skillPrompt.Run()
		if err != nil {
			return nil, err
		}

		if selected == PromptDone {
			return picked, nil
		}

		chosen[selected] = true
		picked = append(picked, selected)
	}
}
