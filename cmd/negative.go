package cmd

import (
	"fmt"

	"github.com/kayz/modprompt/internal/negative"
	"github.com/spf13/cobra"
)

var (
	negativeCategories []string
	negativeCustom     string
)

var negativeCmd = &cobra.Command{
	Use:   "negative",
	Short: "Build a negative prompt from keyword categories",
	Long: `Build a negative prompt from the built-in keyword table.

Categories: quality, anatomy, style, lighting, context, texture.
Without --category the quality, anatomy and style categories are used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		toggles := negative.DefaultToggles()
		if cmd.Flags().Changed("category") {
			toggles = negative.Toggles{}
			for _, name := range negativeCategories {
				c, ok := negative.ParseCategory(name)
				if !ok {
					return fmt.Errorf("unknown category %q", name)
				}
				toggles[c] = true
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), negative.Compose(toggles, negativeCustom))
		return nil
	},
}

func init() {
	negativeCmd.Flags().StringSliceVar(&negativeCategories, "category", nil, "Categories to include (repeatable or comma separated)")
	negativeCmd.Flags().StringVar(&negativeCustom, "custom", "", "Extra negative text appended last")
	rootCmd.AddCommand(negativeCmd)
}
