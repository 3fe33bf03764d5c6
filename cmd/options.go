package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	optionsLibrary string
	optionsStrict  bool
)

var optionsCmd = &cobra.Command{
	Use:   "options [block...]",
	Short: "List selectable options for blocks (all schema blocks by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		library := optionsLibrary
		if library == "" {
			library = rt.cfg.Composer.DefaultLibrary
		}

		w := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, b := range rt.adapter.Inputs(library).Blocks {
				fmt.Fprintf(w, "%s: %s\n", b.Name, strings.Join(b.Options, ", "))
			}
			return nil
		}

		for _, block := range args {
			opts, err := rt.adapter.Options(library, block, optionsStrict)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s: %s\n", block, strings.Join(opts, ", "))
		}
		return nil
	},
}

var librariesCmd = &cobra.Command{
	Use:   "libraries",
	Short: "List loaded libraries and configured models",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		w := cmd.OutOrStdout()
		for _, name := range rt.engine.LibraryNames() {
			fmt.Fprintln(w, name)
		}
		fmt.Fprintf(w, "models: %s\n", strings.Join(rt.adapter.Models(), ", "))
		return nil
	},
}

func init() {
	optionsCmd.Flags().StringVar(&optionsLibrary, "library", "", "Library id (default: config default_library)")
	optionsCmd.Flags().BoolVar(&optionsStrict, "strict", false, "Fail when the library is not loaded")
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(librariesCmd)
}
