package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kayz/modprompt/internal/host"
	"github.com/spf13/cobra"
)

var (
	composeRequestPath string
	composeOutputPath  string
	composeRecord      bool
	composeJSON        bool
	composeLibrary     string
	composeModel       string
	composeCustom      string
	composeSelections  map[string]string
	composeAddons      map[string]string
	composeFlags       map[string]string
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose a prompt from a request file or --select flags",
	Example: `  modprompt compose --library default --model sdxl --select composition=wide_shot --select subject=cat
  modprompt compose --request request.json --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(composeRecord)
		if err != nil {
			return err
		}
		defer rt.Close()

		req, err := buildComposeInput(cmd, rt.cfg.Composer.DefaultLibrary, rt.cfg.Composer.DefaultModel)
		if err != nil {
			return err
		}

		out := rt.adapter.ComposePrompt(cmd.Context(), req)

		w := cmd.OutOrStdout()
		if composeOutputPath != "" {
			f, err := os.Create(composeOutputPath)
			if err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			defer f.Close()
			w = f
		}
		return writeComposeOutput(w, out, composeJSON)
	},
}

// buildComposeInput merges the --request file with flag overrides.
func buildComposeInput(cmd *cobra.Command, defaultLibrary, defaultModel string) (host.PromptInput, error) {
	var req host.PromptInput
	if composeRequestPath != "" {
		data, err := os.ReadFile(composeRequestPath)
		if err != nil {
			return req, fmt.Errorf("read request: %w", err)
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("parse request: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("library") || req.Library == "" {
		req.Library = composeLibrary
	}
	if req.Library == "" {
		req.Library = defaultLibrary
	}
	if flags.Changed("model") || req.Model == "" {
		req.Model = composeModel
	}
	if req.Model == "" {
		req.Model = defaultModel
	}
	if flags.Changed("custom") {
		req.Custom = composeCustom
	}
	req.Selections = mergeInto(req.Selections, composeSelections)
	req.Addons = mergeInto(req.Addons, composeAddons)
	req.IntentFlags = mergeInto(req.IntentFlags, composeFlags)
	return req, nil
}

func mergeInto(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func writeComposeOutput(w io.Writer, out host.PromptOutput, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(out.Prompt, "\n"))
	return err
}

func init() {
	composeCmd.Flags().StringVar(&composeRequestPath, "request", "", "Path to JSON request file")
	composeCmd.Flags().StringVar(&composeOutputPath, "output", "", "Write output to file (default: stdout)")
	composeCmd.Flags().BoolVar(&composeRecord, "record", false, "Record the composition in the history database")
	composeCmd.Flags().BoolVar(&composeJSON, "json", false, "Print the full result as JSON")
	composeCmd.Flags().StringVar(&composeLibrary, "library", "", "Library id (default: config default_library)")
	composeCmd.Flags().StringVar(&composeModel, "model", "", "Target model id (default: config default_model)")
	composeCmd.Flags().StringVar(&composeCustom, "custom", "", "Free text appended after a BREAK")
	composeCmd.Flags().StringToStringVar(&composeSelections, "select", nil, "Block selection, block=option (repeatable)")
	composeCmd.Flags().StringToStringVar(&composeAddons, "addon", nil, "Block addon text, block=text (repeatable)")
	composeCmd.Flags().StringToStringVar(&composeFlags, "flag", nil, "Intent flag, name=value (repeatable)")
	rootCmd.AddCommand(composeCmd)
}
