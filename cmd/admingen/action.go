package main

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-admingen/components/actions"
	"github.com/goliatone/go-admingen/internal/prompt"
)

var actionKey string

var actionCmd = &cobra.Command{
	Use:   "action MODEL ID...",
	Short: "Run a bulk action over records",
	Example: `  admingen action Book 1 2 --action deactivate
  admingen action Book 3`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		admin, err := openAdmin(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer admin.Close()

		repo, err := admin.Registry().Lookup(args[0])
		if err != nil {
			return err
		}
		d := prompt.Survey(survey.WithStdio(os.Stdin, os.Stdout, os.Stderr))
		req, err := prompt.ActionRequest(ctx, d, repo, actionKey, args[1:])
		if err != nil {
			return err
		}

		outcome, err := actions.Run(ctx, admin.Registry(), req)
		if err != nil {
			return err
		}
		res := outcome.Response
		out := cmd.OutOrStdout()
		if res.Message() != "" {
			fmt.Fprintln(out, res.Message())
		}
		if dl, ok := res.FileDownload(); ok {
			fmt.Fprintf(out, "File written to %s\n", dl.Path)
		}
		if !res.Succeeded() {
			return fmt.Errorf("%s failed", req.Action)
		}
		return nil
	},
}

func init() {
	actionCmd.Flags().StringVarP(&actionKey, "action", "a", "", "action key; prompts when empty")
}
