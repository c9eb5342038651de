package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-admingen/pkg/openapi"
)

var (
	openapiFormat string
	openapiOutput string
	openapiTitle  string
)

var openapiCmd = &cobra.Command{
	Use:   "openapi",
	Short: "Print the OpenAPI document of the admin routes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		admin, err := openAdmin(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer admin.Close()

		doc, err := openapi.Describe(admin.Registry(), openapi.WithTitle(openapiTitle))
		if err != nil {
			return err
		}
		if err := doc.Validate(cmd.Context()); err != nil {
			return err
		}

		var out []byte
		switch strings.ToLower(openapiFormat) {
		case "json":
			out, err = doc.JSON()
		case "yaml", "yml":
			out, err = doc.YAML()
		default:
			return fmt.Errorf("unsupported format %q", openapiFormat)
		}
		if err != nil {
			return err
		}

		if openapiOutput == "" {
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}
		if err := os.WriteFile(openapiOutput, out, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", openapiOutput, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "OpenAPI document written to %s\n", openapiOutput)
		return nil
	},
}

func init() {
	openapiCmd.Flags().StringVarP(&openapiFormat, "format", "f", "yaml", "output format: json or yaml")
	openapiCmd.Flags().StringVarP(&openapiOutput, "output", "o", "", "output file (stdout if empty)")
	openapiCmd.Flags().StringVar(&openapiTitle, "title", "Admin", "document title")
}
