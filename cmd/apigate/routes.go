// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/z5labs/apigate"
	"github.com/z5labs/apigate/app"
	"github.com/z5labs/apigate/config"
	"github.com/z5labs/apigate/handlers"

	"github.com/spf13/cobra"
)

func routesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Bind the definition and print the route table",
		Long: `routes performs the same binding as serve without listening. It exits
non-zero if any declared operation has no handler.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := configSource(*configPath)
			if err != nil {
				return err
			}
			cfg, err := apigate.ReadConfig(src)
			if err != nil {
				return err
			}
			return printRoutes(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
}

func printRoutes(ctx context.Context, w io.Writer, cfg apigate.Config) error {
	// Keys are never verified here so there is no need to reach the key store.
	cfg.Auth.Verifier = config.StaticVerifier

	b, err := app.Bind(ctx, cfg, handlers.Tree())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATH\tHANDLER")
	for _, e := range b.Table.Entries() {
		fmt.Fprintf(tw, "%s\t%s\t%s.%s\n", e.Operation.Method, e.Path, e.Operation.HandlerGroup, e.Operation.OperationID)
	}
	return tw.Flush()
}
