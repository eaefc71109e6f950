// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"log/slog"

	"github.com/z5labs/apigate"
	"github.com/z5labs/apigate/app"

	"github.com/spf13/cobra"
)

var errServe = errors.New("apigate stopped with an error")

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Bind the definition and serve it until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := configSource(*configPath)
			if err != nil {
				return err
			}

			log := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), nil))
			runner := apigate.NewRunner(app.Builder(), apigate.ReportTo(log))

			// the failure was already reported so only the exit code is left
			if runner.Run(cmd.Context(), src) != nil {
				return errServe
			}
			return nil
		},
	}
}
