// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"os"

	"github.com/z5labs/apigate"

	"github.com/spf13/cobra"
	bedrockcfg "github.com/z5labs/bedrock/config"
)

func rootCmd() *cobra.Command {
	var configPath string

	serve := serveCmd(&configPath)

	cmd := &cobra.Command{
		Use:   "apigate",
		Short: "Serve an API described by a Swagger 2.0 definition",
		Long: `apigate serves every operation of a Swagger 2.0 definition with the
handler registered for its x-swagger-router-controller and operationId.

Configuration is read from the built in defaults, overridden by the file
given with --config. Both support {{env "NAME"}} substitution and a .env
file in the working directory is loaded first.`,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	cmd.AddCommand(serve)
	cmd.AddCommand(routesCmd(&configPath))
	return cmd
}

// configSource layers the config file at path, if any, over the defaults.
func configSource(path string) (bedrockcfg.Source, error) {
	srcs := []bedrockcfg.Source{apigate.DefaultConfig()}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, apigate.ConfigSource(bytes.NewReader(b)))
	}
	return bedrockcfg.MultiSource(srcs...), nil
}
