// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Command icn-coordd boots a single coordination-core node. It is the
// minimal runtime entry point, not an API server; operators front it with
// their own tooling.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/InterCooperative-Network/icn-coord/config"
	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/log"
)

// version is set via -ldflags at release build time; left as the
// development default otherwise.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "icn-coordd",
		Short: "InterCooperative Network coordination core node",
	}
	root.AddCommand(newStartCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func newStartCmd() *cobra.Command {
	var configPath string
	var nodeID string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "start a coordination-core node",
		RunE: func(cmd *cobra.Command, args []string) error {
			if nodeID == "" {
				return fmt.Errorf("icn-coordd: --node-id is required")
			}

			var cfg config.Config
			var err error
			if configPath != "" {
				cfg, err = config.Load(configPath, coordcore.NodeID(nodeID))
			} else {
				cfg = config.DefaultConfig(coordcore.NodeID(nodeID))
				err = cfg.Valid()
			}
			if err != nil {
				return err
			}

			logger := log.NewNoOpLogger()
			n, err := newNode(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			n.run(ctx)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML node configuration file")
	cmd.Flags().StringVar(&nodeID, "node-id", "", "this node's NodeID")
	return cmd
}
