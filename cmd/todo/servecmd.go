package main

import (
	"github.com/tos-network/todochain/cmd/utils"
	"github.com/tos-network/todochain/log"
	"github.com/tos-network/todochain/node"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Action: serve,
	Name:   "serve",
	Usage:  "Run a single node chain serving the HTTP API",
	Flags:  utils.NodeFlags,
	Description: `
The serve command runs a node sealing a block for every accepted transaction
(or every --miner.recommit interval) and serves the HTTP API, the websocket
log stream and, with --metrics, the prometheus exporter.

Run 'todo init' first to use a custom genesis. On an empty database without
one the development genesis is written, funding --dev.faucet when given.`,
}

func serve(ctx *cli.Context) error {
	cfg := makeConfig(ctx)
	stack, err := node.New(&cfg.Node)
	if err != nil {
		utils.Fatalf("Failed to create the node: %v", err)
	}
	defer stack.Close()

	log.Info("Starting todochain node", "config", cfg.Node.String())
	return utils.StartNode(stack)
}
