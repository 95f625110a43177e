// todo is the command line interface of the todochain node and its TodoList
// contracts.
package main

import (
	"fmt"
	"os"

	"github.com/tos-network/todochain/cmd/utils"
	"github.com/tos-network/todochain/internal/flags"
	"github.com/urfave/cli/v2"
)

const clientIdentifier = "todo"

// Git SHA1 commit hash of the release (set via linker flags)
var (
	gitCommit = ""
	gitDate   = ""
)

var app = flags.NewApp(gitCommit, gitDate, "the todochain command line interface")

func init() {
	app.Commands = []*cli.Command{
		initCommand,
		accountCommand,
		serveCommand,
		dumpConfigCommand,
		deployCommand,
		createCommand,
		updateCommand,
		deleteCommand,
		getCommand,
		listCommand,
		countCommand,
		feeCommand,
		ownerCommand,
		transferOwnershipCommand,
		renounceOwnershipCommand,
		withdrawCommand,
		versionCommand,
	}
	app.Flags = append(app.Flags, utils.LoggingFlags...)
	app.Flags = append(app.Flags, utils.ConfigFileFlag, utils.DataDirFlag, utils.KeyStoreDirFlag)

	migrate := app.Before
	app.Before = func(ctx *cli.Context) error {
		if err := migrate(ctx); err != nil {
			return err
		}
		return utils.SetupLogging(ctx)
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
