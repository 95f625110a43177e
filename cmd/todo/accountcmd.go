package main

import (
	"fmt"

	"github.com/tos-network/todochain/cmd/utils"
	"github.com/tos-network/todochain/crypto"
	"github.com/urfave/cli/v2"
)

var accountCommand = &cli.Command{
	Name:  "account",
	Usage: "Manage accounts",
	Description: `
Manage accounts, list all existing accounts, create a new account or import a
private key.

Keys are stored under <DATADIR>/keystore as scrypt encrypted JSON files. Make
sure you remember the password you gave when creating a new account. Without
it you are not able to unlock your account.`,
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "Print summary of existing accounts",
			Action: accountList,
			Flags:  []cli.Flag{utils.DataDirFlag, utils.KeyStoreDirFlag},
		},
		{
			Name:   "new",
			Usage:  "Create a new account",
			Action: accountCreate,
			Flags: []cli.Flag{
				utils.DataDirFlag,
				utils.KeyStoreDirFlag,
				utils.PasswordFileFlag,
				utils.LightKDFFlag,
			},
			Description: `
    todo account new

Creates a new account and prints the address.

For non-interactive use the password can be specified with the --password flag.`,
		},
		{
			Name:      "import",
			Usage:     "Import a private key into a new account",
			Action:    accountImport,
			ArgsUsage: "<keyFile>",
			Flags: []cli.Flag{
				utils.DataDirFlag,
				utils.KeyStoreDirFlag,
				utils.PasswordFileFlag,
				utils.LightKDFFlag,
			},
			Description: `
    todo account import <keyfile>

Imports an unencrypted private key from <keyfile> and creates a new account.
The keyfile is assumed to contain an unencrypted private key in hexadecimal format.`,
		},
	},
}

func accountList(ctx *cli.Context) error {
	cfg := makeConfig(ctx)
	ks := utils.MakeKeyStore(ctx, &cfg.Node)
	accs, err := ks.Accounts()
	if err != nil {
		utils.Fatalf("Failed to read keystore: %v", err)
	}
	for index, acc := range accs {
		fmt.Printf("Account #%d: {%x} %s\n", index, acc.Address, acc.URL)
	}
	return nil
}

// accountCreate creates a new account into the keystore defined by the CLI flags.
func accountCreate(ctx *cli.Context) error {
	cfg := makeConfig(ctx)
	ks := utils.MakeKeyStore(ctx, &cfg.Node)

	password := utils.GetPassPhraseWithList("Your new account is locked with a password. Please give a password. Do not forget this password.", true, 0, utils.MakePasswordList(ctx))
	account, err := ks.NewAccount(password)
	if err != nil {
		utils.Fatalf("Failed to create account: %v", err)
	}
	fmt.Printf("\nYour new key was generated\n\n")
	fmt.Printf("Public address of the key:   %s\n", account.Address.Hex())
	fmt.Printf("Path of the secret key file: %s\n\n", account.URL.Path)
	fmt.Printf("- You can share your public address with anyone. Others need it to interact with you.\n")
	fmt.Printf("- You must NEVER share the secret key with anyone! The key controls access to your funds!\n")
	fmt.Printf("- You must BACKUP your key file! Without the key, it's impossible to access account funds!\n")
	fmt.Printf("- You must REMEMBER your password! Without the password, it's impossible to decrypt the key!\n\n")
	return nil
}

func accountImport(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		utils.Fatalf("keyfile must be given as the only argument")
	}
	keyfile := ctx.Args().First()
	key, err := crypto.LoadECDSA(keyfile)
	if err != nil {
		utils.Fatalf("Failed to load the private key: %v", err)
	}
	cfg := makeConfig(ctx)
	ks := utils.MakeKeyStore(ctx, &cfg.Node)

	passphrase := utils.GetPassPhraseWithList("Your new account is locked with a password. Please give a password. Do not forget this password.", true, 0, utils.MakePasswordList(ctx))
	acct, err := ks.ImportECDSA(key, passphrase)
	if err != nil {
		utils.Fatalf("Could not create the account: %v", err)
	}
	fmt.Printf("Address: {%x}\n", acct.Address)
	return nil
}
