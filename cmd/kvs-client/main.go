// Command kvs-client sends get/set/rm requests to a kvs-server and
// prints the result, matching the CLI surface in §6.5.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	kvscli "github.com/lskv/lskv/internal/cli"
	"github.com/lskv/lskv/internal/client"
	"github.com/lskv/lskv/internal/config"
	"github.com/lskv/lskv/internal/kverrors"
)

// Version is set at build time via -ldflags; defaults to "dev" for a
// plain `go build`.
var Version = "dev"

func addrFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "addr",
		Aliases: []string{"a"},
		Usage:   "server IP:PORT",
	}
}

func targetAddr(c *cli.Context) string {
	if v := c.String("addr"); v != "" {
		return v
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return config.Default().ADDR
	}
	return cfg.ADDR
}

func main() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}

	app := &cli.App{
		Name:    "kvs-client",
		Usage:   "talk to a kvs-server",
		Version: Version,
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "print the value bound to a key",
				ArgsUsage: "<key>",
				Flags:     []cli.Flag{addrFlag()},
				Action:    runGet,
			},
			{
				Name:      "set",
				Usage:     "bind a key to a value",
				ArgsUsage: "<key> <value>",
				Flags:     []cli.Flag{addrFlag()},
				Action:    runSet,
			},
			{
				Name:      "rm",
				Usage:     "remove a key",
				ArgsUsage: "<key>",
				Flags:     []cli.Flag{addrFlag()},
				Action:    runRemove,
			},
			{
				Name:   "repl",
				Usage:  "start an interactive session against a kvs-server",
				Flags:  []cli.Flag{addrFlag()},
				Action: runRepl,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runGet(c *cli.Context) error {
	key := c.Args().First()
	if key == "" {
		return cli.Exit("kvs-client get: missing <key>", 1)
	}

	cl := client.New(targetAddr(c))
	value, ok, err := cl.Get(key)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if !ok {
		fmt.Println("Key not found")
		return nil
	}
	fmt.Println(value)
	return nil
}

func runSet(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return cli.Exit("kvs-client set: missing <key> <value>", 1)
	}
	key, value := c.Args().Get(0), c.Args().Get(1)

	cl := client.New(targetAddr(c))
	if err := cl.Set(key, value); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func runRepl(c *cli.Context) error {
	cl := client.New(targetAddr(c))
	return kvscli.NewHandler(cl).Run()
}

func runRemove(c *cli.Context) error {
	key := c.Args().First()
	if key == "" {
		return cli.Exit("kvs-client rm: missing <key>", 1)
	}

	cl := client.New(targetAddr(c))
	if err := cl.Remove(key); err != nil {
		var resp *kverrors.ServerRespError
		if errors.As(err, &resp) && resp.Text == kverrors.NewKeyNotFound(key).Error() {
			return cli.Exit("Key not found", 1)
		}
		return cli.Exit(err.Error(), 1)
	}
	return nil
}
