package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/hostsub/internal"
	"github.com/starford/hostsub/internal/apperr"
	"github.com/starford/hostsub/internal/mcpserver"
	pkgconfig "github.com/starford/hostsub/pkg/config"
)

func hostsCommand() *cli.Command {
	return &cli.Command{
		Name:  "hosts",
		Usage: "Read and edit the hosts file",
		Commands: []*cli.Command{
			{
				Name:   "read",
				Usage:  "Print the hosts file without comment lines",
				Action: withApp(readHosts),
			},
			{
				Name:   "list",
				Usage:  "Print active mappings as JSON",
				Action: withApp(listHosts),
			},
			{
				Name:      "set",
				Usage:     "Map a hostname to an address, replacing lines that contain it",
				ArgsUsage: "<ip> <hostname> [alias...]",
				Action:    withApp(setHost),
			},
			{
				Name:      "rm",
				Usage:     "Remove every line containing the hostname",
				ArgsUsage: "<hostname>",
				Action:    withApp(removeHost),
			},
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the configuration file",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the default configuration to --config",
				Action: func(_ context.Context, cmd *cli.Command) error {
					path := cmd.String("config")
					if _, err := os.Stat(path); err == nil {
						return fmt.Errorf("%s already exists", path)
					}
					if err := pkgconfig.Save(path, internal.NewDefaultConfig()); err != nil {
						return err
					}
					fmt.Println("wrote", path)
					return nil
				},
			},
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readHosts(ctx context.Context, _ *cli.Command, app *internal.App) error {
	content, err := app.Service.Read(ctx)
	if err != nil {
		return err
	}
	fmt.Print(content)
	return nil
}

func listHosts(ctx context.Context, _ *cli.Command, app *internal.App) error {
	entries, err := app.Service.Entries(ctx)
	if err != nil {
		return err
	}
	return printJSON(entries)
}

func setHost(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	line := strings.Join(cmd.Args().Slice(), " ")
	res, err := app.Service.SetLine(ctx, line)
	if err != nil {
		return err
	}
	verb := "added"
	if res.Matched {
		verb = "updated"
	}
	fmt.Printf("%s: %s\n", verb, line)
	return nil
}

func removeHost(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	name := cmd.Args().First()
	if name == "" {
		return errors.New("hostname is required")
	}
	if _, err := app.Service.Remove(ctx, name); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			fmt.Printf("no line contains %s\n", name)
			return nil
		}
		return err
	}
	fmt.Printf("removed: %s\n", name)
	return nil
}

func listAddresses(ctx context.Context, _ *cli.Command, app *internal.App) error {
	for _, r := range app.Service.Addresses(ctx) {
		fmt.Println(r.String())
	}
	return nil
}

func diffAddresses(ctx context.Context, _ *cli.Command, app *internal.App) error {
	return printJSON(app.Service.Diff(ctx))
}

func checkAddresses(ctx context.Context, _ *cli.Command, app *internal.App) error {
	rep, err := app.Service.Check(ctx)
	if err != nil {
		return err
	}
	return printJSON(rep)
}

func serveMCP(_ context.Context, _ *cli.Command, app *internal.App) error {
	return mcpserver.New(app.Service, version).ServeStdio()
}
