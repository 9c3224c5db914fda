// Command cachectl inspects and operates a cacheable deployment: it reads and
// bumps the global version, computes keys, and expires or inspects entries.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := &cli.App{
		Name:  "cachectl",
		Usage: "operate a cacheable shared store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to YAML config file",
				EnvVars: []string{"CACHECTL_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "store",
				Usage:   "override store kind: redis, memcache or memory",
				EnvVars: []string{"CACHECTL_STORE"},
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "override redis URL",
				EnvVars: []string{"CACHECTL_REDIS_URL", "REDIS_URL"},
			},
			&cli.StringSliceFlag{
				Name:    "memcache",
				Usage:   "override memcache servers (host:port)",
				EnvVars: []string{"CACHECTL_MEMCACHE"},
			},
			&cli.StringFlag{
				Name:    "namespace",
				Usage:   "override version namespace",
				EnvVars: []string{"CACHECTL_NAMESPACE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level",
				EnvVars: []string{"CACHECTL_LOG_LEVEL"},
			},
		},
		Before: setup,
		After:  teardown,
	}
	app.Commands = []*cli.Command{
		{
			Name:  "version",
			Usage: "read or change the global cache version",
			Subcommands: []*cli.Command{
				{
					Name:   "get",
					Usage:  "print the current version",
					Action: runVersionGet,
				},
				{
					Name:      "init",
					Usage:     "seed the version; never lowers an existing one",
					ArgsUsage: "[n]",
					Action:    runVersionInit,
				},
				{
					Name:   "bump",
					Usage:  "increment the version, orphaning every cached entry",
					Action: runVersionBump,
				},
			},
		},
		{
			Name:      "key",
			Usage:     "print the storage key for a call",
			ArgsUsage: "<op> [args...]",
			Flags:     targetFlags(),
			Action:    runKey,
		},
		{
			Name:      "expire",
			Usage:     "delete the entry for a call",
			ArgsUsage: "<op> [args...]",
			Flags:     targetFlags(),
			Action:    runExpire,
		},
		{
			Name:      "inspect",
			Usage:     "show a stored entry",
			ArgsUsage: "<key>",
			Action:    runInspect,
		},
		{
			Name:      "policies",
			Usage:     "validate a policies file and print the parsed result",
			ArgsUsage: "[file]",
			Action:    runPolicies,
		},
	}
	return app
}
