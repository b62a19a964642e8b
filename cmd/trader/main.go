package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	tradingprovider "github.com/rxtech-lab/equity-trader/internal/trading/provider"
	"github.com/rxtech-lab/equity-trader/internal/version"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the trader configuration `FILE`",
		Value:   "config.yaml",
	}
}

// newApp builds the trader command tree.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "trader",
		Usage:   "Equity trading decision engine",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Connect to the gateway and run decision cycles until interrupted",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "Override the session output directory",
					},
					&cli.DurationFlag{
						Name:  "duration",
						Usage: "Stop after this long; 0 runs until interrupted",
						Value: 0,
					},
				},
				Action: runAction,
			},
			{
				Name:   "check-config",
				Usage:  "Validate the configuration and print a summary",
				Flags:  []cli.Flag{configFlag()},
				Action: checkConfigAction,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema of the configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "provider",
						Aliases: []string{"p"},
						Usage: fmt.Sprintf("Print the provider_config schema of a gateway provider (%s)",
							strings.Join(tradingprovider.GetSupportedProviders(), ", ")),
					},
				},
				Action: schemaAction,
			},
			{
				Name:   "research",
				Usage:  "Fetch statistics and ratings for the configured candidates",
				Flags:  []cli.Flag{configFlag()},
				Action: researchAction,
			},
			{
				Name:   "providers",
				Usage:  "List the supported gateway providers",
				Action: providersAction,
			},
		},
	}
}

// output returns the writer commands print to.
func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}

	return os.Stdout
}

func errOutput(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}

	return os.Stderr
}

func main() {
	cmd := newApp()

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
