package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/rxtech-lab/equity-trader/internal/config"
	tradingprovider "github.com/rxtech-lab/equity-trader/internal/trading/provider"
	"github.com/urfave/cli/v3"
)

// checkConfigAction loads the config and the provider block without connecting anywhere.
func checkConfigAction(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	if _, err := tradingprovider.ParseProviderConfigMap(cfg.Gateway.Provider, cfg.Gateway.ProviderConfig); err != nil {
		return err
	}

	out := output(cmd)
	fmt.Fprint(out, cfg.Summary())

	if secrets := tradingprovider.GetProviderSecretFields(cfg.Gateway.Provider); len(secrets) > 0 {
		fmt.Fprintf(out, "secret fields: %s\n", strings.Join(secrets, ", "))
	}

	fmt.Fprintln(out, "configuration OK")

	return nil
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	var (
		schema string
		err    error
	)

	if provider := cmd.String("provider"); provider != "" {
		schema, err = tradingprovider.GetProviderConfigSchema(provider)
	} else {
		schema, err = config.GetConfigSchema()
	}

	if err != nil {
		return err
	}

	fmt.Fprintln(output(cmd), schema)

	return nil
}

func providersAction(_ context.Context, cmd *cli.Command) error {
	w := tabwriter.NewWriter(output(cmd), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDISPLAY NAME\tPAPER\tDESCRIPTION")

	for _, name := range tradingprovider.GetSupportedProviders() {
		info, err := tradingprovider.GetProviderInfo(name)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", info.Name, info.DisplayName, info.IsPaperTrading, info.Description)
	}

	return w.Flush()
}
