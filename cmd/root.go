// Package cmd wires the safecheck command line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sentineltools/safecheck/pkg/config"
	"github.com/sentineltools/safecheck/pkg/logging"
	"github.com/sentineltools/safecheck/pkg/verify"
	"github.com/sentineltools/safecheck/pkg/version"
)

func Execute(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:      "safecheck",
		Usage:     "perform consistency checks on SAFE products",
		Version:   version.Version,
		ArgsUsage: "<SAFE product>...",
		Description: "Check the contents of SAFE products against the information included in\n" +
			"their manifest file: file presence, sizes, checksums, and schema validity\n" +
			"of XML components. Consistency between the product name and the manifest\n" +
			"is checked as well.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "suppress standard output messages and warnings, only errors are printed",
			},
			&cli.StringFlag{
				Name:    "schema",
				Aliases: []string{"s"},
				Usage:   "path to the XML schema file for the product manifest",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to the safecheck configuration file",
			},
		},
		Action: rootAction,
	}

	return app.Run(ctx, args)
}

func rootAction(_ context.Context, cmd *cli.Command) error {
	products := cmd.Args().Slice()
	if len(products) == 0 {
		return fmt.Errorf("at least one SAFE product argument is required")
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	quiet := cmd.Bool("quiet") || cfg.Options.Quiet
	level := "info"
	if quiet {
		level = "error"
	}
	logger, err := logging.New(level, cfg.Options.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	verifier := verify.New(verify.Options{
		SchemaPath:      cmd.String("schema"),
		SchemaOverrides: cfg.Schemas,
		Log:             logger.Sugar(),
	})

	overall := verify.Success
	for _, path := range products {
		if !quiet {
			fmt.Println(path)
		}
		res := verifier.Product(path)
		overall = verify.Max(overall, res.Severity)
		if !quiet {
			fmt.Println(renderSummary(res))
			fmt.Println()
		}
	}

	if code := overall.Code(); code != 0 {
		return cli.Exit("", code)
	}
	return nil
}
