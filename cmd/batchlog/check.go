package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/philipp01105/batchlog/appender"
	"github.com/philipp01105/batchlog/config"
	"github.com/philipp01105/batchlog/layout"
)

func cmdCheck() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "validate a configuration file and build its appenders",
		Flags: []cli.Flag{configFlag},
		Action: func(c *cli.Context) error {
			f, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			cfg, err := f.Build(appender.NewRegistry(), zap.NewNop())
			if err != nil {
				return err
			}
			defer func() {
				for _, r := range cfg.Appenders {
					_ = r.Appender.Close()
				}
			}()

			template := cfg.Template
			if template == "" {
				template = layout.DefaultTemplate
			}
			var kinds []string
			for _, p := range layout.Compile(template).Placeholders() {
				kinds = append(kinds, p.String())
			}
			fmt.Fprintf(c.App.Writer, "template %q uses %s\n", template, strings.Join(kinds, ", "))
			for _, r := range cfg.Appenders {
				fmt.Fprintf(c.App.Writer, "appender %s >= %s\n", r.Appender.Name(), r.Threshold)
			}
			return nil
		},
	}
}

func cmdKinds() *cli.Command {
	return &cli.Command{
		Name:  "kinds",
		Usage: "list the appender kinds a configuration may use",
		Action: func(c *cli.Context) error {
			for _, kind := range appender.NewRegistry().Kinds() {
				fmt.Fprintln(c.App.Writer, kind)
			}
			return nil
		},
	}
}
