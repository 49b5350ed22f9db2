package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smarty/deliver/core"
	"github.com/smarty/deliver/shell"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "[ERROR]", err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:                "deliver [flags] [content-id...]",
		Short:              "Install, verify and publish manifest-described content.",
		Long:               "Without a subcommand, deliver installs every dependency in the listing.",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE:               installMain,
	}
	root.AddCommand(
		&cobra.Command{Use: "install", Short: "Install every listed dependency (the default).", DisableFlagParsing: true, RunE: installMain},
		&cobra.Command{Use: "verify", Short: "Check installed files against their cached manifests.", DisableFlagParsing: true, RunE: verifyMain},
		&cobra.Command{Use: "uninstall", Short: "Remove installed dependencies and their cached manifests.", DisableFlagParsing: true, RunE: uninstallMain},
		&cobra.Command{Use: "publish", Short: "Write a content server tree from a directory.", DisableFlagParsing: true, RunE: publishMain},
		&cobra.Command{Use: "version", Short: "Print the build version.", Args: cobra.NoArgs, Run: versionMain},
	)
	return root
}

func newConfigLoader() *core.ConfigLoader {
	return core.NewConfigLoader(shell.NewDiskFileSystem(), shell.NewEnvironment(), os.Stdin, os.Stderr)
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func installMain(command *cobra.Command, args []string) error {
	config, err := newConfigLoader().LoadInstallConfig("install", args)
	if err != nil {
		return quietHelp(err)
	}
	app, err := NewInstallApp(config, newLogger(config.Verbose))
	if err != nil {
		return err
	}
	return app.Run(command.Context())
}

func verifyMain(command *cobra.Command, args []string) error {
	config, err := newConfigLoader().LoadInstallConfig("verify", args)
	if err != nil {
		return quietHelp(err)
	}
	app, err := NewInstallApp(config, newLogger(config.Verbose))
	if err != nil {
		return err
	}
	return app.Verify(command.OutOrStdout())
}

func uninstallMain(command *cobra.Command, args []string) error {
	config, err := newConfigLoader().LoadInstallConfig("uninstall", args)
	if err != nil {
		return quietHelp(err)
	}
	app, err := NewInstallApp(config, newLogger(config.Verbose))
	if err != nil {
		return err
	}
	return app.Uninstall()
}

func publishMain(command *cobra.Command, args []string) error {
	config, err := newConfigLoader().LoadPublishConfig("publish", args)
	if err != nil {
		return quietHelp(err)
	}
	_, err = newPublishApp(config, nil, newLogger(config.Verbose)).Run(command.Context())
	return err
}

func versionMain(command *cobra.Command, _ []string) {
	_, _ = fmt.Fprintf(command.OutOrStdout(), "deliver [%s]\n", ldflagsSoftwareVersion)
}

func quietHelp(err error) error {
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	return err
}

var errReported = errors.New("failure already reported")

var ldflagsSoftwareVersion = "debug"
