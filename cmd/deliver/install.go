package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smarty/deliver/contracts"
	"github.com/smarty/deliver/core"
	"github.com/smarty/deliver/remote"
	"github.com/smarty/deliver/shell"
)

const consoleProgressInterval = time.Second

// InstallApp carries the collaborators shared by install, verify and
// uninstall across every listed dependency.
type InstallApp struct {
	config      contracts.InstallConfig
	logger      zerolog.Logger
	store       contracts.ContentStore
	installer   *core.PackageInstaller
	verifier    *core.Verifier
	uninstaller *core.Uninstaller
}

func NewInstallApp(config contracts.InstallConfig, logger zerolog.Logger) (*InstallApp, error) {
	disk := shell.NewDiskFileSystem()
	store, err := shell.NewDiskContentStore(config.CacheDirectory, disk)
	if err != nil {
		return nil, err
	}
	downloader := remote.NewHTTPDownloader(shell.NewHTTPClient(), config.BearerToken, logger)
	retrier := core.NewRetrier(config.MaxRetry, time.Sleep, logger)
	installer := core.NewPackageInstaller(downloader, disk, store, retrier, logger, core.InstallerOptions{
		BatchSize:        config.BatchSize,
		StrictResume:     config.StrictResume,
		ProgressInterval: consoleProgressInterval,
	})
	return &InstallApp{
		config:      config,
		logger:      logger,
		store:       store,
		installer:   installer,
		verifier:    core.NewVerifier(disk, store, config.QuickVerification, logger),
		uninstaller: core.NewUninstaller(disk, store, logger),
	}, nil
}

func (this *InstallApp) dependencies() []contracts.Dependency {
	listing := this.config.Dependencies.Dependencies
	if len(listing) == 0 {
		this.logger.Warn().Msg("no dependencies provided, you can go about your business, move along")
		this.logger.Info().Msg("example json file:\n" + core.ExampleDependencyListing())
	}
	return listing
}

func (this *InstallApp) Run(ctx context.Context) error {
	waiter := new(sync.WaitGroup)
	results := make(chan error)
	for _, dependency := range this.dependencies() {
		dependency := dependency
		waiter.Add(1)
		go func() {
			defer waiter.Done()
			sink := shell.NewConsoleProgress(this.logger, dependency.Title())
			resolver := core.NewDependencyResolver(this.store, this.verifier, this.installer, this.uninstaller, sink, this.logger, dependency)
			if err := resolver.Resolve(ctx); err != nil {
				results <- err
			}
		}()
	}
	go func() {
		waiter.Wait()
		close(results)
	}()

	failed := 0
	for err := range results {
		failed++
		this.logger.Warn().Err(err).Msg("install failed")
	}
	if failed > 0 {
		this.logger.Error().Msgf("%d packages failed to install", failed)
		return errReported
	}
	return nil
}

func (this *InstallApp) Verify(output io.Writer) error {
	invalid := 0
	for _, dependency := range this.dependencies() {
		result, err := this.verifier.VerifyContent(dependency.ContentID, dependency.LocalDirectory)
		if err != nil {
			invalid++
			this.logger.Warn().Err(err).Str("dependency", dependency.Title()).Msg("could not verify")
			continue
		}
		if !result.IsValid() {
			invalid++
		}
		_, _ = fmt.Fprintf(output, "%s ok=%d missing=%d size_mismatch=%d hash_mismatch=%d\n",
			dependency.Title(), result.VerifiedOK, result.Missing, result.SizeMismatch, result.HashMismatch)
		for _, path := range result.FailedPaths {
			_, _ = fmt.Fprintf(output, "  %s\n", path)
		}
	}
	if invalid > 0 {
		return errReported
	}
	return nil
}

func (this *InstallApp) Uninstall() error {
	failed := 0
	for _, dependency := range this.dependencies() {
		report, err := this.uninstaller.UninstallContent(dependency.ContentID, dependency.LocalDirectory)
		if err != nil {
			failed++
			this.logger.Warn().Err(err).Str("dependency", dependency.Title()).Msg("uninstall failed")
			continue
		}
		this.logger.Info().
			Str("dependency", dependency.Title()).
			Int("deleted", report.DeletedFiles).
			Int("failed", report.FailedFiles).
			Bool("fallback", report.UsedFallback).
			Msg("uninstalled")
	}
	if failed > 0 {
		return errReported
	}
	return nil
}
