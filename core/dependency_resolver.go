package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/smarty/deliver/contracts"
	"github.com/smarty/deliver/manifest"
)

type installationVerifier interface {
	VerifyContent(contentID, installDir string) (contracts.VerificationResult, error)
}

type catalogUninstaller interface {
	Uninstall(catalog *contracts.Catalog, installRoot string) (contracts.UninstallReport, error)
}

// DependencyResolver brings one listed dependency up to date: nothing happens
// when the cached manifest matches the listed version and the installation
// verifies. A different cached version is uninstalled before the listed one
// is installed.
type DependencyResolver struct {
	store            contracts.ContentStore
	versions         *VersionIntegrityCheck
	verifier         installationVerifier
	packageInstaller contracts.PackageInstaller
	uninstaller      catalogUninstaller
	sink             contracts.ProgressSink
	logger           zerolog.Logger
	dependency       contracts.Dependency
}

func NewDependencyResolver(
	store contracts.ContentStore,
	verifier installationVerifier,
	packageInstaller contracts.PackageInstaller,
	uninstaller catalogUninstaller,
	sink contracts.ProgressSink,
	logger zerolog.Logger,
	dependency contracts.Dependency,
) *DependencyResolver {
	return &DependencyResolver{
		store:            store,
		versions:         NewVersionIntegrityCheck(store),
		verifier:         verifier,
		packageInstaller: packageInstaller,
		uninstaller:      uninstaller,
		sink:             sink,
		logger:           logger.With().Str("dependency", dependency.Title()).Logger(),
		dependency:       dependency,
	}
}

func (this *DependencyResolver) Resolve(ctx context.Context) error {
	raw, found, err := this.store.Get(this.dependency.ContentID)
	if err != nil {
		this.logger.Warn().Err(err).Msg("cached manifest unreadable, reinstalling")
	}
	if found && err == nil {
		if this.isInstalledCorrectly() {
			this.logger.Info().Msg("already installed")
			return nil
		}
		this.uninstallOtherVersion(raw)
	}
	return this.installPackage(ctx)
}

func (this *DependencyResolver) isInstalledCorrectly() bool {
	if err := this.versions.Verify(this.dependency); err != nil {
		this.logger.Info().Err(err).Msg("version differs")
		return false
	}
	result, err := this.verifier.VerifyContent(this.dependency.ContentID, this.dependency.LocalDirectory)
	if err != nil {
		this.logger.Warn().Err(err).Msg("verification failed")
		return false
	}
	if !result.IsValid() {
		this.logger.Info().Int("damaged", len(result.FailedPaths)).Msg("installation incomplete, resuming")
	}
	return result.IsValid()
}

// uninstallOtherVersion removes the files of a previously installed version.
// An incomplete installation of the listed version is left for the
// installer to resume.
func (this *DependencyResolver) uninstallOtherVersion(raw []byte) {
	if this.versions.Verify(this.dependency) == nil {
		return
	}
	catalog, err := manifest.Parse(raw)
	if err != nil {
		this.logger.Warn().Err(err).Msg("previous manifest undecodable, leaving its files in place")
		return
	}
	report, err := this.uninstaller.Uninstall(&catalog, this.dependency.LocalDirectory)
	if err != nil {
		this.logger.Warn().Err(err).Msg("could not uninstall previous version")
		return
	}
	this.logger.Info().Int("deleted", report.DeletedFiles).Msg("previous version uninstalled")
}

func (this *DependencyResolver) installPackage(ctx context.Context) error {
	catalog, err := this.packageInstaller.InstallManifest(ctx, contracts.InstallationRequest{
		RemoteAddress: this.dependency.ComposeRemoteAddress(contracts.RemoteManifestFilename),
		LocalPath:     this.dependency.LocalDirectory,
	}, this.dependency.ContentID)
	if err != nil {
		return fmt.Errorf("installing manifest of %s: %w", this.dependency.Title(), err)
	}
	if err = this.versions.Record(this.dependency); err != nil {
		return err
	}
	err = this.packageInstaller.InstallPackage(ctx, catalog, contracts.InstallationRequest{
		RemoteAddress: this.dependency.ContentBase(),
		LocalPath:     this.dependency.LocalDirectory,
	}, this.sink)
	if err != nil {
		return fmt.Errorf("installing %s: %w", this.dependency.Title(), err)
	}
	this.logger.Info().Msg("installed")
	return nil
}
