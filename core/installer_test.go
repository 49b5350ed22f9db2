package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/smartystreets/assertions/should"
	"github.com/smartystreets/gunit"

	"github.com/smarty/deliver/contracts"
	"github.com/smarty/deliver/manifest"
	"github.com/smarty/deliver/shell"
)

var _ contracts.PackageInstaller = new(PackageInstaller)

func TestPackageInstallerFixture(t *testing.T) {
	gunit.Run(new(PackageInstallerFixture), t)
}

type PackageInstallerFixture struct {
	*gunit.Fixture

	installer  *PackageInstaller
	downloader *FakeDownloader
	fileSystem *shell.InMemoryFileSystem
	store      *shell.InMemoryContentStore
	sink       *RecordingProgressSink
	naps       []time.Duration
	options    InstallerOptions
	catalog    contracts.Catalog
	contents   map[string]string
}

func (this *PackageInstallerFixture) Setup() {
	this.downloader = NewFakeDownloader()
	this.fileSystem = shell.NewInMemoryFileSystem()
	this.store = shell.NewInMemoryContentStore()
	this.sink = &RecordingProgressSink{}
	this.contents = make(map[string]string)
	this.options = InstallerOptions{}
	this.buildInstaller()
}

func (this *PackageInstallerFixture) buildInstaller() {
	retrier := NewRetrier(DefaultMaxRetry, func(duration time.Duration) { this.naps = append(this.naps, duration) }, zerolog.Nop())
	this.installer = NewPackageInstaller(this.downloader, this.fileSystem, this.store, retrier, zerolog.Nop(), this.options)
}

func (this *PackageInstallerFixture) remote() url.URL {
	return url.URL{Scheme: "https", Host: "cdn.example.com", Path: "/v1"}
}

func (this *PackageInstallerFixture) request() contracts.InstallationRequest {
	return contracts.InstallationRequest{RemoteAddress: this.remote(), LocalPath: "/games/title"}
}

func (this *PackageInstallerFixture) addFile(packageName, path, content string) contracts.File {
	file := sha256File(path, content)
	index := -1
	for i, item := range this.catalog.Packages {
		if item.Name == packageName {
			index = i
		}
	}
	if index < 0 {
		this.catalog.Packages = append(this.catalog.Packages, contracts.Package{Name: packageName})
		index = len(this.catalog.Packages) - 1
	}
	this.catalog.Packages[index].Files = append(this.catalog.Packages[index].Files, file)
	this.contents[path] = content
	this.downloader.Serve(this.objectPath(file), []byte(content))
	return file
}

func (this *PackageInstallerFixture) objectPath(file contracts.File) string {
	return "/v1/files/" + file.DigestHex()
}

func (this *PackageInstallerFixture) local(path string) string {
	return filepath.Join("/games/title", filepath.FromSlash(path))
}

func (this *PackageInstallerFixture) readLocal(path string) string {
	raw, err := this.fileSystem.ReadFile(this.local(path))
	this.So(err, should.BeNil)
	return string(raw)
}

func (this *PackageInstallerFixture) install() error {
	return this.installer.InstallPackage(context.Background(), this.catalog, this.request(), this.sink)
}

func (this *PackageInstallerFixture) assertNoTemporaryFiles() {
	listing, _ := this.fileSystem.Listing("/games/title")
	for _, item := range listing {
		this.So(item.Path(), should.NotEndWith, ".tmp")
	}
}

func (this *PackageInstallerFixture) addStandardCatalog() {
	this.addFile("base", "bin/game.exe", strings.Repeat("g", 500))
	this.addFile("base", "data/a.pak", strings.Repeat("a", 700))
	this.addFile("dlc", `dlc\b.pak`, strings.Repeat("b", 300))
}

//////////////////////////////////////////////////////////////////////

func (this *PackageInstallerFixture) TestInstallManifestParsesAndCaches() {
	this.addStandardCatalog()
	raw, _ := manifest.Encode(this.catalog, manifest.EncodeOptions{Compress: true})
	this.downloader.Serve("/v1/manifest.proto", raw)
	request := this.request()
	request.RemoteAddress = contracts.AppendRemotePath(this.remote(), contracts.RemoteManifestFilename)

	catalog, err := this.installer.InstallManifest(context.Background(), request, "content")

	this.So(err, should.BeNil)
	this.So(catalog, should.Resemble, this.catalog)
	cached, found, _ := this.store.Get("content")
	this.So(found, should.BeTrue)
	this.So(cached, should.Resemble, raw)
}

func (this *PackageInstallerFixture) TestInstallManifestDownloadError() {
	request := this.request()
	request.RemoteAddress = contracts.AppendRemotePath(this.remote(), contracts.RemoteManifestFilename)

	catalog, err := this.installer.InstallManifest(context.Background(), request, "content")

	var network *contracts.NetworkError
	this.So(errors.As(err, &network), should.BeTrue)
	this.So(catalog, should.BeZeroValue)
	_, found, _ := this.store.Get("content")
	this.So(found, should.BeFalse)
}

func (this *PackageInstallerFixture) TestMalformedManifestIsNotCached() {
	this.downloader.Serve("/v1/manifest.proto", []byte{0, 0, 0, 1})
	request := this.request()
	request.RemoteAddress = contracts.AppendRemotePath(this.remote(), contracts.RemoteManifestFilename)

	_, err := this.installer.InstallManifest(context.Background(), request, "content")

	var format *contracts.FormatError
	this.So(errors.As(err, &format), should.BeTrue)
	_, found, _ := this.store.Get("content")
	this.So(found, should.BeFalse)
}

func (this *PackageInstallerFixture) TestInstallPackageWritesEveryFile() {
	this.addStandardCatalog()

	err := this.install()

	this.So(err, should.BeNil)
	this.So(this.readLocal("bin/game.exe"), should.Equal, this.contents["bin/game.exe"])
	this.So(this.readLocal("data/a.pak"), should.Equal, this.contents["data/a.pak"])
	this.So(this.readLocal("dlc/b.pak"), should.Equal, this.contents[`dlc\b.pak`])
	this.So(this.downloader.Requests(), should.HaveLength, 3)
	this.So(this.sink.Last(), should.Resemble, contracts.ProgressUpdate{Completed: 1500, Total: 1500})
	this.So(this.sink.Last().Fraction(), should.Equal, 1.0)
	this.assertNoTemporaryFiles()
}

func (this *PackageInstallerFixture) TestSecondRunFetchesNothing() {
	this.addStandardCatalog()
	_ = this.install()
	this.sink = &RecordingProgressSink{}

	err := this.install()

	this.So(err, should.BeNil)
	this.So(this.downloader.Requests(), should.HaveLength, 3)
	this.So(this.sink.Last(), should.Resemble, contracts.ProgressUpdate{Completed: 1500, Total: 1500})
}

func (this *PackageInstallerFixture) TestFileOfWrongSizeIsReplaced() {
	file := this.addFile("base", "data/a.pak", "correct content")
	_ = this.fileSystem.WriteFile(this.local("data/a.pak"), []byte("stale"))

	err := this.install()

	this.So(err, should.BeNil)
	this.So(this.readLocal("data/a.pak"), should.Equal, "correct content")
	this.So(this.downloader.RequestCount(this.objectPath(file)), should.Equal, 1)
}

func (this *PackageInstallerFixture) TestResumeTrustsSizeByDefault() {
	file := this.addFile("base", "data/a.pak", "correct content")
	_ = this.fileSystem.WriteFile(this.local("data/a.pak"), []byte("corrupt content"))

	err := this.install()

	this.So(err, should.BeNil)
	this.So(this.readLocal("data/a.pak"), should.Equal, "corrupt content")
	this.So(this.downloader.RequestCount(this.objectPath(file)), should.Equal, 0)
}

func (this *PackageInstallerFixture) TestStrictResumeChecksDigest() {
	this.options.StrictResume = true
	this.buildInstaller()
	file := this.addFile("base", "data/a.pak", "correct content")
	_ = this.fileSystem.WriteFile(this.local("data/a.pak"), []byte("corrupt content"))

	err := this.install()

	this.So(err, should.BeNil)
	this.So(this.readLocal("data/a.pak"), should.Equal, "correct content")
	this.So(this.downloader.RequestCount(this.objectPath(file)), should.Equal, 1)
}

func (this *PackageInstallerFixture) TestTransientFailuresAreRetried() {
	file := this.addFile("base", "data/a.pak", "content")
	this.downloader.FailNext(this.objectPath(file),
		&contracts.NetworkError{Address: "a", StatusCode: 503},
		&contracts.NetworkError{Address: "a", StatusCode: 502},
	)

	err := this.install()

	this.So(err, should.BeNil)
	this.So(this.readLocal("data/a.pak"), should.Equal, "content")
	this.So(this.downloader.RequestCount(this.objectPath(file)), should.Equal, 3)
	this.So(this.naps, should.Resemble, []time.Duration{time.Second, 2 * time.Second})
	this.So(this.sink.Last().Completed, should.Equal, len("content"))
}

func (this *PackageInstallerFixture) TestPersistentDigestMismatchFailsAfterRetries() {
	file := this.addFile("base", "data/a.pak", "content")
	this.downloader.Serve(this.objectPath(file), []byte("CONTENT"))

	err := this.install()

	var integrity *contracts.IntegrityError
	this.So(errors.As(err, &integrity), should.BeTrue)
	this.So(integrity.Path, should.Equal, "data/a.pak")
	this.So(this.downloader.RequestCount(this.objectPath(file)), should.Equal, 4)
	this.So(this.naps, should.Resemble, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second})
	_, statErr := this.fileSystem.Stat(this.local("data/a.pak"))
	this.So(statErr, should.NotBeNil)
	this.assertNoTemporaryFiles()
}

func (this *PackageInstallerFixture) TestShortBodyIsRetried() {
	file := this.addFile("base", "data/a.pak", "content")
	this.downloader.Serve(this.objectPath(file), []byte("cont"))

	err := this.install()

	var integrity *contracts.IntegrityError
	this.So(errors.As(err, &integrity), should.BeTrue)
	this.So(integrity.Actual, should.Equal, "4 bytes")
	this.So(this.naps, should.HaveLength, 3)
}

func (this *PackageInstallerFixture) TestFilesystemFailuresAreNotRetried() {
	file := this.addFile("base", "data/a.pak", "content")
	this.fileSystem.Fail("rename", this.local("data/a.pak"), errors.New("disk full"))

	err := this.install()

	var filesystem *contracts.FilesystemError
	this.So(errors.As(err, &filesystem), should.BeTrue)
	this.So(filesystem.Op, should.Equal, "rename")
	this.So(this.downloader.RequestCount(this.objectPath(file)), should.Equal, 1)
	this.So(this.naps, should.BeEmpty)
	this.assertNoTemporaryFiles()
}

func (this *PackageInstallerFixture) TestPathsEscapingTheDestinationAreRefused() {
	this.addFile("base", "../../etc/passwd", "content")

	err := this.install()

	var filesystem *contracts.FilesystemError
	this.So(errors.As(err, &filesystem), should.BeTrue)
	this.So(errors.Is(err, contracts.ErrPathEscapesRoot), should.BeTrue)
	this.So(this.downloader.Requests(), should.BeEmpty)
}

func (this *PackageInstallerFixture) TestFailureStopsLaterBatches() {
	this.options.BatchSize = 2
	this.buildInstaller()
	for x := 0; x < 6; x++ {
		this.addFile("base", fmt.Sprintf("file-%d", x), fmt.Sprintf("content %d", x))
	}
	this.fileSystem.Fail("create", this.local("file-0")+".tmp", errors.New("read-only"))

	err := this.install()

	this.So(err, should.NotBeNil)
	for x := 2; x < 6; x++ {
		file := this.catalog.Packages[0].Files[x]
		this.So(this.downloader.RequestCount(this.objectPath(file)), should.Equal, 0)
	}
}

func (this *PackageInstallerFixture) TestCancellationBeforeStartFetchesNothing() {
	this.addStandardCatalog()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := this.installer.InstallPackage(ctx, this.catalog, this.request(), this.sink)

	this.So(errors.Is(err, context.Canceled), should.BeTrue)
	this.So(this.downloader.Requests(), should.BeEmpty)
}

func (this *PackageInstallerFixture) TestCancellationLetsTheCurrentBatchFinish() {
	this.options.BatchSize = 1
	this.buildInstaller()
	this.addStandardCatalog()
	ctx, cancel := context.WithCancel(context.Background())
	this.downloader.onRequest = func(string) { cancel() }

	err := this.installer.InstallPackage(ctx, this.catalog, this.request(), this.sink)

	this.So(errors.Is(err, context.Canceled), should.BeTrue)
	this.So(this.downloader.Requests(), should.HaveLength, 1)
	this.So(this.readLocal("bin/game.exe"), should.Equal, this.contents["bin/game.exe"])
}

func (this *PackageInstallerFixture) TestEmptyCatalogIsComplete() {
	err := this.install()

	this.So(err, should.BeNil)
	this.So(this.sink.Last(), should.Resemble, contracts.ProgressUpdate{})
	this.So(this.sink.Last().Fraction(), should.Equal, 1.0)
}
