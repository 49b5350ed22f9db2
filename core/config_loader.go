package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/smarty/deliver/contracts"
)

const stdinPath = "_STDIN_"

var DefaultCacheDirectory = filepath.Join(".deliver", "manifests")

type ConfigLoader struct {
	parser  CredentialParser
	storage contracts.FileReader
	stdin   io.Reader
	stderr  io.Writer
}

func NewConfigLoader(storage contracts.FileReader, env contracts.Environment, stdin io.Reader, stderr io.Writer) *ConfigLoader {
	return &ConfigLoader{
		parser:  NewCredentialParser(storage, env),
		storage: storage,
		stdin:   stdin,
		stderr:  stderr,
	}
}

// LoadInstallConfig parses the install/verify/uninstall command line. Non-flag
// arguments filter the dependency listing by content id.
func (this *ConfigLoader) LoadInstallConfig(name string, args []string) (config contracts.InstallConfig, err error) {
	flags := pflag.NewFlagSet("deliver "+name, pflag.ContinueOnError)
	flags.SetOutput(this.stderr)
	flags.StringVar(&config.JSONPath, "json", stdinPath,
		"Path to file with dependency listing or, if equal to "+stdinPath+", read from stdin.")
	flags.IntVar(&config.MaxRetry, "max-retry", DefaultMaxRetry,
		"How many times to retry a failed file download.")
	flags.IntVar(&config.BatchSize, "batch-size", DefaultBatchSize,
		"How many files to download at once.")
	flags.StringVar(&config.CacheDirectory, "cache-dir", DefaultCacheDirectory,
		"Where downloaded manifests are kept.")
	flags.BoolVar(&config.StrictResume, "strict-resume", false,
		"Hash files already on disk before trusting them (default is to trust a matching size).")
	flags.BoolVar(&config.QuickVerification, "quick", false,
		"Verify installed files by size only.")
	flags.BoolVarP(&config.Verbose, "verbose", "v", false, "Log debug output.")
	flags.Usage = func() {
		_, _ = fmt.Fprintf(this.stderr, "Usage of deliver %s [content-id...]:\n", name)
		flags.PrintDefaults()
	}
	if err = flags.Parse(args); err != nil {
		return contracts.InstallConfig{}, err
	}
	if config.MaxRetry < 0 {
		return contracts.InstallConfig{}, errMaxRetry
	}
	if config.BatchSize < 1 {
		return contracts.InstallConfig{}, errBatchSize
	}
	if config.CacheDirectory == "" {
		return contracts.InstallConfig{}, errBlankCacheDirectory
	}
	config.Filter = flags.Args()

	if config.Dependencies, err = this.readDependencyListing(config.JSONPath); err != nil {
		return contracts.InstallConfig{}, err
	}
	if err = config.Dependencies.Validate(); err != nil {
		return contracts.InstallConfig{}, err
	}
	config.Dependencies.Dependencies = Filter(config.Dependencies.Dependencies, config.Filter)

	if config.BearerToken, err = this.parser.Parse(); err != nil {
		return contracts.InstallConfig{}, err
	}
	return config, nil
}

func (this *ConfigLoader) LoadPublishConfig(name string, args []string) (config contracts.PublishConfig, err error) {
	flags := pflag.NewFlagSet("deliver "+name, pflag.ContinueOnError)
	flags.SetOutput(this.stderr)
	flags.StringVar(&config.SourceDirectory, "source", "", "Directory whose contents are published.")
	flags.StringVar(&config.OutputDirectory, "output", "", "Directory receiving manifest.proto and files/.")
	flags.BoolVar(&config.Compress, "compress", true, "XZ-compress the manifest body.")
	flags.IntVar(&config.MaxRetry, "max-retry", DefaultMaxRetry, "How many times to retry a failed upload.")
	bucket := flags.String("bucket-url", "",
		"Optional S3 compatible address (bucket and key prefix) that also receives the published tree.")
	flags.BoolVarP(&config.Verbose, "verbose", "v", false, "Log debug output.")
	if err = flags.Parse(args); err != nil {
		return contracts.PublishConfig{}, err
	}
	if config.MaxRetry < 0 {
		return contracts.PublishConfig{}, errMaxRetry
	}
	if *bucket != "" {
		if config.BucketAddress, err = url.Parse(*bucket); err != nil {
			return contracts.PublishConfig{}, fmt.Errorf("bucket-url: %w", err)
		}
		if config.BucketAddress.Scheme != "http" && config.BucketAddress.Scheme != "https" {
			return contracts.PublishConfig{}, errBucketAddress
		}
	}
	if config.SourceDirectory == "" {
		return contracts.PublishConfig{}, errBlankSourceDirectory
	}
	if config.OutputDirectory == "" {
		return contracts.PublishConfig{}, errBlankOutputDirectory
	}
	return config, nil
}

func (this *ConfigLoader) readDependencyListing(path string) (listing contracts.DependencyListing, err error) {
	data, err := this.readRawJSON(path)
	if err != nil {
		return listing, err
	}
	if err = json.Unmarshal(data, &listing); err != nil {
		return listing, fmt.Errorf("dependency listing %q: %w", path, err)
	}
	return listing, nil
}

func (this *ConfigLoader) readRawJSON(path string) ([]byte, error) {
	if path == "" {
		return nil, errBlankJSONPath
	}
	if path == stdinPath {
		return io.ReadAll(this.stdin)
	}
	return this.storage.ReadFile(path)
}

// ExampleDependencyListing is shown to users who supply an empty listing.
func ExampleDependencyListing() string {
	listing := contracts.DependencyListing{Dependencies: []contracts.Dependency{{
		ContentID:      "example_content_id",
		Version:        "0.0.1",
		RemoteAddress:  contracts.URL{Scheme: "https", Host: "cdn.example.com", Path: "/path/prefix"},
		LocalDirectory: "local/path",
	}}}
	raw, _ := json.MarshalIndent(listing, "", "  ")
	return string(raw)
}

var (
	errMaxRetry             = errors.New("max-retry must not be negative")
	errBatchSize            = errors.New("batch-size must be positive")
	errBlankCacheDirectory  = errors.New("cache-dir must not be blank")
	errBlankJSONPath        = errors.New("json flag must be populated")
	errBlankSourceDirectory = errors.New("source directory should not be blank")
	errBlankOutputDirectory = errors.New("output directory should not be blank")
	errBucketAddress        = errors.New("bucket-url must be an http or https address")
)
