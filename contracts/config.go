package contracts

import "net/url"

type InstallConfig struct {
	MaxRetry          int
	BatchSize         int
	JSONPath          string
	CacheDirectory    string
	StrictResume      bool
	QuickVerification bool
	Verbose           bool
	BearerToken       string
	Filter            []string
	Dependencies      DependencyListing
}

type PublishConfig struct {
	SourceDirectory string
	OutputDirectory string
	Compress        bool
	Verbose         bool
	MaxRetry        int
	BucketAddress   *url.URL // nil publishes to OutputDirectory only
}
