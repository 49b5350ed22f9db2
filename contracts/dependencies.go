package contracts

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type DependencyListing struct {
	Dependencies []Dependency `json:"dependencies"`
}

func (this *DependencyListing) Validate() error {
	inventory := make(map[string]struct{}) // map[ContentID]struct

	for _, dependency := range this.Dependencies {
		if dependency.LocalDirectory == "" {
			return errors.New("local directory is required")
		}
		if dependency.ContentID == "" {
			return errors.New("content id is required")
		}
		if strings.Contains(dependency.ContentID, versionRecordSeparator) {
			return fmt.Errorf("content id %q may not contain %q", dependency.ContentID, versionRecordSeparator)
		}
		if dependency.Version == "" {
			return errors.New("version is required")
		}
		if dependency.RemoteAddress.Value().String() == "" {
			return errors.New("remote address is required")
		}

		if _, found := inventory[dependency.ContentID]; found {
			return fmt.Errorf("content id %q is listed more than once", dependency.ContentID)
		}
		inventory[dependency.ContentID] = struct{}{}
	}
	return nil
}

type Dependency struct {
	ContentID      string `json:"content_id"`
	Version        string `json:"version"`
	RemoteAddress  URL    `json:"remote_address"`
	LocalDirectory string `json:"local_directory"`
}

// ContentBase is the address that manifest and content object paths hang off of.
func (this Dependency) ContentBase() url.URL {
	return AppendRemotePath(url.URL(this.RemoteAddress), this.Version)
}

func (this Dependency) ComposeRemoteAddress(parts ...string) url.URL {
	return AppendRemotePath(this.ContentBase(), parts...)
}

// VersionRecordKey names the content store entry holding the installed version.
func (this Dependency) VersionRecordKey() string {
	return VersionRecordKey(this.ContentID)
}

// VersionRecordKey shares the manifest keyspace; listed content ids may not
// contain the separator, so the two never collide.
func VersionRecordKey(contentID string) string {
	return contentID + versionRecordSeparator + "version"
}

const versionRecordSeparator = "@"

func (this Dependency) Title() string {
	return fmt.Sprintf("[%s @ %s]", this.ContentID, this.Version)
}
