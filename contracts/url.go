package contracts

import (
	"net/url"
	"path"
	"strings"
)

type URL url.URL

func (this *URL) MarshalJSON() ([]byte, error) {
	return []byte(`"` + this.Value().String() + `"`), nil
}

func (this *URL) UnmarshalJSON(p []byte) error {
	raw := string(p)
	if raw == `"null"` || raw == "null" {
		return nil
	}
	raw = strings.Trim(raw, "\"")
	address, err := url.Parse(raw)
	if err == nil {
		*this = URL(*address)
	}
	return err
}

func (this URL) Value() *url.URL {
	standard := url.URL(this)
	return &standard
}

func AppendRemotePath(prefix url.URL, parts ...string) url.URL {
	prefix.Path = path.Join(append([]string{"/", prefix.Path}, parts...)...)
	return prefix
}
