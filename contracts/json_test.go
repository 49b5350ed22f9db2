package contracts

import (
	"net/url"
	"testing"

	"github.com/smartystreets/assertions/should"
	"github.com/smartystreets/gunit"
)

func TestURLFixture(t *testing.T) {
	gunit.Run(new(URLFixture), t)
}

type URLFixture struct {
	*gunit.Fixture
}

func (this *URLFixture) TestMarshal() {
	address, err := url.Parse("https://cdn.example.com")
	this.So(err, should.BeNil)
	value := URL(*address)
	raw, err := (&value).MarshalJSON()
	this.So(err, should.BeNil)
	this.So(string(raw), should.Equal, `"https://cdn.example.com"`)
}

func (this *URLFixture) TestUnmarshal() {
	address := new(URL)
	err := address.UnmarshalJSON([]byte(`"https://cdn.example.com"`))

	this.So(err, should.BeNil)
	this.So(address.Value().String(), should.Equal, "https://cdn.example.com")
}

func (this *URLFixture) TestUnmarshalNull() {
	address := new(URL)
	err := address.UnmarshalJSON([]byte(`"null"`))

	this.So(err, should.BeNil)
	this.So(address, should.Resemble, new(URL))
}

func (this *URLFixture) TestUnmarshalMalformedURL() {
	address := new(URL)
	err := address.UnmarshalJSON([]byte(`"%%%%%%"`))

	this.So(err, should.NotBeNil)
	this.So(address, should.Resemble, new(URL))
}

func (this *URLFixture) TestAppendRemotePath() {
	address, _ := url.Parse("https://cdn.example.com/content")

	actual := AppendRemotePath(*address, "v7", "files", "abcd")

	this.So(actual.String(), should.Equal, "https://cdn.example.com/content/v7/files/abcd")
}

func (this *URLFixture) TestAppendRemotePathToBareHost() {
	address, _ := url.Parse("https://cdn.example.com")

	actual := AppendRemotePath(*address, RemoteManifestFilename)

	this.So(actual.String(), should.Equal, "https://cdn.example.com/manifest.proto")
}
