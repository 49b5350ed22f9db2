package shell

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/assertions/should"
	"github.com/smartystreets/gunit"
)

func TestDiskFixture(t *testing.T) {
	gunit.Run(new(DiskFixture), t)
}

type DiskFixture struct {
	*gunit.Fixture
	root       string
	fileSystem *DiskFileSystem
}

func (this *DiskFixture) Setup() {
	this.root, _ = os.MkdirTemp("", "deliver-disk-")
	this.fileSystem = NewDiskFileSystem()
}

func (this *DiskFixture) Teardown() {
	_ = os.RemoveAll(this.root)
}

func (this *DiskFixture) path(parts ...string) string {
	return filepath.Join(append([]string{this.root}, parts...)...)
}

func (this *DiskFixture) TestCreateMakesParentDirectories() {
	writer, err := this.fileSystem.Create(this.path("a", "b", "c.txt"))
	this.So(err, should.BeNil)
	_, _ = io.WriteString(writer, "content")
	this.So(writer.Close(), should.BeNil)

	info, err := this.fileSystem.Stat(this.path("a", "b", "c.txt"))
	this.So(err, should.BeNil)
	this.So(info.Size(), should.Equal, 7)
	this.So(info.IsDir(), should.BeFalse)
}

func (this *DiskFixture) TestListingReturnsRegularFilesOnly() {
	_ = this.fileSystem.WriteFile(this.path("x.txt"), []byte("x"))
	_ = this.fileSystem.WriteFile(this.path("sub", "y.txt"), []byte("yy"))

	listing, err := this.fileSystem.Listing(this.root)

	this.So(err, should.BeNil)
	this.So(listing, should.HaveLength, 2)
	this.So(listing[0].Path(), should.Equal, this.path("sub", "y.txt"))
	this.So(listing[1].Path(), should.Equal, this.path("x.txt"))
}

func (this *DiskFixture) TestEmptyDirectoryDetection() {
	_ = this.fileSystem.WriteFile(this.path("sub", "y.txt"), []byte("yy"))

	empty, err := this.fileSystem.IsEmptyDirectory(this.path("sub"))
	this.So(err, should.BeNil)
	this.So(empty, should.BeFalse)

	this.So(this.fileSystem.Delete(this.path("sub", "y.txt")), should.BeNil)
	empty, err = this.fileSystem.IsEmptyDirectory(this.path("sub"))
	this.So(err, should.BeNil)
	this.So(empty, should.BeTrue)
}

func (this *DiskFixture) TestMissingPathsReportNotExist() {
	_, err := this.fileSystem.Stat(this.path("missing"))
	this.So(errors.Is(err, os.ErrNotExist), should.BeTrue)

	_, err = this.fileSystem.IsEmptyDirectory(this.path("missing"))
	this.So(errors.Is(err, os.ErrNotExist), should.BeTrue)
}

func (this *DiskFixture) TestRenameAndDeleteAll() {
	_ = this.fileSystem.WriteFile(this.path("d", "file.tmp"), []byte("new"))

	this.So(this.fileSystem.Rename(this.path("d", "file.tmp"), this.path("d", "file")), should.BeNil)
	raw, err := this.fileSystem.ReadFile(this.path("d", "file"))
	this.So(err, should.BeNil)
	this.So(string(raw), should.Equal, "new")

	this.So(this.fileSystem.DeleteAll(this.path("d")), should.BeNil)
	_, err = this.fileSystem.Stat(this.path("d"))
	this.So(errors.Is(err, os.ErrNotExist), should.BeTrue)
}
