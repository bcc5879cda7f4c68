package shell

import (
	stdzip "archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smarty/webapk/contracts"
	"github.com/smartystreets/assertions/should"
	"github.com/smartystreets/gunit"
)

func TestZipEditorFixture(t *testing.T) {
	gunit.Run(new(ZipEditorFixture), t)
}

type ZipEditorFixture struct {
	*gunit.Fixture
	directory string
	path      string
	editor    *ZipEditor
}

func (this *ZipEditorFixture) Setup() {
	var err error
	this.directory, err = os.MkdirTemp("", "zip-editor-")
	this.So(err, should.BeNil)
	this.path = filepath.Join(this.directory, "archive.zip")
	this.createSeedArchive()

	this.editor, err = OpenZipEditor(this.path)
	this.So(err, should.BeNil)
}

func (this *ZipEditorFixture) Teardown() {
	_ = os.RemoveAll(this.directory)
}

func (this *ZipEditorFixture) createSeedArchive() {
	file, err := os.Create(this.path)
	this.So(err, should.BeNil)
	writer := stdzip.NewWriter(file)

	deflated, _ := writer.CreateHeader(&stdzip.FileHeader{Name: "a.txt", Method: stdzip.Deflate})
	_, _ = deflated.Write([]byte("alpha"))
	stored, _ := writer.CreateHeader(&stdzip.FileHeader{Name: "raw.bin", Method: stdzip.Store})
	_, _ = stored.Write([]byte{0x00, 0x01, 0x02})
	directory, _ := writer.CreateHeader(&stdzip.FileHeader{Name: "sub/", Method: stdzip.Store})
	_ = directory

	this.So(writer.Close(), should.BeNil)
	this.So(file.Close(), should.BeNil)
}

func (this *ZipEditorFixture) TestEntryReturnsContent() {
	content, err := this.editor.Entry("a.txt")

	this.So(err, should.BeNil)
	this.So(content, should.Resemble, []byte("alpha"))
}

func (this *ZipEditorFixture) TestMissingEntryReported() {
	_, err := this.editor.Entry("nope.txt")

	this.So(errors.Is(err, contracts.ErrEntryNotFound), should.BeTrue)
}

func (this *ZipEditorFixture) TestDirectoryEntriesInvisible() {
	this.So(this.editor.Listing(), should.Resemble, []string{"a.txt", "raw.bin"})
}

func (this *ZipEditorFixture) TestReplaceThenEntryRoundTrips() {
	err := this.editor.ReplaceEntry("a.txt", []byte("beta"), contracts.Deflated)

	this.So(err, should.BeNil)
	content, err := this.editor.Entry("a.txt")
	this.So(err, should.BeNil)
	this.So(content, should.Resemble, []byte("beta"))
}

func (this *ZipEditorFixture) TestEachMutationRewritesTheFile() {
	err := this.editor.ReplaceEntry("a.txt", []byte("beta"), contracts.Deflated)
	this.So(err, should.BeNil)

	reopened, err := OpenZipEditor(this.path)
	this.So(err, should.BeNil)
	content, err := reopened.Entry("a.txt")
	this.So(err, should.BeNil)
	this.So(content, should.Resemble, []byte("beta"))
}

func (this *ZipEditorFixture) TestStorageMethodsApplied() {
	err := this.editor.ReplaceEntry("icon.png", []byte("png-bytes"), contracts.Stored)
	this.So(err, should.BeNil)

	reader, err := stdzip.OpenReader(this.path)
	this.So(err, should.BeNil)
	defer func() { _ = reader.Close() }()
	methods := make(map[string]uint16)
	for _, file := range reader.File {
		methods[file.Name] = file.Method
	}
	this.So(methods["icon.png"], should.Equal, uint16(stdzip.Store))
	this.So(methods["raw.bin"], should.Equal, uint16(stdzip.Store))
	this.So(methods["a.txt"], should.Equal, uint16(stdzip.Deflate))
}

func (this *ZipEditorFixture) TestAddRefusesToOverwrite() {
	err := this.editor.AddEntry("a.txt", []byte("other"), contracts.Deflated)

	this.So(err, should.NotBeNil)
	content, _ := this.editor.Entry("a.txt")
	this.So(content, should.Resemble, []byte("alpha"))
}

func (this *ZipEditorFixture) TestAddNewEntry() {
	err := this.editor.AddEntry("assets/config.json", []byte("{}"), contracts.Deflated)

	this.So(err, should.BeNil)
	content, err := this.editor.Entry("assets/config.json")
	this.So(err, should.BeNil)
	this.So(content, should.Resemble, []byte("{}"))
}

func (this *ZipEditorFixture) TestRemoveEntry() {
	err := this.editor.RemoveEntry("a.txt")

	this.So(err, should.BeNil)
	_, err = this.editor.Entry("a.txt")
	this.So(errors.Is(err, contracts.ErrEntryNotFound), should.BeTrue)

	err = this.editor.RemoveEntry("a.txt")
	this.So(errors.Is(err, contracts.ErrEntryNotFound), should.BeTrue)
}

func (this *ZipEditorFixture) TestMissingArchiveReported() {
	_, err := OpenZipEditor(filepath.Join(this.directory, "absent.zip"))

	this.So(err, should.NotBeNil)
}
