package fetcher

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, b []byte) RawArchive {
	t.Helper()
	p := filepath.Join(t.TempDir(), "a.zip")
	require.NoError(t, os.WriteFile(p, b, 0o644))
	return RawArchive{Path: p, Hash: md5hex(b), Size: int64(len(b))}
}

func TestExtract_ListsXMLMembersInOrder(t *testing.T) {
	raw := writeArchive(t, zipBytes(t, map[string]string{
		"FULINS_D_02of02.xml": "<b/>",
		"FULINS_D_01of02.XML": "<a/>",
		"readme.txt":          "ignored",
	}))

	a, err := Extract(raw)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	require.Len(t, a.Members, 2)
	assert.Equal(t, "FULINS_D_01of02.XML", a.Members[0].Name)
	assert.Equal(t, "FULINS_D_02of02.xml", a.Members[1].Name)

	rc, err := a.Members[1].Open()
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "<b/>", string(b))
}

func TestExtract_TruncatedArchiveIsCorrupt(t *testing.T) {
	full := zipBytes(t, map[string]string{"a.xml": "<Document/>"})
	raw := writeArchive(t, full[:len(full)/2])

	_, err := Extract(raw)
	assert.ErrorIs(t, err, ErrCorruptArchive)
}

func TestExtract_NotAZip(t *testing.T) {
	_, err := Extract(writeArchive(t, []byte("<html>maintenance</html>")))
	assert.ErrorIs(t, err, ErrCorruptArchive)
}

func TestExtract_NoXMLMembers(t *testing.T) {
	_, err := Extract(writeArchive(t, zipBytes(t, map[string]string{"notes.txt": "x"})))
	assert.ErrorIs(t, err, ErrCorruptArchive)
}

func TestArchive_CloseNil(t *testing.T) {
	var a *Archive
	assert.NoError(t, a.Close())
}
