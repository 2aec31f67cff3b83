package fetcher

import (
	"errors"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Member is one XML document inside an archive.
type Member struct {
	Name string
	Size uint64
	file *zip.File
}

// Open streams the member's decompressed content. Read failures, including
// checksum mismatches, match ErrCorruptArchive.
func (m Member) Open() (io.ReadCloser, error) {
	rc, err := m.file.Open()
	if err != nil {
		return nil, corrupt(err)
	}
	return &memberReader{rc: rc}, nil
}

// Archive is an opened archive. Close releases the underlying file.
type Archive struct {
	Members []Member
	rc      *zip.ReadCloser
}

func (a *Archive) Close() error {
	if a == nil || a.rc == nil {
		return nil
	}
	return a.rc.Close()
}

// Extract opens the cached archive and lists its XML members in name order.
// An archive without XML members is corrupt.
func Extract(raw RawArchive) (*Archive, error) {
	rc, err := zip.OpenReader(raw.Path)
	if err != nil {
		return nil, corrupt(err)
	}
	a := &Archive{rc: rc}
	for _, f := range rc.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(path.Ext(f.Name), ".xml") {
			continue
		}
		a.Members = append(a.Members, Member{Name: f.Name, Size: f.UncompressedSize64, file: f})
	}
	if len(a.Members) == 0 {
		_ = rc.Close()
		return nil, corrupt(errors.New("archive contains no xml members"))
	}
	sort.Slice(a.Members, func(i, j int) bool { return a.Members[i].Name < a.Members[j].Name })
	return a, nil
}

type memberReader struct {
	rc io.ReadCloser
}

func (r *memberReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	if err != nil && err != io.EOF {
		return n, corrupt(err)
	}
	return n, err
}

func (r *memberReader) Close() error { return r.rc.Close() }
