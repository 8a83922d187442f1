package nfsmount

import (
	"bytes"
	"io"

	billy "github.com/go-git/go-billy/v5"

	"github.com/agentic-research/quickdir/internal/graph"
)

// roFile is a read-only billy.File over a fixed-size content source.
// Seeking is tracked locally; every read goes through readAt.
type roFile struct {
	name   string
	size   int64
	readAt func(p []byte, off int64) (int, error)
	pos    int64
}

func newGraphFile(g graph.Graph, id string, size int64) *roFile {
	return &roFile{
		name: id,
		size: size,
		readAt: func(p []byte, off int64) (int, error) {
			return g.ReadContent(id, p, off)
		},
	}
}

func newBytesFile(name string, data []byte) *roFile {
	r := bytes.NewReader(data)
	return &roFile{
		name: name,
		size: int64(len(data)),
		readAt: func(p []byte, off int64) (int, error) {
			n, err := r.ReadAt(p, off)
			if err == io.EOF {
				err = nil
			}
			return n, err
		},
	}
}

func (f *roFile) Name() string { return f.name }

func (f *roFile) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.pos)
	f.pos += int64(n)
	if err == nil && f.pos >= f.size {
		err = io.EOF
	}
	return n, err
}

func (f *roFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= f.size {
		return 0, io.EOF
	}
	n, err := f.readAt(p, off)
	if err != nil {
		return 0, err
	}
	if n == 0 || n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *roFile) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = f.pos + offset
	case io.SeekEnd:
		newPos = f.size + offset
	}
	if newPos < 0 {
		newPos = 0
	}
	f.pos = newPos
	return f.pos, nil
}

func (f *roFile) Write([]byte) (int, error) { return 0, errReadOnly }
func (f *roFile) Truncate(int64) error      { return errReadOnly }
func (f *roFile) Lock() error               { return nil }
func (f *roFile) Unlock() error             { return nil }
func (f *roFile) Close() error              { return nil }

var _ billy.File = (*roFile)(nil)
