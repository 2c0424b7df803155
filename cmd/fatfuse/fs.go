package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"golang.org/x/sync/errgroup"

	"github.com/retroglyph/fatarchive"
)

const rootInode fuseops.InodeID = 1

// never is used for FUSE expiration timestamps. The mounted archive is
// read-only and its inode table is built once at mount time, so the kernel
// can cache every lookup and attribute forever.
var never = time.Now().Add(365 * 24 * time.Hour)

// dirent is one name inside a dir: either a nested dir (isDir) or a leaf
// bound to an archive entry.
type dirent struct {
	name  string
	inode fuseops.InodeID
	isDir bool
}

func (d *dirent) typ() fuseutil.DirentType {
	if d.isDir {
		return fuseutil.DT_Directory
	}
	return fuseutil.DT_File
}

// dir is a directory's contents: entries in a stable order for ReadDir,
// plus a name index for LookUpInode.
type dir struct {
	entries []*dirent
	byName  map[string]*dirent
}

// fileNode is the archive-side identity behind a non-directory inode.
type fileNode struct {
	entryIndex int
	size       int64
	mtime      time.Time
}

// fuseFS presents one open archive as a read-only tree: entries whose
// names contain a path separator (POD's "cockpit/gauge.pcx") are split
// into real nested directories rather than exposed as the archive's own
// synthesized FOLDER entries, so the same tree-building logic works for
// every format regardless of whether it has a FolderOpener.
type fuseFS struct {
	fuseutil.NotImplementedFileSystem

	archive *fatarchive.Archive

	mu    sync.Mutex
	dirs  map[fuseops.InodeID]*dir
	files map[fuseops.InodeID]*fileNode

	fileReadersMu sync.Mutex
	fileReaders   map[fuseops.InodeID]*bytes.Reader
}

func newFuseFS(a *fatarchive.Archive) *fuseFS {
	fs := &fuseFS{
		archive:     a,
		dirs:        map[fuseops.InodeID]*dir{},
		files:       map[fuseops.InodeID]*fileNode{},
		fileReaders: map[fuseops.InodeID]*bytes.Reader{},
	}
	root := &dir{byName: map[string]*dirent{}}
	fs.dirs[rootInode] = root
	next := rootInode + 1

	for _, e := range a.List() {
		if e.Attrs&fatarchive.AttrFolder != 0 {
			continue // the split below recreates it from its children's paths
		}
		parts := strings.Split(strings.ReplaceAll(e.Name, "\\", "/"), "/")
		leaf := parts[len(parts)-1]

		cur := root
		for _, part := range parts[:len(parts)-1] {
			if part == "" {
				continue
			}
			child, ok := cur.byName[part]
			if !ok {
				inode := next
				next++
				child = &dirent{name: part, inode: inode, isDir: true}
				cur.entries = append(cur.entries, child)
				cur.byName[part] = child
				fs.dirs[inode] = &dir{byName: map[string]*dirent{}}
			}
			cur = fs.dirs[child.inode]
		}

		inode := next
		next++
		d := &dirent{name: leaf, inode: inode}
		cur.entries = append(cur.entries, d)
		cur.byName[leaf] = d
		fs.files[inode] = &fileNode{entryIndex: e.Index, size: e.RealSize, mtime: e.ModTime}
	}
	return fs
}

func (fs *fuseFS) attrsFor(inode fuseops.InodeID) (fuseops.InodeAttributes, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.dirs[inode]; ok {
		return fuseops.InodeAttributes{
			Nlink: 1,
			Mode:  os.ModeDir | 0555,
			Atime: never,
			Mtime: never,
			Ctime: never,
		}, true
	}
	if f, ok := fs.files[inode]; ok {
		return fuseops.InodeAttributes{
			Size:  uint64(f.size),
			Nlink: 1,
			Mode:  0444,
			Atime: f.mtime,
			Mtime: f.mtime,
			Ctime: f.mtime,
		}, true
	}
	return fuseops.InodeAttributes{}, false
}

func (fs *fuseFS) StatFS(ctx context.Context, op *fuseops.StatFSOp) error {
	op.BlockSize = 4096
	op.Blocks = 1
	op.IoSize = 65536
	return nil
}

func (fs *fuseFS) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	fs.mu.Lock()
	d, ok := fs.dirs[op.Parent]
	fs.mu.Unlock()
	if !ok {
		return fuse.EIO
	}
	fs.mu.Lock()
	child, ok := d.byName[op.Name]
	fs.mu.Unlock()
	if !ok {
		return fuse.ENOENT
	}
	attrs, ok := fs.attrsFor(child.inode)
	if !ok {
		return fuse.EIO
	}
	op.Entry.Child = child.inode
	op.Entry.Attributes = attrs
	op.Entry.AttributesExpiration = never
	op.Entry.EntryExpiration = never
	return nil
}

func (fs *fuseFS) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	attrs, ok := fs.attrsFor(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	op.Attributes = attrs
	op.AttributesExpiration = never
	return nil
}

func (fs *fuseFS) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	return fuse.ENOSYS
}

func (fs *fuseFS) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	fs.mu.Lock()
	d, ok := fs.dirs[op.Inode]
	fs.mu.Unlock()
	if !ok {
		return fuse.EIO
	}

	var entries []fuseutil.Dirent
	fs.mu.Lock()
	for _, de := range d.entries {
		entries = append(entries, fuseutil.Dirent{
			Offset: fuseops.DirOffset(len(entries) + 1),
			Inode:  de.inode,
			Name:   de.name,
			Type:   de.typ(),
		})
	}
	fs.mu.Unlock()

	if op.Offset > fuseops.DirOffset(len(entries)) {
		return fuse.EIO
	}
	for _, e := range entries[op.Offset:] {
		n := fuseutil.WriteDirent(op.Dst[op.BytesRead:], e)
		if n == 0 {
			break
		}
		op.BytesRead += n
	}
	return nil
}

func (fs *fuseFS) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	return fuse.ENOSYS
}

// decodeEntry returns inode's decoded content, reading and caching it on
// first access. Safe to call concurrently for distinct inodes (e.g. from
// prefetch) or racing with ReadFile; a redundant decode of the same inode
// is harmless, just wasted work.
func (fs *fuseFS) decodeEntry(inode fuseops.InodeID) (*bytes.Reader, error) {
	fs.fileReadersMu.Lock()
	r, ok := fs.fileReaders[inode]
	fs.fileReadersMu.Unlock()
	if ok {
		return r, nil
	}

	fs.mu.Lock()
	f, ok := fs.files[inode]
	if !ok {
		fs.mu.Unlock()
		return nil, fuse.ENOENT
	}
	// OpenEntry records the new view in the archive's open-view list, so
	// concurrent callers take turns here.
	rc, err := fs.archive.OpenEntry(f.entryIndex)
	fs.mu.Unlock()
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	r = bytes.NewReader(data)
	fs.fileReadersMu.Lock()
	fs.fileReaders[inode] = r
	fs.fileReadersMu.Unlock()
	return r, nil
}

// prefetch decodes every file entry concurrently (bounded by errgroup's
// default unlimited fan-out plus ctx cancellation), warming fileReaders
// before the mount starts serving so the first ReadFile per entry doesn't
// pay for filter decoding on the FUSE request path.
func (fs *fuseFS) prefetch(ctx context.Context) error {
	fs.mu.Lock()
	inodes := make([]fuseops.InodeID, 0, len(fs.files))
	for inode := range fs.files {
		inodes = append(inodes, inode)
	}
	fs.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, inode := range inodes {
		inode := inode
		g.Go(func() error {
			_, err := fs.decodeEntry(inode)
			return err
		})
	}
	return g.Wait()
}

func (fs *fuseFS) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	r, err := fs.decodeEntry(op.Inode)
	if err != nil {
		return err
	}
	op.BytesRead, err = r.ReadAt(op.Dst, op.Offset)
	if err == io.EOF {
		err = nil
	}
	return err
}
