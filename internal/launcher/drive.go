package launcher

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"safeclient/internal/domain"
)

var (
	errNotFound = errors.New("not found")
	errExists   = errors.New("already exists")
	errBadPath  = errors.New("invalid path")
)

type fileNode struct {
	info domain.FileInfo
	data []byte
}

type dirNode struct {
	info  domain.DirInfo
	dirs  map[string]*dirNode
	files map[string]*fileNode
}

func newDirNode(name string) *dirNode {
	now := time.Now().UnixMilli()
	return &dirNode{
		info:  domain.DirInfo{Name: name, CreatedOn: now, ModifiedOn: now},
		dirs:  make(map[string]*dirNode),
		files: make(map[string]*fileNode),
	}
}

func (d *dirNode) listing() domain.DirResponse {
	out := domain.DirResponse{
		Info:           d.info,
		Files:          make([]domain.FileInfo, 0, len(d.files)),
		SubDirectories: make([]domain.DirInfo, 0, len(d.dirs)),
	}
	for _, f := range d.files {
		out.Files = append(out.Files, f.info)
	}
	for _, sub := range d.dirs {
		out.SubDirectories = append(out.SubDirectories, sub.info)
	}
	sort.Slice(out.Files, func(i, j int) bool { return out.Files[i].Name < out.Files[j].Name })
	sort.Slice(out.SubDirectories, func(i, j int) bool { return out.SubDirectories[i].Name < out.SubDirectories[j].Name })
	return out
}

func (d *dirNode) clone() *dirNode {
	c := &dirNode{info: d.info, dirs: make(map[string]*dirNode, len(d.dirs)), files: make(map[string]*fileNode, len(d.files))}
	for n, sub := range d.dirs {
		c.dirs[n] = sub.clone()
	}
	for n, f := range d.files {
		c.files[n] = &fileNode{info: f.info, data: append([]byte(nil), f.data...)}
	}
	return c
}

// drive is the launcher's storage: one private tree per application and one
// shared tree.
type drive struct {
	mu     sync.Mutex
	shared *dirNode
	apps   map[string]*dirNode
}

func newDrive() *drive {
	return &drive{shared: newDirNode(""), apps: make(map[string]*dirNode)}
}

// root must be called with mu held.
func (d *drive) root(appID string, shared bool) *dirNode {
	if shared {
		return d.shared
	}
	r, ok := d.apps[appID]
	if !ok {
		r = newDirNode("")
		d.apps[appID] = r
	}
	return r
}

func splitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// within reports whether p is dir or lies beneath it.
func within(p, dir string) bool {
	ps, ds := splitPath(p), splitPath(dir)
	if len(ps) < len(ds) {
		return false
	}
	for i := range ds {
		if ps[i] != ds[i] {
			return false
		}
	}
	return true
}

func lookupDir(root *dirNode, p string) (*dirNode, error) {
	cur := root
	for _, seg := range splitPath(p) {
		next, ok := cur.dirs[seg]
		if !ok {
			return nil, errNotFound
		}
		cur = next
	}
	return cur, nil
}

// parent returns the directory holding the last path element and its name.
func parent(root *dirNode, p string) (*dirNode, string, error) {
	segs := splitPath(p)
	if len(segs) == 0 {
		return nil, "", errBadPath
	}
	dir, err := lookupDir(root, strings.Join(segs[:len(segs)-1], "/"))
	if err != nil {
		return nil, "", err
	}
	return dir, segs[len(segs)-1], nil
}

func (d *drive) createDir(appID string, req domain.CreateDirRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	dir, name, err := parent(d.root(appID, req.IsPathShared), req.DirPath)
	if err != nil {
		return err
	}
	if _, ok := dir.dirs[name]; ok {
		return errExists
	}
	if _, ok := dir.files[name]; ok {
		return errExists
	}
	n := newDirNode(name)
	n.info.IsPrivate = req.IsPrivate
	n.info.IsVersioned = req.IsVersioned
	n.info.Metadata = req.Metadata
	dir.dirs[name] = n
	dir.info.ModifiedOn = n.info.CreatedOn
	return nil
}

func (d *drive) getDir(appID, p string, shared bool) (domain.DirResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dir, err := lookupDir(d.root(appID, shared), p)
	if err != nil {
		return domain.DirResponse{}, err
	}
	return dir.listing(), nil
}

func (d *drive) deleteDir(appID, p string, shared bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	dir, name, err := parent(d.root(appID, shared), p)
	if err != nil {
		return err
	}
	if _, ok := dir.dirs[name]; !ok {
		return errNotFound
	}
	delete(dir.dirs, name)
	dir.info.ModifiedOn = time.Now().UnixMilli()
	return nil
}

func (d *drive) changeDir(appID, p string, shared bool, ch domain.ChangeInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	dir, name, err := parent(d.root(appID, shared), p)
	if err != nil {
		return err
	}
	n, ok := dir.dirs[name]
	if !ok {
		return errNotFound
	}
	if ch.Name != nil && *ch.Name != name {
		if strings.Contains(*ch.Name, "/") || *ch.Name == "" {
			return errBadPath
		}
		if _, taken := dir.dirs[*ch.Name]; taken {
			return errExists
		}
		delete(dir.dirs, name)
		n.info.Name = *ch.Name
		dir.dirs[*ch.Name] = n
	}
	if ch.Metadata != nil {
		n.info.Metadata = *ch.Metadata
	}
	n.info.ModifiedOn = time.Now().UnixMilli()
	return nil
}

func (d *drive) moveDir(appID string, req domain.MoveRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	src, name, err := parent(d.root(appID, req.IsSrcPathShared), req.SrcPath)
	if err != nil {
		return err
	}
	n, ok := src.dirs[name]
	if !ok {
		return errNotFound
	}
	dst, err := lookupDir(d.root(appID, req.IsDestPathShared), req.DestPath)
	if err != nil {
		return err
	}
	if _, taken := dst.dirs[name]; taken {
		return errExists
	}
	if req.RetainSource {
		dst.dirs[name] = n.clone()
		return nil
	}
	if req.IsSrcPathShared == req.IsDestPathShared && within(req.DestPath, req.SrcPath) {
		return errBadPath
	}
	delete(src.dirs, name)
	dst.dirs[name] = n
	return nil
}

func (d *drive) createFile(appID string, req domain.CreateFileRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	dir, name, err := parent(d.root(appID, req.IsPathShared), req.FilePath)
	if err != nil {
		return err
	}
	if _, ok := dir.files[name]; ok {
		return errExists
	}
	if _, ok := dir.dirs[name]; ok {
		return errExists
	}
	now := time.Now().UnixMilli()
	dir.files[name] = &fileNode{info: domain.FileInfo{Name: name, CreatedOn: now, ModifiedOn: now, Metadata: req.Metadata}}
	return nil
}

func (d *drive) file(appID, p string, shared bool) (*dirNode, string, *fileNode, error) {
	dir, name, err := parent(d.root(appID, shared), p)
	if err != nil {
		return nil, "", nil, err
	}
	f, ok := dir.files[name]
	if !ok {
		return nil, "", nil, errNotFound
	}
	return dir, name, f, nil
}

func (d *drive) deleteFile(appID, p string, shared bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	dir, name, _, err := d.file(appID, p, shared)
	if err != nil {
		return err
	}
	delete(dir.files, name)
	return nil
}

func (d *drive) changeFile(appID, p string, shared bool, ch domain.ChangeInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	dir, name, f, err := d.file(appID, p, shared)
	if err != nil {
		return err
	}
	if ch.Name != nil && *ch.Name != name {
		if strings.Contains(*ch.Name, "/") || *ch.Name == "" {
			return errBadPath
		}
		if _, taken := dir.files[*ch.Name]; taken {
			return errExists
		}
		delete(dir.files, name)
		f.info.Name = *ch.Name
		dir.files[*ch.Name] = f
	}
	if ch.Metadata != nil {
		f.info.Metadata = *ch.Metadata
	}
	f.info.ModifiedOn = time.Now().UnixMilli()
	return nil
}

func (d *drive) moveFile(appID string, req domain.MoveRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	src, name, f, err := d.file(appID, req.SrcPath, req.IsSrcPathShared)
	if err != nil {
		return err
	}
	dst, err := lookupDir(d.root(appID, req.IsDestPathShared), req.DestPath)
	if err != nil {
		return err
	}
	if _, taken := dst.files[name]; taken {
		return errExists
	}
	if req.RetainSource {
		dst.files[name] = &fileNode{info: f.info, data: append([]byte(nil), f.data...)}
		return nil
	}
	delete(src.files, name)
	dst.files[name] = f
	return nil
}

// maxFileSize bounds how far a spliced write may extend a file.
const maxFileSize = 4 * maxRequestBody

// writeFile replaces the contents, or splices data in at offset when one is given.
func (d *drive) writeFile(appID, p string, shared bool, data []byte, offset int64, hasOffset bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, _, f, err := d.file(appID, p, shared)
	if err != nil {
		return err
	}
	if !hasOffset {
		f.data = append([]byte(nil), data...)
	} else {
		if offset < 0 || offset > maxFileSize-int64(len(data)) {
			return errBadPath
		}
		end := offset + int64(len(data))
		if end > int64(len(f.data)) {
			grown := make([]byte, end)
			copy(grown, f.data)
			f.data = grown
		}
		copy(f.data[offset:end], data)
	}
	f.info.Size = int64(len(f.data))
	f.info.ModifiedOn = time.Now().UnixMilli()
	return nil
}

func (d *drive) readFile(appID, p string, shared bool, offset, length int64) (domain.FileInfo, []byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, _, f, err := d.file(appID, p, shared)
	if err != nil {
		return domain.FileInfo{}, nil, err
	}
	return f.info, window(f.data, offset, length), nil
}

// window returns data[offset:offset+length] clamped to the slice; length <= 0
// means to the end.
func window(data []byte, offset, length int64) []byte {
	n := int64(len(data))
	if offset < 0 || offset > n {
		offset = n
	}
	end := n
	if length > 0 && length < n-offset {
		end = offset + length
	}
	return append([]byte(nil), data[offset:end]...)
}
