package nfs

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"safeclient/internal/domain"
)

// Service performs file and directory operations on the launcher's drive.
// Every call is authorized and encrypted.
type Service struct {
	exec domain.Executor
}

func New(exec domain.Executor) *Service { return &Service{exec: exec} }

// Location names an entry in either the application's private tree or the
// shared tree.
type Location struct {
	Path   string
	Shared bool
}

func (l Location) segment(kind string) string {
	p := l.Path
	if p == "" {
		p = "/"
	}
	return "/nfs/" + kind + "/" + url.PathEscape(p) + "/" + strconv.FormatBool(l.Shared)
}

func secure(method, path string, body any) domain.Request {
	return domain.Request{
		Method:             method,
		Path:               path,
		JSONBody:           body,
		RequiresAuth:       true,
		RequiresEncryption: true,
	}
}

func (s *Service) CreateDir(ctx context.Context, req domain.CreateDirRequest) error {
	_, err := s.exec.Execute(ctx, secure(http.MethodPost, "/nfs/directory", req))
	return err
}

func (s *Service) GetDir(ctx context.Context, dir Location) (domain.DirResponse, error) {
	r := secure(http.MethodGet, dir.segment("directory"), nil)
	r.Response = domain.ResponseJSON
	res, err := s.exec.Execute(ctx, r)
	if err != nil {
		return domain.DirResponse{}, err
	}
	var out domain.DirResponse
	if err := res.Decode(&out); err != nil {
		return domain.DirResponse{}, err
	}
	return out, nil
}

func (s *Service) DeleteDir(ctx context.Context, dir Location) error {
	_, err := s.exec.Execute(ctx, secure(http.MethodDelete, dir.segment("directory"), nil))
	return err
}

// ChangeDir renames a directory and/or replaces its metadata. Nil fields are
// left as they are.
func (s *Service) ChangeDir(ctx context.Context, dir Location, ch domain.ChangeInfo) error {
	_, err := s.exec.Execute(ctx, secure(http.MethodPut, dir.segment("directory"), ch))
	return err
}

func (s *Service) MoveDir(ctx context.Context, req domain.MoveRequest) error {
	_, err := s.exec.Execute(ctx, secure(http.MethodPost, "/nfs/movedir", req))
	return err
}

func (s *Service) CreateFile(ctx context.Context, req domain.CreateFileRequest) error {
	_, err := s.exec.Execute(ctx, secure(http.MethodPost, "/nfs/file", req))
	return err
}

func (s *Service) MoveFile(ctx context.Context, req domain.MoveRequest) error {
	_, err := s.exec.Execute(ctx, secure(http.MethodPost, "/nfs/movefile", req))
	return err
}

func (s *Service) DeleteFile(ctx context.Context, file Location) error {
	_, err := s.exec.Execute(ctx, secure(http.MethodDelete, file.segment("file"), nil))
	return err
}

func (s *Service) ChangeFile(ctx context.Context, file Location, ch domain.ChangeInfo) error {
	_, err := s.exec.Execute(ctx, secure(http.MethodPut, file.segment("file/metadata"), ch))
	return err
}

// WriteFile replaces the file contents, or writes at offset when offset >= 0.
func (s *Service) WriteFile(ctx context.Context, file Location, contents []byte, offset int64) error {
	r := secure(http.MethodPut, file.segment("file"), nil)
	r.RawBody = contents
	if r.RawBody == nil {
		r.RawBody = []byte{}
	}
	if offset >= 0 {
		r.Query = url.Values{"offset": {strconv.FormatInt(offset, 10)}}
	}
	_, err := s.exec.Execute(ctx, r)
	return err
}

// GetFile reads length bytes from offset; a non-positive length reads to the
// end.
func (s *Service) GetFile(ctx context.Context, file Location, offset, length int64) (domain.File, error) {
	r := secure(http.MethodGet, file.segment("file"), nil)
	r.Response = domain.ResponseRaw
	q := url.Values{}
	if offset > 0 {
		q.Set("offset", strconv.FormatInt(offset, 10))
	}
	if length > 0 {
		q.Set("length", strconv.FormatInt(length, 10))
	}
	if len(q) > 0 {
		r.Query = q
	}
	res, err := s.exec.Execute(ctx, r)
	if err != nil {
		return domain.File{}, err
	}
	return domain.File{
		Info:        domain.FileInfoFromHeader(res.Header),
		ContentType: res.Header.Get("Content-Type"),
		Body:        res.Body,
	}, nil
}
