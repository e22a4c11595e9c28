package dns

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"safeclient/internal/domain"
)

// Service manages long names and their services. Reads of a published
// service directory or file are public: no token and no encryption.
type Service struct {
	exec domain.Executor
}

func New(exec domain.Executor) *Service { return &Service{exec: exec} }

func secure(method, path string, body any) domain.Request {
	return domain.Request{
		Method:             method,
		Path:               path,
		JSONBody:           body,
		RequiresAuth:       true,
		RequiresEncryption: true,
	}
}

func servicePath(service, longName string) string {
	return "/dns/" + url.PathEscape(service) + "/" + url.PathEscape(longName)
}

func (s *Service) list(ctx context.Context, path string) ([]string, error) {
	r := secure(http.MethodGet, path, nil)
	r.Response = domain.ResponseJSON
	res, err := s.exec.Execute(ctx, r)
	if err != nil {
		return nil, err
	}
	var out []string
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// LongNames lists the long names owned by this application.
func (s *Service) LongNames(ctx context.Context) ([]string, error) {
	return s.list(ctx, "/dns")
}

// Services lists the services under longName.
func (s *Service) Services(ctx context.Context, longName string) ([]string, error) {
	return s.list(ctx, "/dns/"+url.PathEscape(longName))
}

// ServiceDir lists the directory a service publishes.
func (s *Service) ServiceDir(ctx context.Context, longName, service string) (domain.DirResponse, error) {
	res, err := s.exec.Execute(ctx, domain.Request{
		Method:   http.MethodGet,
		Path:     servicePath(service, longName),
		Response: domain.ResponseJSON,
	})
	if err != nil {
		return domain.DirResponse{}, err
	}
	var out domain.DirResponse
	if err := res.Decode(&out); err != nil {
		return domain.DirResponse{}, err
	}
	return out, nil
}

// File reads a published file relative to the service directory.
func (s *Service) File(ctx context.Context, longName, service, path string, offset, length int64) (domain.File, error) {
	r := domain.Request{
		Method:   http.MethodGet,
		Path:     servicePath(service, longName) + "/" + url.PathEscape(path),
		Response: domain.ResponseRaw,
	}
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

// Register creates a long name, if needed, and attaches a service to it.
func (s *Service) Register(ctx context.Context, req domain.ServiceRequest) error {
	_, err := s.exec.Execute(ctx, secure(http.MethodPost, "/dns", req))
	return err
}

// AddService attaches a service to an existing long name.
func (s *Service) AddService(ctx context.Context, req domain.ServiceRequest) error {
	_, err := s.exec.Execute(ctx, secure(http.MethodPut, "/dns", req))
	return err
}

func (s *Service) CreateLongName(ctx context.Context, longName string) error {
	_, err := s.exec.Execute(ctx, secure(http.MethodPost, "/dns/"+url.PathEscape(longName), nil))
	return err
}

func (s *Service) DeleteLongName(ctx context.Context, longName string) error {
	_, err := s.exec.Execute(ctx, secure(http.MethodDelete, "/dns/"+url.PathEscape(longName), nil))
	return err
}

func (s *Service) DeleteService(ctx context.Context, longName, service string) error {
	_, err := s.exec.Execute(ctx, secure(http.MethodDelete, servicePath(service, longName), nil))
	return err
}
