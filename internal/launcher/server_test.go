package launcher_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"safeclient/internal/auth"
	"safeclient/internal/codec"
	"safeclient/internal/domain"
	"safeclient/internal/launcher"
	"safeclient/internal/transport"
)

var testApp = domain.AppIdentity{Name: "X", ID: "x.y", Version: "0.1", Vendor: "v"}

type harness struct {
	l  *launcher.Server
	tr domain.Transport
	m  domain.Material
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	l := launcher.New()
	srv := httptest.NewServer(l)
	t.Cleanup(srv.Close)
	tr := transport.NewHTTP(srv.URL, srv.Client())
	m, err := auth.New(tr, time.Minute, zerolog.Nop()).Perform(context.Background(), testApp, nil, nil)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	return &harness{l: l, tr: tr, m: m}
}

func (h *harness) call(t *testing.T, req domain.Request) (*domain.Result, error) {
	t.Helper()
	c := codec.New()
	wire, err := c.Wrap(req, &h.m)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	resp, err := h.tr.Do(context.Background(), wire)
	if err != nil {
		t.Fatalf("transport: %v", err)
	}
	return c.Unwrap(resp, req.RequiresEncryption, &h.m)
}

func secure(method, path string, body any) domain.Request {
	return domain.Request{Method: method, Path: path, JSONBody: body, RequiresAuth: true, RequiresEncryption: true}
}

func nfsPath(kind, p string, shared bool) string {
	s := "false"
	if shared {
		s = "true"
	}
	return "/nfs/" + kind + "/" + url.PathEscape(p) + "/" + s
}

func mustOK(t *testing.T) func(res *domain.Result, err error) *domain.Result {
	t.Helper()
	return func(res *domain.Result, err error) *domain.Result {
		t.Helper()
		if err != nil {
			t.Fatalf("call: %v", err)
		}
		return res
	}
}

func TestAuthStatus_And_Revoke(t *testing.T) {
	h := newHarness(t)

	mustOK(t)(h.call(t, domain.Request{Method: http.MethodGet, Path: "/auth", RequiresAuth: true}))

	h.l.Revoke(h.m.Token)
	_, err := h.call(t, domain.Request{Method: http.MethodGet, Path: "/auth", RequiresAuth: true})
	if !domain.IsUnauthorized(err) {
		t.Fatalf("err = %v, want 401", err)
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	h := newHarness(t)
	mustOK(t)(h.call(t, domain.Request{Method: http.MethodDelete, Path: "/auth", RequiresAuth: true}))
	_, err := h.call(t, domain.Request{Method: http.MethodGet, Path: "/auth", RequiresAuth: true})
	if !domain.IsUnauthorized(err) {
		t.Fatalf("err = %v, want 401 after logout", err)
	}
}

func TestEncryptedEndpoint_WrongKey_Rejected(t *testing.T) {
	h := newHarness(t)
	h.m.SharedKey[0] ^= 0xff

	_, err := h.call(t, secure(http.MethodPost, "/nfs/directory", domain.CreateDirRequest{DirPath: "a"}))
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestNFS_DirectoryAndFile(t *testing.T) {
	h := newHarness(t)

	mustOK(t)(h.call(t, secure(http.MethodPost, "/nfs/directory", domain.CreateDirRequest{DirPath: "docs", Metadata: "m"})))
	mustOK(t)(h.call(t, secure(http.MethodPost, "/nfs/file", domain.CreateFileRequest{FilePath: "docs/a.txt"})))

	write := secure(http.MethodPut, nfsPath("file", "docs/a.txt", false), nil)
	write.RawBody = []byte("hello world")
	mustOK(t)(h.call(t, write))

	read := secure(http.MethodGet, nfsPath("file", "docs/a.txt", false), nil)
	read.Query = url.Values{"offset": {"6"}}
	res := mustOK(t)(h.call(t, read))
	if string(res.Body) != "world" {
		t.Fatalf("read = %q", res.Body)
	}
	if res.Header.Get(domain.HeaderFileSize) != "11" {
		t.Fatalf("size header = %q", res.Header.Get(domain.HeaderFileSize))
	}

	res = mustOK(t)(h.call(t, secure(http.MethodGet, nfsPath("directory", "docs", false), nil)))
	var dir domain.DirResponse
	if err := res.Decode(&dir); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dir.Info.Metadata != "m" || len(dir.Files) != 1 || dir.Files[0].Name != "a.txt" {
		t.Fatalf("listing = %+v", dir)
	}

	_, err := h.call(t, secure(http.MethodPost, "/nfs/directory", domain.CreateDirRequest{DirPath: "docs"}))
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		t.Fatalf("duplicate dir err = %v, want 409", err)
	}

	_, err = h.call(t, secure(http.MethodGet, nfsPath("directory", "missing", false), nil))
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("missing dir err = %v, want 404", err)
	}
}

func TestNFS_MoveAndRename(t *testing.T) {
	h := newHarness(t)
	for _, d := range []string{"a", "b"} {
		mustOK(t)(h.call(t, secure(http.MethodPost, "/nfs/directory", domain.CreateDirRequest{DirPath: d})))
	}
	mustOK(t)(h.call(t, secure(http.MethodPost, "/nfs/file", domain.CreateFileRequest{FilePath: "a/f"})))

	mustOK(t)(h.call(t, secure(http.MethodPost, "/nfs/movefile", domain.MoveRequest{SrcPath: "a/f", DestPath: "b"})))
	name := "g"
	mustOK(t)(h.call(t, secure(http.MethodPut, nfsPath("file/metadata", "b/f", false), domain.ChangeInfo{Name: &name})))

	res := mustOK(t)(h.call(t, secure(http.MethodGet, nfsPath("directory", "b", false), nil)))
	var dir domain.DirResponse
	if err := res.Decode(&dir); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(dir.Files) != 1 || dir.Files[0].Name != "g" {
		t.Fatalf("b = %+v", dir.Files)
	}

	// A directory cannot move into itself.
	_, err := h.call(t, secure(http.MethodPost, "/nfs/movedir", domain.MoveRequest{SrcPath: "a", DestPath: "a"}))
	if err == nil {
		t.Fatal("moving a directory into itself succeeded")
	}
}

func TestDNS_PublicRead(t *testing.T) {
	h := newHarness(t)
	mustOK(t)(h.call(t, secure(http.MethodPost, "/nfs/directory", domain.CreateDirRequest{DirPath: "site"})))
	mustOK(t)(h.call(t, secure(http.MethodPost, "/nfs/file", domain.CreateFileRequest{FilePath: "site/index.html"})))
	write := secure(http.MethodPut, nfsPath("file", "site/index.html", false), nil)
	write.RawBody = []byte("<html>hi</html>")
	mustOK(t)(h.call(t, write))

	mustOK(t)(h.call(t, secure(http.MethodPost, "/dns", domain.ServiceRequest{
		LongName: "example", ServiceName: "www", ServiceHomeDirPath: "site",
	})))

	res := mustOK(t)(h.call(t, secure(http.MethodGet, "/dns", nil)))
	var names []string
	if err := res.Decode(&names); err != nil || len(names) != 1 || names[0] != "example" {
		t.Fatalf("long names = %v, %v", names, err)
	}

	res = mustOK(t)(h.call(t, domain.Request{Method: http.MethodGet, Path: "/dns/www/example/index.html"}))
	if string(res.Body) != "<html>hi</html>" {
		t.Fatalf("public body = %q", res.Body)
	}
	if res.Header.Get(domain.HeaderFileName) != "index.html" {
		t.Fatalf("file name header = %q", res.Header.Get(domain.HeaderFileName))
	}

	mustOK(t)(h.call(t, secure(http.MethodDelete, "/dns/www/example", nil)))
	_, err := h.call(t, domain.Request{Method: http.MethodGet, Path: "/dns/www/example"})
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 after service removal", err)
	}
}

func TestDNS_OtherAppsLongName_Forbidden(t *testing.T) {
	h := newHarness(t)
	mustOK(t)(h.call(t, secure(http.MethodPost, "/dns/mine", nil)))

	other, err := auth.New(h.tr, time.Minute, zerolog.Nop()).Perform(context.Background(),
		domain.AppIdentity{Name: "Other", ID: "o.z", Version: "1", Vendor: "v"}, nil, nil)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	h.m = other
	_, err = h.call(t, secure(http.MethodDelete, "/dns/mine", nil))
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		t.Fatalf("err = %v, want 403", err)
	}
}

func TestNFS_WriteFile_OffsetOutOfRange_Rejected(t *testing.T) {
	h := newHarness(t)
	mustOK(t)(h.call(t, secure(http.MethodPost, "/nfs/file", domain.CreateFileRequest{FilePath: "big.bin"})))

	for _, off := range []int64{8_000_000_000, math.MaxInt64 - 1, math.MaxInt64} {
		write := secure(http.MethodPut, nfsPath("file", "big.bin", false), nil)
		write.RawBody = []byte("xy")
		write.Query = url.Values{"offset": {strconv.FormatInt(off, 10)}}
		_, err := h.call(t, write)
		var apiErr *domain.APIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
			t.Fatalf("offset %d: err = %v, want 400", off, err)
		}
	}

	read := secure(http.MethodGet, nfsPath("file", "big.bin", false), nil)
	read.Query = url.Values{"length": {strconv.FormatInt(math.MaxInt64, 10)}}
	res := mustOK(t)(h.call(t, read))
	if len(res.Body) != 0 || res.Header.Get(domain.HeaderFileSize) != "0" {
		t.Fatalf("file changed: %q size=%q", res.Body, res.Header.Get(domain.HeaderFileSize))
	}
}

func TestEncryptedEndpoint_OversizedBody_Is413(t *testing.T) {
	h := newHarness(t)
	c := codec.New()
	req := secure(http.MethodPut, nfsPath("file", "a.txt", false), nil)
	wire, err := c.Wrap(req, &h.m)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	wire.Body = bytes.Repeat([]byte("A"), launcher.MaxRequestBody+1)

	resp, err := h.tr.Do(context.Background(), wire)
	if err != nil {
		t.Fatalf("transport: %v", err)
	}
	_, err = c.Unwrap(resp, true, &h.m)
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusRequestEntityTooLarge {
		t.Fatalf("err = %v, want 413", err)
	}
}
