package launcher

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"safeclient/internal/domain"
)

func (s *Server) nfsRoutes() {
	s.mux.HandleFunc("POST /nfs/directory", s.authed(s.handleCreateDir))
	s.mux.HandleFunc("GET /nfs/directory/{path}/{shared}", s.authed(s.handleGetDir))
	s.mux.HandleFunc("DELETE /nfs/directory/{path}/{shared}", s.authed(s.handleDeleteDir))
	s.mux.HandleFunc("PUT /nfs/directory/{path}/{shared}", s.authed(s.handleChangeDir))
	s.mux.HandleFunc("POST /nfs/movedir", s.authed(s.handleMoveDir))

	s.mux.HandleFunc("POST /nfs/file", s.authed(s.handleCreateFile))
	s.mux.HandleFunc("POST /nfs/movefile", s.authed(s.handleMoveFile))
	s.mux.HandleFunc("DELETE /nfs/file/{path}/{shared}", s.authed(s.handleDeleteFile))
	s.mux.HandleFunc("PUT /nfs/file/metadata/{path}/{shared}", s.authed(s.handleChangeFile))
	s.mux.HandleFunc("PUT /nfs/file/{path}/{shared}", s.authed(s.handleWriteFile))
	s.mux.HandleFunc("GET /nfs/file/{path}/{shared}", s.authed(s.handleReadFile))
}

func (s *Server) handleCreateDir(w http.ResponseWriter, _ *http.Request, g *grant, body []byte) {
	var req domain.CreateDirRequest
	if !decodeBody(w, body, &req) {
		return
	}
	done(w, s.drive.createDir(g.app.ID, req))
}

func (s *Server) handleGetDir(w http.ResponseWriter, r *http.Request, g *grant, _ []byte) {
	p, shared, ok := pathArgs(w, r)
	if !ok {
		return
	}
	listing, err := s.drive.getDir(g.app.ID, p, shared)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	replySealedJSON(w, g, listing)
}

func (s *Server) handleDeleteDir(w http.ResponseWriter, r *http.Request, g *grant, _ []byte) {
	p, shared, ok := pathArgs(w, r)
	if !ok {
		return
	}
	done(w, s.drive.deleteDir(g.app.ID, p, shared))
}

func (s *Server) handleChangeDir(w http.ResponseWriter, r *http.Request, g *grant, body []byte) {
	p, shared, ok := pathArgs(w, r)
	if !ok {
		return
	}
	var ch domain.ChangeInfo
	if !decodeBody(w, body, &ch) {
		return
	}
	done(w, s.drive.changeDir(g.app.ID, p, shared, ch))
}

func (s *Server) handleMoveDir(w http.ResponseWriter, _ *http.Request, g *grant, body []byte) {
	var req domain.MoveRequest
	if !decodeBody(w, body, &req) {
		return
	}
	done(w, s.drive.moveDir(g.app.ID, req))
}

func (s *Server) handleCreateFile(w http.ResponseWriter, _ *http.Request, g *grant, body []byte) {
	var req domain.CreateFileRequest
	if !decodeBody(w, body, &req) {
		return
	}
	done(w, s.drive.createFile(g.app.ID, req))
}

func (s *Server) handleMoveFile(w http.ResponseWriter, _ *http.Request, g *grant, body []byte) {
	var req domain.MoveRequest
	if !decodeBody(w, body, &req) {
		return
	}
	done(w, s.drive.moveFile(g.app.ID, req))
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request, g *grant, _ []byte) {
	p, shared, ok := pathArgs(w, r)
	if !ok {
		return
	}
	done(w, s.drive.deleteFile(g.app.ID, p, shared))
}

func (s *Server) handleChangeFile(w http.ResponseWriter, r *http.Request, g *grant, body []byte) {
	p, shared, ok := pathArgs(w, r)
	if !ok {
		return
	}
	var ch domain.ChangeInfo
	if !decodeBody(w, body, &ch) {
		return
	}
	done(w, s.drive.changeFile(g.app.ID, p, shared, ch))
}

func (s *Server) handleWriteFile(w http.ResponseWriter, r *http.Request, g *grant, body []byte) {
	p, shared, ok := pathArgs(w, r)
	if !ok {
		return
	}
	offset, hasOffset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, -200, err.Error())
		return
	}
	done(w, s.drive.writeFile(g.app.ID, p, shared, body, offset, hasOffset))
}

func (s *Server) handleReadFile(w http.ResponseWriter, r *http.Request, g *grant, _ []byte) {
	p, shared, ok := pathArgs(w, r)
	if !ok {
		return
	}
	offset, _, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, -200, err.Error())
		return
	}
	length, _, err := queryInt(r, "length")
	if err != nil {
		writeError(w, http.StatusBadRequest, -200, err.Error())
		return
	}
	info, data, err := s.drive.readFile(g.app.ID, p, shared, offset, length)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	fileHeaders(w, info)
	replySealed(w, g, data)
}

// done answers an encrypted call that returns no payload.
func done(w http.ResponseWriter, err error) {
	if err != nil {
		writeDriveError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func decodeBody(w http.ResponseWriter, body []byte, out any) bool {
	if err := json.Unmarshal(body, out); err != nil {
		writeError(w, http.StatusBadRequest, -201, "malformed body: "+err.Error())
		return false
	}
	return true
}

func pathArgs(w http.ResponseWriter, r *http.Request) (string, bool, bool) {
	shared, err := strconv.ParseBool(r.PathValue("shared"))
	if err != nil {
		writeError(w, http.StatusBadRequest, -202, "shared flag must be true or false")
		return "", false, false
	}
	return r.PathValue("path"), shared, true
}

func queryInt(r *http.Request, key string) (int64, bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, errors.New(key + " must be an integer")
	}
	return v, true, nil
}

func writeDriveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, -1502, err.Error())
	case errors.Is(err, errExists):
		writeError(w, http.StatusConflict, -1505, err.Error())
	default:
		writeError(w, http.StatusBadRequest, -1500, err.Error())
	}
}

func fileHeaders(w http.ResponseWriter, info domain.FileInfo) {
	h := w.Header()
	h.Set(domain.HeaderFileName, info.Name)
	h.Set(domain.HeaderFileSize, strconv.FormatInt(info.Size, 10))
	h.Set(domain.HeaderFileCreated, strconv.FormatInt(info.CreatedOn, 10))
	h.Set(domain.HeaderFileModified, strconv.FormatInt(info.ModifiedOn, 10))
	h.Set(domain.HeaderFileMetadata, info.Metadata)
}
