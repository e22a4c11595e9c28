package launcher

import (
	"errors"
	"net/http"
	"sort"
	"sync"

	"safeclient/internal/domain"
)

var errForbidden = errors.New("long name owned by another application")

type serviceRef struct {
	appID  string
	home   string
	shared bool
}

type longName struct {
	owner    string
	services map[string]serviceRef
}

// registry maps long names to services, each pointing at a directory in the
// owning application's drive.
type registry struct {
	mu    sync.RWMutex
	names map[string]*longName
}

func newRegistry() *registry { return &registry{names: make(map[string]*longName)} }

func (r *registry) create(appID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		return errBadPath
	}
	if _, ok := r.names[name]; ok {
		return errExists
	}
	r.names[name] = &longName{owner: appID, services: make(map[string]serviceRef)}
	return nil
}

func (r *registry) owned(appID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []string{}
	for n, ln := range r.names {
		if ln.owner == appID {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func (r *registry) services(appID, name string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ln, err := r.lookupOwned(appID, name)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ln.services))
	for s := range ln.services {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// addService attaches a service; when create is set a missing long name is
// created first.
func (r *registry) addService(appID string, req domain.ServiceRequest, create bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.LongName == "" || req.ServiceName == "" {
		return errBadPath
	}
	ln, ok := r.names[req.LongName]
	if !ok {
		if !create {
			return errNotFound
		}
		ln = &longName{owner: appID, services: make(map[string]serviceRef)}
		r.names[req.LongName] = ln
	}
	if ln.owner != appID {
		return errForbidden
	}
	if _, taken := ln.services[req.ServiceName]; taken {
		return errExists
	}
	ln.services[req.ServiceName] = serviceRef{appID: appID, home: req.ServiceHomeDirPath, shared: req.IsPathShared}
	return nil
}

func (r *registry) deleteName(appID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.lookupOwned(appID, name); err != nil {
		return err
	}
	delete(r.names, name)
	return nil
}

func (r *registry) deleteService(appID, name, service string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ln, err := r.lookupOwned(appID, name)
	if err != nil {
		return err
	}
	if _, ok := ln.services[service]; !ok {
		return errNotFound
	}
	delete(ln.services, service)
	return nil
}

func (r *registry) resolve(name, service string) (serviceRef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ln, ok := r.names[name]
	if !ok {
		return serviceRef{}, errNotFound
	}
	ref, ok := ln.services[service]
	if !ok {
		return serviceRef{}, errNotFound
	}
	return ref, nil
}

// lookupOwned must be called with mu held.
func (r *registry) lookupOwned(appID, name string) (*longName, error) {
	ln, ok := r.names[name]
	if !ok {
		return nil, errNotFound
	}
	if ln.owner != appID {
		return nil, errForbidden
	}
	return ln, nil
}

func (s *Server) dnsRoutes() {
	s.mux.HandleFunc("GET /dns", s.authed(s.handleLongNames))
	s.mux.HandleFunc("POST /dns", s.authed(s.handleRegister))
	s.mux.HandleFunc("PUT /dns", s.authed(s.handleAddService))
	s.mux.HandleFunc("GET /dns/{longName}", s.authed(s.handleServices))
	s.mux.HandleFunc("POST /dns/{longName}", s.authed(s.handleCreateLongName))
	s.mux.HandleFunc("DELETE /dns/{longName}", s.authed(s.handleDeleteLongName))
	s.mux.HandleFunc("DELETE /dns/{service}/{longName}", s.authed(s.handleDeleteService))

	// Public: no token, no encryption.
	s.mux.HandleFunc("GET /dns/{service}/{longName}", s.handleServiceDir)
	s.mux.HandleFunc("GET /dns/{service}/{longName}/{path}", s.handleServiceFile)
}

func (s *Server) handleLongNames(w http.ResponseWriter, _ *http.Request, g *grant, _ []byte) {
	replySealedJSON(w, g, s.names.owned(g.app.ID))
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request, g *grant, _ []byte) {
	list, err := s.names.services(g.app.ID, r.PathValue("longName"))
	if err != nil {
		writeDNSError(w, err)
		return
	}
	replySealedJSON(w, g, list)
}

func (s *Server) handleCreateLongName(w http.ResponseWriter, r *http.Request, g *grant, _ []byte) {
	if err := s.names.create(g.app.ID, r.PathValue("longName")); err != nil {
		writeDNSError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRegister(w http.ResponseWriter, _ *http.Request, g *grant, body []byte) {
	s.serviceChange(w, g, body, true)
}

func (s *Server) handleAddService(w http.ResponseWriter, _ *http.Request, g *grant, body []byte) {
	s.serviceChange(w, g, body, false)
}

func (s *Server) serviceChange(w http.ResponseWriter, g *grant, body []byte, create bool) {
	var req domain.ServiceRequest
	if !decodeBody(w, body, &req) {
		return
	}
	if _, err := s.drive.getDir(g.app.ID, req.ServiceHomeDirPath, req.IsPathShared); err != nil {
		writeDNSError(w, err)
		return
	}
	if err := s.names.addService(g.app.ID, req, create); err != nil {
		writeDNSError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeleteLongName(w http.ResponseWriter, r *http.Request, g *grant, _ []byte) {
	if err := s.names.deleteName(g.app.ID, r.PathValue("longName")); err != nil {
		writeDNSError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request, g *grant, _ []byte) {
	if err := s.names.deleteService(g.app.ID, r.PathValue("longName"), r.PathValue("service")); err != nil {
		writeDNSError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleServiceDir(w http.ResponseWriter, r *http.Request) {
	ref, err := s.names.resolve(r.PathValue("longName"), r.PathValue("service"))
	if err != nil {
		writeDNSError(w, err)
		return
	}
	listing, err := s.drive.getDir(ref.appID, ref.home, ref.shared)
	if err != nil {
		writeDNSError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleServiceFile(w http.ResponseWriter, r *http.Request) {
	ref, err := s.names.resolve(r.PathValue("longName"), r.PathValue("service"))
	if err != nil {
		writeDNSError(w, err)
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
	info, data, err := s.drive.readFile(ref.appID, ref.home+"/"+r.PathValue("path"), ref.shared, offset, length)
	if err != nil {
		writeDNSError(w, err)
		return
	}

	fileHeaders(w, info)
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeDNSError(w http.ResponseWriter, err error) {
	if errors.Is(err, errForbidden) {
		writeError(w, http.StatusForbidden, -1700, err.Error())
		return
	}
	writeDriveError(w, err)
}
