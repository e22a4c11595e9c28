package domain

import (
	"net/http"
	"strconv"
)

// Wire types for the launcher's NFS and DNS endpoints. Times are Unix
// milliseconds.

type DirInfo struct {
	Name        string `json:"name"`
	IsPrivate   bool   `json:"isPrivate"`
	IsVersioned bool   `json:"isVersioned"`
	CreatedOn   int64  `json:"createdOn"`
	ModifiedOn  int64  `json:"modifiedOn"`
	Metadata    string `json:"metadata"`
}

type FileInfo struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	CreatedOn  int64  `json:"createdOn"`
	ModifiedOn int64  `json:"modifiedOn"`
	Metadata   string `json:"metadata"`
}

// DirResponse is a directory listing.
type DirResponse struct {
	Info           DirInfo    `json:"info"`
	Files          []FileInfo `json:"files"`
	SubDirectories []DirInfo  `json:"subDirectories"`
}

type CreateDirRequest struct {
	DirPath      string `json:"dirPath"`
	IsPrivate    bool   `json:"isPrivate"`
	IsVersioned  bool   `json:"isVersioned"`
	Metadata     string `json:"metadata,omitempty"`
	IsPathShared bool   `json:"isPathShared"`
}

type CreateFileRequest struct {
	FilePath     string `json:"filePath"`
	IsPathShared bool   `json:"isPathShared"`
	Metadata     string `json:"metadata,omitempty"`
}

// ChangeInfo renames an entry and/or replaces its metadata. At least one is set.
type ChangeInfo struct {
	Name     *string `json:"name,omitempty"`
	Metadata *string `json:"metadata,omitempty"`
}

type MoveRequest struct {
	SrcPath          string `json:"srcPath"`
	IsSrcPathShared  bool   `json:"isSrcPathShared"`
	DestPath         string `json:"destPath"`
	IsDestPathShared bool   `json:"isDestPathShared"`
	RetainSource     bool   `json:"retainSource"`
}

// ServiceRequest registers a long name with a service (POST /dns) or adds a
// service to an existing long name (PUT /dns).
type ServiceRequest struct {
	LongName           string `json:"longName"`
	ServiceName        string `json:"serviceName"`
	ServiceHomeDirPath string `json:"serviceHomeDirPath"`
	IsPathShared       bool   `json:"isPathShared"`
}

// ErrorBody is the launcher's JSON error payload.
type ErrorBody struct {
	ErrorCode   int    `json:"errorCode"`
	Description string `json:"description"`
}

// Headers carrying public DNS file metadata.
const (
	HeaderFileName     = "File-Name"
	HeaderFileSize     = "File-Size"
	HeaderFileCreated  = "File-Created-Time"
	HeaderFileModified = "File-Modified-Time"
	HeaderFileMetadata = "File-Metadata"
)

// File is a file read with its metadata.
type File struct {
	Info        FileInfo
	ContentType string
	Body        []byte
}

// FileInfoFromHeader reads the File-* response headers. Missing or
// non-numeric values are left zero.
func FileInfoFromHeader(h http.Header) FileInfo {
	num := func(k string) int64 {
		v, _ := strconv.ParseInt(h.Get(k), 10, 64)
		return v
	}
	return FileInfo{
		Name:       h.Get(HeaderFileName),
		Size:       num(HeaderFileSize),
		CreatedOn:  num(HeaderFileCreated),
		ModifiedOn: num(HeaderFileModified),
		Metadata:   h.Get(HeaderFileMetadata),
	}
}
