// Package launcher is an in-memory stand-in for the local launcher daemon,
// used by the development binary and by tests across the module.
//
// HTTP API
//
//	POST   /auth                               handshake (unencrypted)
//	GET    /auth                               token status: 200 or 401
//	DELETE /auth                               revoke the caller's token
//	POST   /nfs/directory                      create directory
//	GET    /nfs/directory/{path}/{shared}      list directory
//	PUT    /nfs/directory/{path}/{shared}      rename / set metadata
//	DELETE /nfs/directory/{path}/{shared}      delete directory
//	POST   /nfs/movedir, /nfs/movefile         move or copy
//	POST   /nfs/file                           create empty file
//	PUT    /nfs/file/{path}/{shared}?offset=   write contents
//	GET    /nfs/file/{path}/{shared}?offset=&length=
//	PUT    /nfs/file/metadata/{path}/{shared}  rename / set metadata
//	DELETE /nfs/file/{path}/{shared}
//	GET    /dns                                long names owned by the app
//	POST   /dns                                register long name + service
//	PUT    /dns                                add service to long name
//	GET|POST|DELETE /dns/{longName}
//	DELETE /dns/{service}/{longName}
//	GET    /dns/{service}/{longName}           public service directory
//	GET    /dns/{service}/{longName}/{path}    public file, metadata in File-* headers
//
// Behaviour
//
//   - Every endpoint except the handshake and the public DNS reads requires a
//     bearer token; unknown tokens get 401.
//   - Authorized request and response bodies are base64(nonce || secretbox)
//     under the shared key handed out by the handshake.
//   - Error responses are plain JSON {errorCode, description}.
//   - All state is held in memory and lost on process exit.
//   - An Approver hook stands in for the human approval prompt.
package launcher
