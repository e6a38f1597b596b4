// Package blgw serves the gateway's HTTP/JSON surface: the services
// document B&O apps discover the installation through, the secondary
// model documents, command execution, and camera snapshot/MJPEG
// streaming.
//
// Lifecycle follows the usual pattern:
//
//	server, err := blgw.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// All routes except a small allow-list require authentication: a
// session cookie, Basic credentials, or the equivalent custom header.
// Basic and header logins mint a session cookie so devices can switch
// to cookie auth on later requests.
package blgw
