// Package apitest runs an in-process fake of the cloud API for tests.
//
// The server issues HS256 tokens from /whoami, guards /v1 routes with bearer
// authentication, serves registered files for download and answers
// /status/:code with arbitrary error responses. Every request is recorded.
//
//	srv := apitest.New()
//	defer srv.Close()
//	srv.AddFile("image.zip", "application/zip", data)
package apitest
