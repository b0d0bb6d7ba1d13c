// Package httpclient is the transport underneath cloudreq's request facade.
//
// It sends fully resolved requests over net/http and hands back either a
// buffered Response or an unread StreamResponse. It does not interpret
// status codes: classifying a response as failed is the caller's job. The
// only errors it returns are transport-level ones (timeouts, connection
// failures, unencodable requests), typed as *Error.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{
//	    Timeout: 30 * time.Second,
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    URL:    "https://api.example.com/v1/devices",
//	    JSON:   true,
//	    Gzip:   true,
//	})
//
// # Streaming
//
//	stream, err := client.DoStream(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    URL:    "https://api.example.com/download/image.zip",
//	})
//	defer stream.Close()
package httpclient
