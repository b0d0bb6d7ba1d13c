// Package request is the authenticated facade in front of the cloud API.
//
// A Client resolves relative paths against the configured api_url, keeps the
// bearer token fresh and turns error statuses into *RequestError values.
// Buffered calls return the whole response:
//
//	resp, err := client.Send(ctx, request.Options{URL: "/devices"})
//
// Streaming calls return a relay.Relay that reports download progress:
//
//	stream, err := client.Stream(ctx, request.Options{
//	    URL:        "/images/abc/download",
//	    OnProgress: func(s progress.State) { fmt.Printf("%.0f%%\n", s.Percent) },
//	})
//	defer stream.Close()
//	_, err = io.Copy(dst, stream)
//
// Nothing in this package retries or imposes a timeout; cancel through ctx.
package request
