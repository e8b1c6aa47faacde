// Package fetch provides an HTTP request/response façade: it turns a
// high-level call description into a transport-ready request and turns the
// raw transport response into the representation the caller asked for
// (buffered bytes, text, decoded JSON, a live stream, or a direct copy into
// a writer), with transparent gzip/deflate decompression.
//
// The wire exchange itself is delegated to an Engine; the default engine is
// built on net/http with a shared transport.
//
// # Basic Usage
//
//	client, err := fetch.New(fetch.Config{
//	    BaseURL: "https://api.example.com",
//	})
//
//	resp, err := client.Do(ctx, fetch.Request{
//	    Method: http.MethodGet,
//	    URL:    "/users/123",
//	    Mode:   fetch.ModeJSON,
//	})
//
// # Structured Bodies
//
//	// application/x-www-form-urlencoded
//	resp, err := client.Do(ctx, fetch.Request{
//	    Method: http.MethodPost,
//	    URL:    "/login",
//	    Data:   fetch.Fields{{"user", "alice"}, {"pass", "s3cret"}},
//	})
//
//	// multipart/form-data with a file attachment
//	resp, err := client.Do(ctx, fetch.Request{
//	    Method: http.MethodPost,
//	    URL:    "/upload",
//	    Files:  []fetch.Attachment{{Path: "/tmp/report.pdf"}},
//	})
package fetch
