package httpclient

import "github.com/kbukum/cloudreq/security"

// TLSConfig is the transport's TLS configuration.
// See security.TLSConfig for full documentation.
type TLSConfig = security.TLSConfig
