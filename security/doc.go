// Package security holds the TLS client settings used by the cloudreq
// transport when talking to the cloud API.
//
//	cfg := security.TLSConfig{
//	    CAFile:   "/etc/cloudreq/ca.pem",
//	    CertFile: "/etc/cloudreq/client.pem",
//	    KeyFile:  "/etc/cloudreq/client-key.pem",
//	}
//
//	tlsConfig, err := cfg.Build()
package security
