// Package token keeps the API session token and answers the three questions
// the request facade asks before every authenticated call: is the token due
// for a refresh, store this fresh one, and what Authorization header to send.
//
// Tokens are JWTs issued by the API. Their claims are read without signature
// verification; the API is the party that verifies them. A token is due for
// refresh once its "iat" claim is older than the refresh interval.
//
//	store := token.NewManager(token.NewFileBackend(path, token.WithEncryptionKey(key)))
//	header, ok, err := store.AuthorizationHeader(ctx)
package token
