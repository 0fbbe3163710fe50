// Package client talks to the handover gRPC endpoint on behalf of the
// terminal client.
//
// GRPCClient keeps the user token returned by Login and attaches it to every
// call through a unary interceptor. When the server rejects an expired token
// the client logs in again with the remembered user name and retries once.
// gRPC status codes are mapped to ErrUnavailable, ErrUnauthorized or a
// *RejectedError carrying the server's reason.
package client
