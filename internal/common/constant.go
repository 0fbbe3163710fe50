// Package common contains shared constants and sentinel errors used across
// the handover server and client components.
package common

import "time"

// UserTokenHeaderName is the gRPC metadata key used to carry the signed
// user token on inbound requests.
const UserTokenHeaderName = "user_token"

// DefaultRecordTTL is how long every stored record and index survives after
// its last write.
const DefaultRecordTTL = 24 * time.Hour

// ServiceName is the fully qualified gRPC service shared by the server and
// the terminal client.
const ServiceName = "handover.v1.HandoverService"

// FullMethod returns the gRPC method path of a handover method name.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}
