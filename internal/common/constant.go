// Package common contains constants, sentinel errors and small helpers
// shared by the console and the server.
package common

// AccessTokenHeaderName is the gRPC metadata key carrying the access token
// on outbound requests.
const AccessTokenHeaderName = "access_token"

// DefaultRoleID is the role assigned to every profile written on sign-in.
const DefaultRoleID = "3b3cb626d23d48d0af6f6cafeb023acb"
