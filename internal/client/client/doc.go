// Package client is the console's transport to the restaurant backend.
//
// GRPCClient owns the gRPC connection and the current token pair. Every
// outbound call carries the access token in the "access_token" metadata
// header; a call rejected with an expired token triggers one refresh and one
// retry. Identity failures come back as *CodeError holding the auth/... code,
// other failures are mapped to ErrUnauthorized, ErrUnavailable or the
// sentinels of package common.
//
// The package also bootstraps the local sqlite database (InitDatabase,
// RunMigrations) used for durable session persistence.
package client
