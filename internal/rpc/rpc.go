// Package rpc describes the wire contract between the console and the
// server: service and method names, the collection names served by the data
// service, the identity error codes, and the message shapes.
//
// Messages travel as google.protobuf.Struct values; Encode and Decode convert
// between those and the Go message types below through their JSON form.
package rpc

import (
	"encoding/json"

	"google.golang.org/grpc"
)

const (
	IdentityService = "restaurant.Identity"
	DataService     = "restaurant.Data"

	MethodSignUp  = "/restaurant.Identity/SignUp"
	MethodSignIn  = "/restaurant.Identity/SignIn"
	MethodRefresh = "/restaurant.Identity/Refresh"
	MethodSignOut = "/restaurant.Identity/SignOut"

	MethodUpsertUser = "/restaurant.Data/UpsertUser"
	MethodCreate     = "/restaurant.Data/Create"
	MethodUpsert     = "/restaurant.Data/Upsert"
	MethodList       = "/restaurant.Data/List"
	MethodWatch      = "/restaurant.Data/Watch"
)

// WatchStream describes the server-streaming Watch method for clients.
var WatchStream = &grpc.StreamDesc{StreamName: "Watch", ServerStreams: true}

// Collections served by the data service.
const (
	CollectionCustomers = "customers"
	CollectionRecipes   = "recipes"
	CollectionUsers     = "users"
	CollectionOrders    = "orders"
)

// Collections lists every collection name, in a stable order.
var Collections = []string{CollectionCustomers, CollectionRecipes, CollectionUsers, CollectionOrders}

// Writable reports whether Create and Upsert accept the collection.
func Writable(collection string) bool {
	return collection == CollectionCustomers || collection == CollectionRecipes
}

// Public reports whether the collection can be read without an access token.
func Public(collection string) bool {
	return collection == CollectionRecipes
}

// Identity error codes. They travel as the gRPC status message.
const (
	AuthCodePrefix = "auth/"

	CodeEmailInUse      = "auth/email-already-in-use"
	CodeWeakPassword    = "auth/weak-password"
	CodeInvalidEmail    = "auth/invalid-email"
	CodeUserNotFound    = "auth/user-not-found"
	CodeWrongPassword   = "auth/wrong-password"
	CodeTooManyRequests = "auth/too-many-requests"
	CodeTokenExpired    = "auth/user-token-expired"
)

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is returned by SignUp, SignIn and Refresh.
type AuthResult struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName,omitempty"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type UserProfile struct {
	Username string  `json:"username"`
	RoleID   string  `json:"roleId"`
	Email    *string `json:"email"`
}

// MutationRequest carries a record for Create or Upsert. Record is the JSON
// form of the collection's model.
type MutationRequest struct {
	Collection string          `json:"collection"`
	Record     json.RawMessage `json:"record"`
}

// MutationResult carries the key of the written row.
type MutationResult struct {
	ID string `json:"id"`
}

type ListRequest struct {
	Collection string `json:"collection"`
}

// Snapshot is a full copy of a collection. Watch streams one per change.
type Snapshot struct {
	Collection string          `json:"collection"`
	Items      json.RawMessage `json:"items"`
}

type Empty struct{}
