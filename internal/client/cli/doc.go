// Package cli is the interactive restaurant console.
//
// It wires configuration, the local state database, the gRPC transport, the
// identity and data clients, the session monitor and the route guard, then
// runs a REPL in which the user moves between screens:
//
//	/login, /register          sign in or create an account
//	/dashboard                 counts and the most recent orders
//	/dashboard/customers       customer list with add, edit and delete
//	/dashboard/recipes         recipe list with add, edit and delete
//	/recipes                   public recipe list, no sign-in needed
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
