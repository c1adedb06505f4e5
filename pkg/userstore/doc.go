// Package userstore holds the principal records basicgate authenticates
// against and the Repository contract its backends (memory, postgres)
// implement.
//
// Schemes do not see a Repository directly. Principals adapts one to
// auth.PrincipalStore, which exposes only the attribute lookup.
package userstore
