// Package users holds the user record store and the user service layer.
//
// The store exposes lookups as explicit found/not-found results; not-found is
// part of the contract, not an error. The service layer normalizes input,
// hashes credentials, runs the authorization policy for each protected
// operation, and classifies store failures into the apierr taxonomy.
package users
