// Package policy evaluates named authorization policies against a resolved
// authentication context.
//
// Policies are explicit functions invoked at the top of each protected
// operation. Evaluating any policy against an anonymous context yields a
// denial, never a panic.
package policy
