// Package heron audits source trees for technical debt.
package heron

// Version is the current heron release.
const Version = "0.4.0"
