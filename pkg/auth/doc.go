// Package auth computes the password digest placed into LOGIN and REGISTER
// request bodies.
package auth
