// Package auth implements NoteNest's account and credential core: password
// hashing, signed access/refresh tokens, child/parent account repositories,
// and the account service (signup, login, refresh, logout).
//
// The role model is deliberately closed: exactly two roles (child, parent)
// with a single fixed relationship — a parent is linked to one child at
// signup by redeeming the child's family code, and the link is never
// reassigned.
package auth
