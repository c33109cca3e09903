// Package session holds the client side of the login state: the in-flight PKCE verifier and the
// current access token, persisted in a per-profile [Storage].
//
// # Storage
//
// [Storage] is a string key/value store standing in for a browser's localStorage. Two backends exist:
//   - [FileStorage] : one file per key under the profile directory, replaced atomically via rename
//   - [SQLiteStorage] : a profile_store table in a SQLite database, migrated by [shared.RunMigrations]
//
// Well-known keys are [KeyVerifier], [KeyToken] and [KeyCookies].
//
// # Expiry
//
// A [Token] records obtained_at in epoch milliseconds when stored. It is expired once
// now >= obtained_at + expires_in*1000. Expiry is lazy: [Store.Read] purges an expired token
// and reports [shared.ErrNoSession]; there is no background timer.
package session
