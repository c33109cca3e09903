// Package server provides the HTTP side of statspot: the token exchange service and the CLI callback listener.
//
// # Token Service
//
// [API] is the only process that holds the Spotify client secret. It exposes:
//
//	POST     /api/exchange  code + code_verifier -> access token, refresh token set as an HttpOnly cookie
//	GET|POST /api/refresh   spotify_refresh cookie -> access token, cookie rotated when Spotify rotates
//	POST     /api/logout    clears the cookie (Max-Age=0)
//	GET      /api/health    {"ok":true,"hasClient":bool,"hasSecret":bool}
//
// Response bodies never carry the refresh token. The service keeps no token state between requests.
// Grants are performed by a [TokenService]; [OAuthTokens] implements it with golang.org/x/oauth2
// using HTTP Basic client authentication.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first).
// [BasicRouter] uses [http.ServeMux] internally and answers disallowed methods with 405 and an Allow header.
//
// Provided middleware: [RequestID], [Logging], [Recover] and the per-IP [RateLimit].
//
// # Callback Listener
//
// [CallbackHandler] runs on the CLI's loopback redirect URI during login. It captures the first
// code (or error) once, immediately redirects to the bare path so the code leaves the address bar,
// and hands the result to the caller over a channel.
package server
