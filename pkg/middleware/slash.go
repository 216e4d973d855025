// Package middleware provides composable http.Handler wrappers shared by
// every module: slash canonicalisation, request ids, request logging and CORS.
package middleware

import (
	"net/http"
	"strings"
)

// TrimSlash redirects "/path/" to "/path", keeping the query string. GET and
// HEAD get 301; other methods get 308 so clients resend the same method and
// body. The root path is served as is.
func TrimSlash() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == "/" || !strings.HasSuffix(path, "/") {
				next.ServeHTTP(w, r)
				return
			}

			u := *r.URL
			u.Path = strings.TrimRight(path, "/")
			u.RawPath = ""
			if u.Path == "" {
				u.Path = "/"
			}

			status := http.StatusPermanentRedirect
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				status = http.StatusMovedPermanently
			}
			http.Redirect(w, r, u.RequestURI(), status)
		})
	}
}
