package dispatch

import (
	"context"
	"net/http"
	"net/url"
)

type originalURLKey struct{}

// KeepOriginalURL records the request URL before any inner handler
// rewrites it. Only the outermost use takes effect.
func KeepOriginalURL(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Value(originalURLKey{}).(*url.URL); !ok {
			u := *r.URL
			r = r.WithContext(context.WithValue(r.Context(), originalURLKey{}, &u))
		}
		next.ServeHTTP(w, r)
	})
}

// OriginalURL returns the URL recorded by KeepOriginalURL, or r.URL.
func OriginalURL(r *http.Request) *url.URL {
	if u, ok := r.Context().Value(originalURLKey{}).(*url.URL); ok {
		return u
	}
	return r.URL
}
