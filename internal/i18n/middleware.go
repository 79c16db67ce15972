package i18n

import "net/http"

// Middleware injects a localizer into every request context. An explicit
// ?lang= query parameter wins, then the Accept-Language header, then the
// configured default.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := r.URL.Query().Get("lang")
			accept := r.Header.Get("Accept-Language")

			loc := NewLocalizer(lang, accept, defaultLang)
			ctx := WithLocalizer(r.Context(), loc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
