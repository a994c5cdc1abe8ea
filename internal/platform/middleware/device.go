package middleware

import (
	"net/http"

	"github.com/mssola/useragent"

	"cardlink/pkg/requestcontext"
)

// Device classifies the caller's user agent so the view counter can be
// labeled by device class. Classification never blocks a request.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.UserAgent()
		ctx := requestcontext.WithUserAgent(r.Context(), raw)
		ctx = requestcontext.WithDeviceClass(ctx, classify(raw))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func classify(raw string) string {
	if raw == "" {
		return "unknown"
	}
	ua := useragent.New(raw)
	switch {
	case ua.Bot():
		return "bot"
	case ua.Mobile():
		return "mobile"
	default:
		return "desktop"
	}
}
