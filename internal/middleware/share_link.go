package middleware

import (
	"context"
	"net/http"
	"strings"
)

const (
	HeaderShareLink = "X-Share-Link"
	QueryShareLink  = "share"

	shareLinkKey ctxKey = "share_link"
)

// ShareLink toma el id del link de share (header X-Share-Link o ?share=)
// y lo deja en el contexto. Conocer el link es la credencial; no valida nada aquí.
func ShareLink(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		link := strings.TrimSpace(r.Header.Get(HeaderShareLink))
		if link == "" {
			link = strings.TrimSpace(r.URL.Query().Get(QueryShareLink))
		}
		if link == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), shareLinkKey, link)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetShareLink(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(shareLinkKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
