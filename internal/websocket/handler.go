package websocket

import (
	"log/slog"
	"net/http"
	"net/url"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/grocer/internal/auth"
)

// Handle upgrades an authenticated request to the caller's change feed.
// Origins are matched by host against allowedOrigins.
func Handle(hub *Hub, allowedOrigins []string, logger *slog.Logger) http.HandlerFunc {
	patterns := originPatterns(allowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		owner := auth.Username(r.Context())
		if owner == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: patterns})
		if err != nil {
			logger.Warn("websocket accept", "owner", owner, "error", err)
			return
		}

		logger.Debug("websocket connected", "owner", owner)
		NewClient(hub, conn, owner).Run(r.Context())
		logger.Debug("websocket disconnected", "owner", owner)
	}
}

func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}
