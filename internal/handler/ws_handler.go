package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"minimessenger/internal/app/chat"
	"minimessenger/internal/pkg/auth/jwt"
	"minimessenger/internal/pkg/errs"
	"minimessenger/internal/pkg/logx"
	"minimessenger/internal/pkg/resp"
)

// HandleWS upgrades the request to a WebSocket session. Browsers cannot set
// headers on WebSocket requests, so the session token travels in the "token"
// query parameter; identity is bound here once and the session never trusts a
// client-claimed id afterwards.
func HandleWS(deps *AppDeps) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if len(deps.Config.AllowedOrigins) == 0 {
				return deps.Config.Environment == "development"
			}
			for _, allowed := range deps.Config.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		payload, err := jwt.ParseToken(tokenString, deps.Config.JWTSecret)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		identity, err := deps.Store.UserByID(r.Context(), payload.UserID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Warn("WebSocket upgrade failed", "err", err.Error())
			return
		}

		session := chat.NewSession(deps.Hub, conn, identity)

		go session.WritePump()
		session.ReadPump(r.Context())
	}
}
