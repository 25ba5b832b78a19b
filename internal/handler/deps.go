package handler

import (
	"net/http"

	"minimessenger/internal/app/chat"
	"minimessenger/internal/app/storage"
	"minimessenger/internal/app/store"
	"minimessenger/internal/configs"
	"minimessenger/internal/pkg/auth/jwt"
	"minimessenger/internal/pkg/errs"
)

// AppDeps bundles the dependencies the HTTP handlers close over.
type AppDeps struct {
	Hub            *chat.Hub
	Store          *store.Store
	StorageService storage.StorageService
	Config         *configs.AppConfig
}

// requireUser resolves the authenticated identity injected by the JWT
// middleware, or an ErrUnauthorized the handler can answer with directly.
func requireUser(r *http.Request) (*jwt.Payload, *errs.CustomError) {
	payload := jwt.GetPayloadFromContext(r)
	if payload == nil {
		return nil, errs.NewError(errs.ErrUnauthorized)
	}
	return payload, nil
}
