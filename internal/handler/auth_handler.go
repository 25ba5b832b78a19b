/*
Package handler provides the HTTP handlers and routing for the MiniMessenger server.

This file implements account registration and login: bcrypt credential hashing,
case-insensitive username uniqueness, and JWT session token issuance.
*/
package handler

import (
	"net/http"
	"regexp"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"minimessenger/internal/app/db"
	"minimessenger/internal/pkg/auth/jwt"
	"minimessenger/internal/pkg/errs"
	"minimessenger/internal/pkg/logx"
	"minimessenger/internal/pkg/req"
	"minimessenger/internal/pkg/resp"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,50}$`)

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleRegister creates a new account from a username and password.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if payload := jwt.GetPayloadFromContext(r); payload != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input RegisterInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !usernameRegex.MatchString(input.Username) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidUsername))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < 6 || passwordLen > 72 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		account, err := deps.Store.CreateUser(r.Context(), input.Username, string(hashedPassword), "")
		if err != nil {
			if db.IsUniqueViolation(err) {
				logx.Warn("registration conflict: username already exists", "username", input.Username)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "failed to create user in database")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		tokenString, err := jwt.GenerateToken(&jwt.Payload{
			UserID:   account.ID,
			Username: account.Username,
		}, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			logx.Error(err, "failed to generate token after registration")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": tokenString,
			"user": map[string]any{
				"id":       account.ID,
				"username": account.Username,
				"avatar":   account.Avatar,
			},
		})
	}
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and issues a session token. Unknown
// accounts and wrong passwords answer identically.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if payload := jwt.GetPayloadFromContext(r); payload != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Username == "" || input.Password == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		userID, passwordHash, err := deps.Store.CredentialsByUsername(r.Context(), input.Username)
		if err != nil {
			if db.IsNoRows(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
				return
			}
			logx.Error(err, "login: credential lookup failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(input.Password)) != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		account, err := deps.Store.UserByID(r.Context(), userID)
		if err != nil {
			logx.Error(err, "login: user fetch failed", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		tokenString, err := jwt.GenerateToken(&jwt.Payload{
			UserID:   account.ID,
			Username: account.Username,
		}, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			logx.Error(err, "failed to generate token after login")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": tokenString,
			"user": map[string]any{
				"id":       account.ID,
				"username": account.Username,
				"avatar":   account.Avatar,
			},
		})
	}
}
