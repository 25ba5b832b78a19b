package handler

import (
	"net/http"
	"strings"

	"minimessenger/internal/app/db"
	"minimessenger/internal/app/store"
	"minimessenger/internal/pkg/errs"
	"minimessenger/internal/pkg/logx"
	"minimessenger/internal/pkg/req"
	"minimessenger/internal/pkg/resp"
)

type FriendRequestInput struct {
	Username string `json:"username"`
}

// HandleFriendRequest records a pending friendship toward the named user.
// Self-requests and duplicate edges are rejected.
func HandleFriendRequest(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, authErr := requireUser(r)
		if authErr != nil {
			resp.RespondError(w, r, authErr)
			return
		}

		var input FriendRequestInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		addresseeID, err := deps.Store.UserIDByUsername(r.Context(), strings.TrimSpace(input.Username))
		if err != nil {
			if db.IsNoRows(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "friend request: user lookup failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if addresseeID == payload.UserID {
			resp.RespondError(w, r, errs.NewError(errs.ErrFriendRequestInvalid))
			return
		}

		if err := deps.Store.CreateFriendRequest(r.Context(), payload.UserID, addresseeID); err != nil {
			if db.IsUniqueViolation(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrFriendRequestInvalid))
				return
			}
			logx.Error(err, "failed to create friend request", "requester_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

type FriendRespondInput struct {
	RequesterID int64 `json:"requester_id"`
	Accept      bool  `json:"accept"`
}

// HandleFriendRespond accepts or rejects a pending request addressed to the
// acting user. Accepting also find-or-creates the pair's DM so the
// conversation exists immediately.
func HandleFriendRespond(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, authErr := requireUser(r)
		if authErr != nil {
			resp.RespondError(w, r, authErr)
			return
		}

		var input FriendRespondInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		status := store.FriendRejected
		if input.Accept {
			status = store.FriendAccepted
		}

		if err := deps.Store.RespondFriendRequest(r.Context(), input.RequesterID, payload.UserID, status); err != nil {
			if db.IsNoRows(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrFriendRequestInvalid))
				return
			}
			logx.Error(err, "failed to respond to friend request", "requester_id", input.RequesterID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if input.Accept {
			if _, err := deps.Hub.EnsureDM(r.Context(), payload.UserID, input.RequesterID); err != nil {
				logx.Error(err, "failed to ensure dm after acceptance", "requester_id", input.RequesterID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleFriendList returns the acting user's accepted friends and the pending
// requests awaiting their response.
func HandleFriendList(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, authErr := requireUser(r)
		if authErr != nil {
			resp.RespondError(w, r, authErr)
			return
		}

		accepted, err := deps.Store.AcceptedFriends(r.Context(), payload.UserID)
		if err != nil {
			logx.Error(err, "failed to list accepted friends", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		pending, err := deps.Store.PendingFriendRequests(r.Context(), payload.UserID)
		if err != nil {
			logx.Error(err, "failed to list pending friend requests", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"friends": friendViews(accepted),
			"pending": friendViews(pending),
		})
	}
}

func friendViews(friends []store.Friend) []map[string]any {
	out := make([]map[string]any, 0, len(friends))
	for _, f := range friends {
		out = append(out, map[string]any{
			"user_id":  f.UserID,
			"username": f.Username,
			"avatar":   f.Avatar,
		})
	}
	return out
}
