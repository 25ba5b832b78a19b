/*
Package handler provides the HTTP handlers and routing for the MiniMessenger server.

This file implements the room administration surface: servers with their
channels and invites, group conversations, the friendship-gated conversation
list, and the authorization-gated history endpoint.
*/
package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"minimessenger/internal/app/chat"
	"minimessenger/internal/app/db"
	"minimessenger/internal/pkg/errs"
	"minimessenger/internal/pkg/logx"
	"minimessenger/internal/pkg/randx"
	"minimessenger/internal/pkg/req"
	"minimessenger/internal/pkg/resp"
)

// InviteTTL is how long a minted server invite stays redeemable.
const InviteTTL = 7 * 24 * time.Hour

func validName(name string) bool {
	trimmed := strings.TrimSpace(name)
	return len(trimmed) >= 1 && len(trimmed) <= 50
}

type CreateServerInput struct {
	Name string `json:"name"`
}

// HandleCreateServer creates a server owned by the acting user. The owner
// membership and the default "general" channel are created atomically with it.
func HandleCreateServer(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, authErr := requireUser(r)
		if authErr != nil {
			resp.RespondError(w, r, authErr)
			return
		}

		var input CreateServerInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !validName(input.Name) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidRoomName))
			return
		}

		srv, general, err := deps.Store.CreateServer(r.Context(), strings.TrimSpace(input.Name), payload.UserID)
		if err != nil {
			logx.Error(err, "failed to create server", "owner_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"id":   srv.ID,
			"name": srv.Name,
			"channels": []map[string]any{
				{"id": general.ID, "name": general.Name},
			},
		})
	}
}

// HandleMyServers lists the servers the acting user belongs to.
func HandleMyServers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, authErr := requireUser(r)
		if authErr != nil {
			resp.RespondError(w, r, authErr)
			return
		}

		servers, err := deps.Store.ServersForUser(r.Context(), payload.UserID)
		if err != nil {
			logx.Error(err, "failed to list servers", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		out := make([]map[string]any, 0, len(servers))
		for _, srv := range servers {
			out = append(out, map[string]any{
				"id":     srv.ID,
				"name":   srv.Name,
				"avatar": srv.Avatar,
			})
		}
		resp.RespondSuccess(w, r, out)
	}
}

// HandleServerInfo returns a server's channel list, membership-gated.
func HandleServerInfo(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, authErr := requireUser(r)
		if authErr != nil {
			resp.RespondError(w, r, authErr)
			return
		}

		serverID, err := strconv.ParseInt(r.URL.Query().Get("server_id"), 10, 64)
		if err != nil || serverID <= 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		member, err := deps.Store.IsServerMember(r.Context(), serverID, payload.UserID)
		if err != nil {
			logx.Error(err, "server info: membership check failed", "server_id", serverID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if !member {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotServerMember))
			return
		}

		srv, err := deps.Store.ServerByID(r.Context(), serverID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrServerNotFound))
			return
		}

		channels, err := deps.Store.ChannelsForServer(r.Context(), serverID)
		if err != nil {
			logx.Error(err, "server info: channel list failed", "server_id", serverID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		chOut := make([]map[string]any, 0, len(channels))
		for _, ch := range channels {
			chOut = append(chOut, map[string]any{"id": ch.ID, "name": ch.Name})
		}

		resp.RespondSuccess(w, r, map[string]any{
			"id":       srv.ID,
			"name":     srv.Name,
			"avatar":   srv.Avatar,
			"is_owner": srv.OwnerID == payload.UserID,
			"channels": chOut,
		})
	}
}

type CreateInviteInput struct {
	ServerID int64 `json:"server_id"`
}

// HandleCreateInvite mints a redeemable join token for a server the acting
// user belongs to.
func HandleCreateInvite(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, authErr := requireUser(r)
		if authErr != nil {
			resp.RespondError(w, r, authErr)
			return
		}

		var input CreateInviteInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		member, err := deps.Store.IsServerMember(r.Context(), input.ServerID, payload.UserID)
		if err != nil || !member {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotServerMember))
			return
		}

		token, err := randx.InviteToken()
		if err != nil {
			logx.Error(err, "failed to generate invite token")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if err := deps.Store.CreateInvite(r.Context(), input.ServerID, payload.UserID, token, InviteTTL); err != nil {
			logx.Error(err, "failed to store invite", "server_id", input.ServerID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"token": token})
	}
}

type JoinServerInput struct {
	Token string `json:"token"`
}

// HandleJoinServer redeems an invite token into a server membership.
func HandleJoinServer(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, authErr := requireUser(r)
		if authErr != nil {
			resp.RespondError(w, r, authErr)
			return
		}

		var input JoinServerInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !randx.IsValidInviteToken(input.Token) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInviteInvalid))
			return
		}

		serverID, err := deps.Store.RedeemInvite(r.Context(), input.Token, payload.UserID)
		if err != nil {
			if db.IsNoRows(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrInviteInvalid))
				return
			}
			logx.Error(err, "failed to redeem invite")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"server_id": serverID})
	}
}

type CreateGroupInput struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// HandleCreateGroup creates a group conversation owned by the acting user.
// Member usernames are resolved case-insensitively; unknown names are skipped,
// but a group with no resolvable member besides the owner is rejected.
func HandleCreateGroup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, authErr := requireUser(r)
		if authErr != nil {
			resp.RespondError(w, r, authErr)
			return
		}

		var input CreateGroupInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !validName(input.Name) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidRoomName))
			return
		}

		var memberIDs []int64
		for _, name := range input.Members {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}

			id, err := deps.Store.UserIDByUsername(r.Context(), name)
			if err != nil {
				if db.IsNoRows(err) {
					continue
				}
				logx.Error(err, "group creation: member lookup failed", "username", name)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
			if id != payload.UserID {
				memberIDs = append(memberIDs, id)
			}
		}

		if len(memberIDs) == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrGroupMembersInvalid))
			return
		}

		groupID, err := deps.Store.CreateGroup(r.Context(), strings.TrimSpace(input.Name), payload.UserID, memberIDs)
		if err != nil {
			logx.Error(err, "failed to create group", "owner_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"id": groupID, "room": chat.DMRef{DMID: groupID}.String()})
	}
}

type RemoveGroupMemberInput struct {
	GroupID int64 `json:"group_id"`
	UserID  int64 `json:"user_id"`
}

// HandleRemoveGroupMember drops a member from a group; owner only, and the
// owner cannot remove themselves.
func HandleRemoveGroupMember(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, authErr := requireUser(r)
		if authErr != nil {
			resp.RespondError(w, r, authErr)
			return
		}

		var input RemoveGroupMemberInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		ownerID, err := deps.Store.GroupOwner(r.Context(), input.GroupID)
		if err != nil || ownerID != payload.UserID {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotGroupOwner))
			return
		}

		if input.UserID == payload.UserID {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Store.RemoveGroupMember(r.Context(), input.GroupID, input.UserID); err != nil {
			logx.Error(err, "failed to remove group member", "group_id", input.GroupID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleConversations lists the acting user's DM and group conversations.
// Each accepted friendship surfaces its DM room, find-or-created idempotently,
// so a conversation exists the moment a friendship is accepted.
func HandleConversations(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, authErr := requireUser(r)
		if authErr != nil {
			resp.RespondError(w, r, authErr)
			return
		}

		friends, err := deps.Store.AcceptedFriends(r.Context(), payload.UserID)
		if err != nil {
			logx.Error(err, "failed to list friends", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		conversations := make([]map[string]any, 0, len(friends))
		for _, friend := range friends {
			dmID, err := deps.Hub.EnsureDM(r.Context(), payload.UserID, friend.UserID)
			if err != nil {
				logx.Error(err, "failed to ensure dm", "user_id", payload.UserID, "friend_id", friend.UserID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}

			conversations = append(conversations, map[string]any{
				"id":       dmID,
				"room":     chat.DMRef{DMID: dmID}.String(),
				"name":     friend.Username,
				"avatar":   friend.Avatar,
				"is_group": false,
			})
		}

		groups, err := deps.Store.GroupsForUser(r.Context(), payload.UserID)
		if err != nil {
			logx.Error(err, "failed to list groups", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		for _, g := range groups {
			conversations = append(conversations, map[string]any{
				"id":       g.ID,
				"room":     chat.DMRef{DMID: g.ID}.String(),
				"name":     g.Name,
				"avatar":   g.Avatar,
				"is_group": true,
				"is_owner": g.IsOwner,
			})
		}

		resp.RespondSuccess(w, r, conversations)
	}
}

// HandleHistory returns a room's recent messages through the hub. The gate and
// the empty-on-unauthorized behavior live in the core; this handler only
// resolves identity and renders the view-models.
func HandleHistory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, authErr := requireUser(r)
		if authErr != nil {
			resp.RespondError(w, r, authErr)
			return
		}

		room := r.URL.Query().Get("room")
		if room == "" {
			resp.RespondSuccess(w, r, []any{})
			return
		}

		messages, err := deps.Hub.History(r.Context(), payload.UserID, room)
		if err != nil {
			logx.Error(err, "history query failed", "room", room)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if messages == nil {
			messages = []chat.MessagePayload{}
		}
		resp.RespondSuccess(w, r, messages)
	}
}
