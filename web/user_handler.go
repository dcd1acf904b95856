package web

import (
	"encoding/json"
	"net/http"

	"github.com/ripplechat/ripple/auth"
	"github.com/ripplechat/ripple/errs"
	"github.com/ripplechat/ripple/types"
)

type loginReqBody struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

type loginRespBody struct {
	User  types.User `json:"user"`
	Token string     `json:"token"`
}

// login upserts the user row and issues a bearer token. Identity
// verification (passwords, magic links, OAuth) is the identity provider's
// job upstream of this API.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var reqBody loginReqBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		h.respondErr(w, errBadRequest)
		return
	}

	user, err := h.Service.UpsertUser(r.Context(), types.UpsertUser{
		Email:    reqBody.Email,
		Username: reqBody.Username,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	token, err := h.AuthCodec.IssueToken(user.ID)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, loginRespBody{User: user, Token: token}, http.StatusOK)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.respondErr(w, errs.Unauthenticated)
		return
	}

	h.respond(w, user, http.StatusOK)
}

func (h *Handler) users(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.Users(r.Context(), types.ListUsers{
		SearchQuery: r.URL.Query().Get("search"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if users == nil {
		users = []types.User{} // non null array
	}

	h.respond(w, users, http.StatusOK)
}

func (h *Handler) showUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.User(r.Context(), r.PathValue("userID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}

	// Email is private to its owner.
	if loggedInUser, ok := auth.UserFromContext(r.Context()); !ok || loggedInUser.ID != user.ID {
		user.Email = ""
	}

	h.respond(w, user, http.StatusOK)
}
