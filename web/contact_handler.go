package web

import (
	"encoding/json"
	"net/http"

	"github.com/ripplechat/ripple/types"
)

type addContactReqBody struct {
	ContactID string `json:"contactID"`
}

func (h *Handler) addContact(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var reqBody addContactReqBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		h.respondErr(w, errBadRequest)
		return
	}

	if err := h.Service.AddContact(r.Context(), types.AddContact{ContactID: reqBody.ContactID}); err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) blockUser(w http.ResponseWriter, r *http.Request) {
	err := h.Service.BlockUser(r.Context(), types.BlockUser{BlockedID: r.PathValue("userID")})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unblockUser(w http.ResponseWriter, r *http.Request) {
	err := h.Service.UnblockUser(r.Context(), types.BlockUser{BlockedID: r.PathValue("userID")})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
