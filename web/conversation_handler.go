package web

import (
	"encoding/json"
	"net/http"

	"github.com/ripplechat/ripple/types"
)

type createConversationReqBody struct {
	OtherUserID string                 `json:"otherUserID"`
	Kind        types.ConversationKind `json:"kind"`
}

func (h *Handler) createConversation(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var reqBody createConversationReqBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		h.respondErr(w, errBadRequest)
		return
	}

	kind := reqBody.Kind
	if kind == "" {
		kind = types.ConversationKindDirect
	}

	conversation, err := h.Service.CreateConversation(r.Context(), types.CreateConversation{
		OtherUserID: reqBody.OtherUserID,
		Kind:        kind,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, conversation, http.StatusCreated)
}

func (h *Handler) conversations(w http.ResponseWriter, r *http.Request) {
	pageArgs, err := parsePageArgs(r.URL.Query())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	page, err := h.Service.Conversations(r.Context(), types.ListConversations{PageArgs: pageArgs})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if page.Items == nil {
		page.Items = []types.Conversation{} // non null array
	}

	h.respond(w, page, http.StatusOK)
}

func (h *Handler) showConversation(w http.ResponseWriter, r *http.Request) {
	conversation, err := h.Service.Conversation(r.Context(), types.RetrieveConversation{
		ConversationID: r.PathValue("conversationID"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, conversation, http.StatusOK)
}

func (h *Handler) acceptConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.AcceptConversation(r.Context(), r.PathValue("conversationID")); err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) rejectConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RejectConversation(r.Context(), r.PathValue("conversationID")); err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) archiveConversation(w http.ResponseWriter, r *http.Request) {
	err := h.Service.ArchiveConversation(r.Context(), types.ArchiveConversation{
		ConversationID: r.PathValue("conversationID"),
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
