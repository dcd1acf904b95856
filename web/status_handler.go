package web

import (
	"encoding/json"
	"net/http"

	"github.com/ripplechat/ripple/types"
)

type createStatusReqBody struct {
	Content         string              `json:"content"`
	BackgroundColor string              `json:"backgroundColor"`
	Privacy         types.StatusPrivacy `json:"privacy"`
}

func (h *Handler) createStatus(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var reqBody createStatusReqBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		h.respondErr(w, errBadRequest)
		return
	}

	status, err := h.Service.CreateStatusUpdate(r.Context(), types.CreateStatusUpdate{
		Content:         reqBody.Content,
		BackgroundColor: reqBody.BackgroundColor,
		Privacy:         reqBody.Privacy,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, status, http.StatusCreated)
}

func (h *Handler) statuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.Service.StatusUpdates(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if statuses == nil {
		statuses = []types.StatusUpdate{} // non null array
	}

	h.respond(w, statuses, http.StatusOK)
}

func (h *Handler) viewStatus(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ViewStatusUpdate(r.Context(), r.PathValue("statusID")); err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) statusViewers(w http.ResponseWriter, r *http.Request) {
	viewers, err := h.Service.StatusViewers(r.Context(), r.PathValue("statusID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if viewers == nil {
		viewers = []types.StatusView{} // non null array
	}

	h.respond(w, viewers, http.StatusOK)
}
