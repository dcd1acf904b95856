package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ripplechat/ripple/types"
)

type startMatchingReqBody struct {
	Interests   []string `json:"interests"`
	IsAnonymous bool     `json:"isAnonymous"`
}

// startMatching joins the random-match queue and streams this search's
// events (searching, matched, timed_out, error) over SSE until the search
// resolves. Closing the stream early cancels the search.
func (h *Handler) startMatching(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var reqBody startMatchingReqBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		h.respondErr(w, errBadRequest)
		return
	}

	events, err := h.Service.StartMatching(r.Context(), types.UpsertQueueEntry{
		Interests:   reqBody.Interests,
		IsAnonymous: reqBody.IsAnonymous,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.streamMatchEvents(w, r, events)
}

// skipMatch leaves the current match and re-joins the queue with the same
// interests, streaming the new search's events like startMatching does.
func (h *Handler) skipMatch(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.Skip(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.streamMatchEvents(w, r, events)
}

func (h *Handler) streamMatchEvents(w http.ResponseWriter, r *http.Request, events <-chan types.MatchEvent) {
	f, ok := w.(http.Flusher)
	if !ok {
		h.respondErr(w, errStreamingUnsupported)
		return
	}

	sseHeaders(w)
	f.Flush()

	ctx := r.Context()

	for {
		select {
		case ev, open := <-events:
			if !open {
				return
			}

			h.writeSSE(w, ev)
			f.Flush()

		case <-ctx.Done():
			// The client went away mid-search. Leave the queue so nobody
			// gets matched with a ghost. WithoutCancel keeps the logged-in
			// user attached while outliving the dead request.
			if err := h.Service.CancelMatching(context.WithoutCancel(ctx)); err != nil {
				h.log().Error("cancel matching on disconnect", "err", err)
			}
			return
		}
	}
}

func (h *Handler) cancelMatching(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.CancelMatching(r.Context()); err != nil {
		h.respondErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) matchState(w http.ResponseWriter, r *http.Request) {
	state, err := h.Service.MatchState(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, map[string]string{"state": state.String()}, http.StatusOK)
}
