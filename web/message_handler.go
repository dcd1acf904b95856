package web

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/ripplechat/ripple/service"
	"github.com/ripplechat/ripple/types"
)

type createMessageReqBody struct {
	Content string `json:"content"`
}

// createMessage accepts either a JSON body or multipart/form-data with a
// content field plus media file parts.
func (h *Handler) createMessage(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var content string
	var media []io.ReadSeeker

	var closeFuncs []func() error
	defer func() {
		for _, f := range closeFuncs {
			_ = f()
		}
	}()

	mediatype, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && strings.Contains(strings.ToLower(mediatype), "multipart/form-data") {
		if err := r.ParseMultipartForm(service.MaxMediaItemBytes); err != nil {
			h.respondErr(w, errBadRequest)
			return
		}

		defer r.MultipartForm.RemoveAll()

		content = r.FormValue("content")
		if files, ok := r.MultipartForm.File["media"]; ok {
			for _, header := range files {
				if header.Size > service.MaxMediaItemBytes {
					h.respondErr(w, service.ErrUnsupportedMediaFormat)
					return
				}

				f, err := header.Open()
				if err != nil {
					h.respondErr(w, errBadRequest)
					return
				}

				closeFuncs = append(closeFuncs, f.Close)

				media = append(media, f)
			}
		}
	} else {
		var reqBody createMessageReqBody
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			h.respondErr(w, errBadRequest)
			return
		}
		content = reqBody.Content
	}

	msg, err := h.Service.CreateMessage(r.Context(), types.CreateMessage{
		ConversationID: r.PathValue("conversationID"),
		Content:        content,
	}, media)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if msg.MediaURLs == nil {
		msg.MediaURLs = []string{} // non null array
	}

	h.respond(w, msg, http.StatusCreated)
}

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	if a, _, err := mime.ParseMediaType(r.Header.Get("Accept")); err == nil && a == "text/event-stream" {
		h.messageStream(w, r)
		return
	}

	pageArgs, err := parsePageArgs(r.URL.Query())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	page, err := h.Service.Messages(r.Context(), types.ListMessages{
		ConversationID: r.PathValue("conversationID"),
		PageArgs:       pageArgs,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}

	if page.Items == nil {
		page.Items = []types.Message{} // non null array
	}

	for i := range page.Items {
		if page.Items[i].MediaURLs == nil {
			page.Items[i].MediaURLs = []string{} // non null array
		}
	}

	h.respond(w, page, http.StatusOK)
}

func (h *Handler) messageStream(w http.ResponseWriter, r *http.Request) {
	f, ok := w.(http.Flusher)
	if !ok {
		h.respondErr(w, errStreamingUnsupported)
		return
	}

	ctx := r.Context()
	msgs, err := h.Service.MessageStream(ctx, r.PathValue("conversationID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}

	sseHeaders(w)
	f.Flush()

	for {
		select {
		case msg, open := <-msgs:
			if !open {
				return
			}

			if msg.MediaURLs == nil {
				msg.MediaURLs = []string{} // non null array
			}

			h.writeSSE(w, msg)
			f.Flush()

		case <-ctx.Done():
			return
		}
	}
}
