package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"syscall"

	"github.com/ripplechat/ripple/errs"
	"github.com/ripplechat/ripple/ptr"
	"github.com/ripplechat/ripple/types"
)

var (
	errBadRequest           = errs.NewInvalidArgumentError("Body", "Malformed request body")
	errStreamingUnsupported = errors.New("streaming unsupported")
)

func (h *Handler) respond(w http.ResponseWriter, v any, statusCode int) {
	b, err := json.Marshal(v)
	if err != nil {
		h.respondErr(w, fmt.Errorf("json marshal response body: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write(b); err != nil && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, context.Canceled) {
		h.log().Error("write response", "err", err)
	}
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	statusCode := err2code(err)
	if statusCode == http.StatusInternalServerError {
		if !errors.Is(err, context.Canceled) {
			h.log().Error("internal error", "err", err)
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.Error(w, err.Error(), statusCode)
}

func err2code(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if errors.Is(err, errStreamingUnsupported) {
		return http.StatusExpectationFailed
	}

	var e *errs.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}

	switch e.Kind {
	case errs.KindInvalidArgument:
		return http.StatusUnprocessableEntity
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindAlreadyExists, errs.KindConflict:
		return http.StatusConflict
	case errs.KindPermissionDenied:
		return http.StatusForbidden
	case errs.KindUnauthenticated:
		return http.StatusUnauthorized
	case errs.KindUnavailable:
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

func (h *Handler) writeSSE(w io.Writer, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log().Error("json marshal sse data", "err", err)
		if _, err := fmt.Fprintf(w, "event: error\ndata: %v\n\n", err); err != nil && !errors.Is(err, syscall.EPIPE) {
			h.log().Error("write sse error", "err", err)
		}
		return
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil && !errors.Is(err, syscall.EPIPE) {
		h.log().Error("write sse data", "err", err)
	}
}

func sseHeaders(w http.ResponseWriter) {
	header := w.Header()
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("Content-Type", "text/event-stream; charset=utf-8")
}

func parsePageArgs(q url.Values) (types.PageArgs, error) {
	var pageArgs types.PageArgs

	if q.Has("first") {
		first, err := strconv.ParseUint(q.Get("first"), 10, 64)
		if err != nil {
			return pageArgs, errs.NewInvalidArgumentError("first", "Invalid first page arg")
		}

		pageArgs.First = ptr.From(uint(first))
	}

	if q.Has("after") {
		pageArgs.After = ptr.From(q.Get("after"))
	}

	return pageArgs, nil
}
