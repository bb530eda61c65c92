package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/vadimbarashkov/linkshrink/internal/entity"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type urlUseCase interface {
	ShortenURL(ctx context.Context, originalURL, customCode string) (*entity.URL, error)
	ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	ListURLs(ctx context.Context, page, limit int) (*entity.URLPage, error)
	GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error)
}

type observer interface {
	ObserveShortened(custom bool)
	ObserveRedirect(counted bool)
}

type nopObserver struct{}

func (nopObserver) ObserveShortened(bool) {}
func (nopObserver) ObserveRedirect(bool)  {}

type urlHandler struct {
	useCase  urlUseCase
	observer observer
}

func newURLHandler(useCase urlUseCase, observer observer) *urlHandler {
	return &urlHandler{
		useCase:  useCase,
		observer: observer,
	}
}

func logError(r *http.Request, err error) {
	httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
}

func (h *urlHandler) shortenURL(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return
	}

	url, err := h.useCase.ShortenURL(r.Context(), req.OriginalURL, req.CustomCode)
	if err != nil {
		if resp, ok := shortenErrorResponse(err); ok {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp)
			return
		}

		logError(r, err)

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	h.observer.ObserveShortened(req.CustomCode != "")

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toURLResponse(url))
}

// shortenErrorResponse maps client-caused shortening errors to a 400 body.
func shortenErrorResponse(err error) (errorResponse, bool) {
	switch {
	case errors.Is(err, entity.ErrMissingURL):
		return validationErrorResponse(codeMissingURL, "original_url", "this field is required"), true
	case errors.Is(err, entity.ErrInvalidURL):
		return validationErrorResponse(codeInvalidURL, "original_url", "invalid url"), true
	case errors.Is(err, entity.ErrInvalidShortCode):
		return validationErrorResponse(codeInvalidShortCode, "custom_code",
			"only letters, digits, '_' and '-' are allowed"), true
	case errors.Is(err, entity.ErrShortCodeTaken):
		return validationErrorResponse(codeShortCodeTaken, "custom_code", "short code is already taken"), true
	default:
		return errorResponse{}, false
	}
}

func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.ResolveShortCode(r.Context(), shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, urlNotFoundResponse)
			return
		}

		logError(r, err)

		if url == nil || !errors.Is(err, entity.ErrClickNotCounted) {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, serverErrorResponse)
			return
		}
	}

	h.observer.ObserveRedirect(err == nil)

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, url.OriginalURL, http.StatusFound)
}

func (h *urlHandler) listURLs(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page")
	limit := queryInt(r, "limit")

	urls, err := h.useCase.ListURLs(r.Context(), page, limit)
	if err != nil {
		logError(r, err)

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLPageResponse(urls))
}

// queryInt returns 0 for a missing or non-numeric parameter, leaving the default to the use case.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}

func (h *urlHandler) getURLStats(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.GetURLStats(r.Context(), shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, urlNotFoundResponse)
			return
		}

		logError(r, err)

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLStatsResponse(url))
}
