package http

import (
	"time"

	"github.com/vadimbarashkov/linkshrink/internal/entity"
)

const statusError = "error"

// Error codes let clients tell failures apart without parsing messages.
const (
	codeEmptyBody        = "empty_body"
	codeInvalidBody      = "invalid_body"
	codeMissingURL       = "missing_url"
	codeInvalidURL       = "invalid_url"
	codeInvalidShortCode = "invalid_short_code"
	codeShortCodeTaken   = "short_code_taken"
	codeNotFound         = "not_found"
	codeInternal         = "internal"
)

type shortenRequest struct {
	OriginalURL string `json:"original_url"`
	CustomCode  string `json:"custom_code,omitempty"`
}

type urlResponse struct {
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func toURLResponse(url *entity.URL) urlResponse {
	return urlResponse{
		ShortCode:   url.ShortCode,
		ShortURL:    url.ShortURL,
		OriginalURL: url.OriginalURL,
		CreatedAt:   url.CreatedAt,
	}
}

type urlStatsResponse struct {
	urlResponse
	AccessCount int64 `json:"access_count"`
}

func toURLStatsResponse(url *entity.URL) urlStatsResponse {
	return urlStatsResponse{
		urlResponse: toURLResponse(url),
		AccessCount: url.AccessCount,
	}
}

type urlPageResponse struct {
	Items   []urlStatsResponse `json:"items"`
	HasMore bool               `json:"has_more"`
	Page    int                `json:"page"`
	Limit   int                `json:"limit"`
	Total   int64              `json:"total"`
}

func toURLPageResponse(page *entity.URLPage) urlPageResponse {
	items := make([]urlStatsResponse, 0, len(page.Items))
	for _, url := range page.Items {
		items = append(items, toURLStatsResponse(url))
	}

	return urlPageResponse{
		Items:   items,
		HasMore: page.HasMore,
		Page:    page.Page,
		Limit:   page.Limit,
		Total:   page.Total,
	}
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Status  string       `json:"status"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Errors  []fieldError `json:"errors,omitempty"`
}

var (
	emptyRequestBodyResponse = errorResponse{
		Status:  statusError,
		Code:    codeEmptyBody,
		Message: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Status:  statusError,
		Code:    codeInvalidBody,
		Message: "invalid request body",
	}

	urlNotFoundResponse = errorResponse{
		Status:  statusError,
		Code:    codeNotFound,
		Message: "url not found",
	}

	serverErrorResponse = errorResponse{
		Status:  statusError,
		Code:    codeInternal,
		Message: "server error occurred",
	}
)

func validationErrorResponse(code, field, message string) errorResponse {
	return errorResponse{
		Status:  statusError,
		Code:    code,
		Message: "validation error",
		Errors: []fieldError{
			{Field: field, Message: message},
		},
	}
}
