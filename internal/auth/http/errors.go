package http

import (
	"errors"
	"net/http"

	"github.com/codereach/platform/internal/auth/domain"
	"github.com/codereach/platform/pkg/httpx"
	"github.com/codereach/platform/pkg/slogx"
)

// writeError maps a domain error onto its transport representation. The
// switch over kinds is exhaustive on purpose; adding a kind without a
// mapping should be caught in review, not guessed at runtime. Non-domain
// errors are internal faults and say nothing more than that.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var de *domain.Error
	if !errors.As(err, &de) {
		log.Error("internal error", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "An internal error occurred",
		})
		return
	}

	var code string
	switch de.Kind {
	case domain.KindValidation:
		code = "invalid_request"
	case domain.KindConflict:
		code = "conflict"
	case domain.KindAuth:
		code = "unauthorized"
	case domain.KindNotFound:
		code = "not_found"
	case domain.KindBadRequest:
		code = "bad_request"
	default:
		log.Error("unmapped domain error kind", "kind", de.Kind, "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "server_error"})
		return
	}

	httpx.WriteJSON(w, de.Kind.Status(), ErrorResponse{
		Error:            code,
		ErrorDescription: de.Message,
	})
}
