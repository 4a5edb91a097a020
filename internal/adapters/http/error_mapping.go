package httpadapter

import (
	"net/http"

	"github.com/genequery/atlas-assistant/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrSessionNotFound),
		domain.IsKind(err, domain.ErrUnknownIdentifier),
		domain.IsKind(err, domain.ErrNoMatch):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrCatalogUnavailable),
		domain.IsKind(err, domain.ErrDirectoryUnavailable),
		domain.IsKind(err, domain.ErrDownloadFailed):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// faultCode labels a taxonomy error for response bodies and metrics. The
// conversational endpoint returns these alongside a 200 so clients can tell
// turn outcomes apart without parsing the prompt text.
func faultCode(err error) string {
	switch {
	case err == nil:
		return ""
	case domain.IsKind(err, domain.ErrNoMatch):
		return "no_match"
	case domain.IsKind(err, domain.ErrUnknownIdentifier):
		return "unknown_identifier"
	case domain.IsKind(err, domain.ErrCatalogUnavailable):
		return "catalog_unavailable"
	case domain.IsKind(err, domain.ErrDirectoryUnavailable):
		return "directory_unavailable"
	case domain.IsKind(err, domain.ErrDownloadFailed):
		return "download_failed"
	case domain.IsKind(err, domain.ErrSessionNotFound):
		return "session_not_found"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporary"
	default:
		return "internal"
	}
}
