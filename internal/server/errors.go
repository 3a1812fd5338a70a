package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/masmgr/content-gateway/internal/content"
	"github.com/masmgr/content-gateway/internal/git"
)

// Error codes carried in error bodies.
const (
	CodeBranchNotFound = "branch_not_found"
	CodeNotFound       = "not_found"
	CodeInvalidRequest = "invalid_request"
	CodeInternal       = "internal"

	CodeMethodNotAllowed = "method_not_allowed"
)

// PortInUseError is returned when the listen address is already bound.
type PortInUseError struct {
	Addr string
	Err  error
}

func (e *PortInUseError) Error() string {
	return fmt.Sprintf("address %s already in use", e.Addr)
}

func (e *PortInUseError) Unwrap() error {
	return e.Err
}

// ErrorBody is the JSON document sent with every failed request.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps an error to its status and body. Messages of unexpected
// errors are never exposed since they may carry repository paths.
func classify(err error) (int, ErrorDetail) {
	var (
		branchErr  *git.BranchNotFoundError
		notFound   *content.NotFoundError
		invalidReq *content.InvalidRequestError
	)
	switch {
	case errors.As(err, &branchErr):
		return http.StatusNotFound, ErrorDetail{Code: CodeBranchNotFound, Message: branchErr.Error()}
	case errors.As(err, &notFound):
		return http.StatusNotFound, ErrorDetail{Code: CodeNotFound, Message: notFound.Error()}
	case errors.As(err, &invalidReq):
		return http.StatusBadRequest, ErrorDetail{Code: CodeInvalidRequest, Message: invalidReq.Error()}
	default:
		return http.StatusInternalServerError, ErrorDetail{Code: CodeInternal, Message: "internal error"}
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := classify(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	s.writeJSON(w, status, ErrorBody{Error: detail})
}

func invalidRequest(format string, args ...any) error {
	return &content.InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}
