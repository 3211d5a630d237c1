package adaptor

import (
	"errors"
	"net/http"

	"bar-booking/internal/data/entity"
	"bar-booking/pkg/utils"
)

// respondDomainError maps a domain error to its HTTP status and stable
// code. Unrecognized errors become a 500.
func respondDomainError(w http.ResponseWriter, err error) {
	msg := err.Error()

	switch {
	case errors.Is(err, entity.ErrConflict):
		utils.ResponseConflict(w, utils.CodeConflict, msg)
	case errors.Is(err, entity.ErrInvalidState):
		utils.ResponseConflict(w, utils.CodeInvalidState, msg)
	case errors.Is(err, entity.ErrNotFound):
		utils.ResponseNotFound(w, msg)
	case errors.Is(err, entity.ErrExpired):
		utils.ResponseGone(w, utils.CodeExpired, msg)
	case errors.Is(err, entity.ErrInvalidToken):
		utils.ResponseUnprocessable(w, utils.CodeInvalidToken, msg)
	case errors.Is(err, entity.ErrPolicyViolation):
		utils.ResponseJSON(w, http.StatusForbidden, false, utils.CodePolicyViolation, msg, nil, nil)
	case errors.Is(err, entity.ErrValidation):
		utils.ResponseBadRequest(w, msg, nil)
	default:
		utils.ResponseInternalError(w, "Internal server error")
	}
}
