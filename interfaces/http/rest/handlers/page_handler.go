package handlers

import (
	"net/http"

	"github.com/FedericoTs/LinkedinAnalytics/pkg/common"
	pkgerrors "github.com/FedericoTs/LinkedinAnalytics/pkg/errors"
)

// PageResponse tells the frontend that a protected view may render
type PageResponse struct {
	Page   string `json:"page"`
	UserID string `json:"user_id"`
}

// Page returns a handler for a protected view. It only runs once the route
// guard has let the request through.
func Page(name string, errorHandler *pkgerrors.ErrorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			errorHandler.Handle(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, PageResponse{Page: name, UserID: userID})
	}
}
