package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/FedericoTs/LinkedinAnalytics/pkg/common"
	pkgerrors "github.com/FedericoTs/LinkedinAnalytics/pkg/errors"
	"github.com/FedericoTs/LinkedinAnalytics/pkg/utils"
)

const maxBodyBytes = 1 << 20

// decodeAndValidate reads a JSON body into dst and checks its validate tags
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return pkgerrors.NewValidationError("Request body is required").WithCode(pkgerrors.CodeInvalidRequest)
		}
		return pkgerrors.NewValidationError("Invalid request body: " + err.Error()).WithCode(pkgerrors.CodeInvalidRequest)
	}
	return utils.ValidateStruct(dst)
}

func currentUserID(r *http.Request) (string, error) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		return "", pkgerrors.NewUnauthorizedError("Unauthorized").WithCode(pkgerrors.CodeMissingSession)
	}
	return userID, nil
}

func browserSessionID(r *http.Request) (string, error) {
	id, ok := common.GetBrowserSessionID(r.Context())
	if !ok {
		return "", pkgerrors.NewUnauthorizedError("Missing browser session").WithCode(pkgerrors.CodeMissingSession)
	}
	return id, nil
}
