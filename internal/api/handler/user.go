package handler

import (
	"net/http"

	mw "github.com/herense/cloudsentinel/internal/api/middleware"
	"github.com/herense/cloudsentinel/internal/api/response"
	"github.com/herense/cloudsentinel/internal/core"
)

type User struct {
	svc *core.UserService
}

func NewUser(svc *core.UserService) *User {
	return &User{svc: svc}
}

// Get godoc
//
//	@Summary		Get the current user
//	@Security		BearerAuth
//	@Tags			Users
//	@Success		200	{object}	model.User
//	@Failure		401	{object}	response.ErrorResponse
//	@Router			/user [get]
func (h *User) Get(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentity(r.Context())

	user, err := h.svc.Get(r.Context(), identity.UserID)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, user)
}
