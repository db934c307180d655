package handler

import (
	"net/http"

	"github.com/herense/cloudsentinel/internal/api/request"
	"github.com/herense/cloudsentinel/internal/api/response"
	"github.com/herense/cloudsentinel/internal/core"
)

type Auth struct {
	svc *core.UserService
}

func NewAuth(svc *core.UserService) *Auth {
	return &Auth{svc: svc}
}

// Register godoc
//
//	@Summary		Register a user
//	@Description	Creates a user account. The password is bcrypt-hashed before storage.
//	@Tags			Auth
//	@Param			body	body		request.RegisterUser	true	"User details"
//	@Success		201		{object}	model.User
//	@Failure		400		{object}	response.ErrorResponse
//	@Router			/auth/register [post]
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterUser
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.svc.Register(r.Context(), core.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
	})
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, user)
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Verifies the email/password pair and returns a fresh bearer token. Issuing a new token invalidates the previous one.
//	@Tags			Auth
//	@Param			body	body		request.Login	true	"Credentials"
//	@Success		200		{object}	map[string]string
//	@Failure		401		{object}	response.ErrorResponse
//	@Router			/auth/login [post]
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req request.Login
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}
