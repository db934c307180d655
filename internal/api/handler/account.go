package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/herense/cloudsentinel/internal/api/middleware"
	"github.com/herense/cloudsentinel/internal/api/request"
	"github.com/herense/cloudsentinel/internal/api/response"
	"github.com/herense/cloudsentinel/internal/core"
)

type Account struct {
	svc         *core.AccountService
	resourceSvc *core.ResourceService
}

func NewAccount(svc *core.AccountService, resourceSvc *core.ResourceService) *Account {
	return &Account{svc: svc, resourceSvc: resourceSvc}
}

// Create godoc
//
//	@Summary		Register a cloud account
//	@Description	Stores a provider credential pair for the current user. The secret is envelope-encrypted at rest and never returned by any endpoint.
//	@Tags			Accounts
//	@Security		BearerAuth
//	@Param			body	body		request.CreateAccount	true	"Account details"
//	@Success		201		{object}	model.CloudAccount
//	@Failure		400		{object}	response.ErrorResponse
//	@Router			/accounts [post]
func (h *Account) Create(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentity(r.Context())

	var req request.CreateAccount
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.svc.Create(r.Context(), identity.UserID, core.CreateAccountParams{
		Name:        req.Name,
		Provider:    req.Provider,
		AccessKeyID: req.AccessKeyID,
		Secret:      req.Secret,
		TenantID:    req.TenantID,
	})
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, account)
}

// List godoc
//
//	@Summary		List cloud accounts
//	@Tags			Accounts
//	@Security		BearerAuth
//	@Success		200	{array}		model.CloudAccount
//	@Failure		401	{object}	response.ErrorResponse
//	@Router			/accounts [get]
func (h *Account) List(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentity(r.Context())

	accounts, err := h.svc.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, accounts)
}

// Delete godoc
//
//	@Summary		Delete a cloud account
//	@Description	Removes the account, its stored ciphertexts, and its resource inventory. Accounts not owned by the caller are reported the same as missing ones.
//	@Tags			Accounts
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Account ID"
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	response.ErrorResponse
//	@Router			/accounts/{id} [delete]
func (h *Account) Delete(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentity(r.Context())

	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id, identity.UserID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			response.WriteError(w, http.StatusBadRequest, "account not found")
			return
		}
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// TestConnection godoc
//
//	@Summary		Test account credentials
//	@Description	Decrypts the stored credential pair and calls the provider's identity endpoint. Returns the caller identity on success.
//	@Tags			Accounts
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Account ID"
//	@Success		200	{object}	cloud.Identity
//	@Failure		400	{object}	response.ErrorResponse
//	@Router			/accounts/{id}/test_connection [get]
func (h *Account) TestConnection(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentity(r.Context())

	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	callerIdentity, err := h.svc.TestConnection(r.Context(), id, identity.UserID)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, callerIdentity)
}

// ListResources godoc
//
//	@Summary		List inventoried resources
//	@Description	Returns the resource snapshot recorded by the account's most recent scans.
//	@Tags			Accounts
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Account ID"
//	@Success		200	{array}		model.CloudResource
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/accounts/{id}/resources [get]
func (h *Account) ListResources(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentity(r.Context())

	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	resources, err := h.resourceSvc.ListByAccount(r.Context(), id, identity.UserID)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, resources)
}
