package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/herense/cloudsentinel/internal/api/middleware"
	"github.com/herense/cloudsentinel/internal/api/request"
	"github.com/herense/cloudsentinel/internal/api/response"
	"github.com/herense/cloudsentinel/internal/core"
)

type Scan struct {
	svc *core.ScanService
}

func NewScan(svc *core.ScanService) *Scan {
	return &Scan{svc: svc}
}

// Dispatch godoc
//
//	@Summary		Start an account scan
//	@Description	Queues an asynchronous inventory scan of the account in the given region and returns immediately with a job ID.
//	@Tags			Scans
//	@Security		BearerAuth
//	@Param			id		path		string	true	"Account ID"
//	@Param			region	path		string	true	"Provider region"
//	@Success		202		{object}	model.ScanJob
//	@Failure		404		{object}	response.ErrorResponse
//	@Router			/accounts/{id}/scan-{region} [post]
func (h *Scan) Dispatch(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentity(r.Context())

	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	region, err := request.RequireID(chi.URLParam(r, "region"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.svc.Dispatch(r.Context(), id, identity.UserID, region)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// GetJob godoc
//
//	@Summary		Get scan job status
//	@Description	Returns the job's state and, once finished, its result summary or error message.
//	@Tags			Scans
//	@Security		BearerAuth
//	@Param			jobID	path		string	true	"Job ID"
//	@Success		200		{object}	model.ScanJob
//	@Failure		404		{object}	response.ErrorResponse
//	@Router			/scan/task/{jobID} [get]
func (h *Scan) GetJob(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentity(r.Context())

	jobID, err := request.RequireID(chi.URLParam(r, "jobID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.svc.GetJob(r.Context(), jobID, identity.UserID)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, job)
}
