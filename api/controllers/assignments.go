package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/api/responses"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/api/validators"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/internal/leads"
	pkgerrors "github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/errors"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/logger"
)

type acceptAssignmentRequest struct {
	AgentID string `json:"agentId" validate:"required,uuid"`
}

// AcceptAssignment marks an assignment accepted by its agent.
func AcceptAssignment(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "leads service unavailable"))
			return
		}

		assignmentID, err := uuid.Parse(chi.URLParam(r, "assignmentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid assignment id"))
			return
		}

		var body acceptAssignmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		agentID, _ := uuid.Parse(body.AgentID)

		assignment, err := svc.Accept(r.Context(), assignmentID, agentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}
