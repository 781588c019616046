package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/api/responses"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/api/validators"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/internal/leads"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db/models"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/enums"
	pkgerrors "github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/errors"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/logger"
)

type registerLeadRequest struct {
	BuyerID           string  `json:"buyerId" validate:"required,uuid"`
	PropertyID        string  `json:"propertyId" validate:"required,uuid"`
	ContactPreference string  `json:"contactPreference" validate:"omitempty,oneof=phone email chat either"`
	Message           *string `json:"message" validate:"omitempty,max=2000"`
}

type registerLeadResponse struct {
	Lead       *models.Lead       `json:"lead"`
	Created    bool               `json:"created"`
	Assignment *models.Assignment `json:"assignment,omitempty"`
	Routed     bool               `json:"routed"`
}

// RegisterLead handles public buyer interest intake.
func RegisterLead(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "leads service unavailable"))
			return
		}

		var body registerLeadRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		buyerID, _ := uuid.Parse(body.BuyerID)
		propertyID, _ := uuid.Parse(body.PropertyID)
		params := leads.RegisterParams{
			BuyerID:    buyerID,
			PropertyID: propertyID,
			Message:    body.Message,
		}
		if preference := strings.TrimSpace(body.ContactPreference); preference != "" {
			params.ContactPreference = enums.ContactPreference(preference)
		}

		result, err := svc.Register(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := registerLeadResponse{Lead: result.Lead, Created: result.Created}
		if result.Routing != nil && result.Routing.Success {
			resp.Routed = true
			resp.Assignment = result.Routing.Assignment
		}
		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, resp)
	}
}

// ListUnroutedLeads returns the admin queue of leads with no live assignment.
func ListUnroutedLeads(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "leads service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := leads.ListUnroutedParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		result, err := svc.ListUnrouted(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
