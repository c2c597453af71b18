package userprofile

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/healthgateway/gateway/internal/platform/audit"
	"github.com/healthgateway/gateway/internal/platform/authz"
	"github.com/healthgateway/gateway/pkg/pagination"
)

// AuditLister reads the access trail for a patient.
type AuditLister interface {
	ListByResource(ctx context.Context, resourceID string, limit, offset int) ([]*audit.Event, int, error)
}

type Handler struct {
	svc     *Service
	audit   AuditLister
	idParam string
}

// NewHandler builds the profile handlers. idParam is the route and query key
// that carries the patient identifier, matching the engine's resolver.
func NewHandler(svc *Service, lister AuditLister, idParam string) *Handler {
	return &Handler{svc: svc, audit: lister, idParam: idParam}
}

func (h *Handler) RegisterRoutes(api *echo.Group, en *authz.Enforcer) {
	byID := "/UserProfile/:" + h.idParam

	api.GET(byID, h.GetProfile, en.Require(authz.PolicyPatientRead))
	api.PUT(byID, h.UpdateProfile, en.Require(authz.PolicyPatientWrite))
	api.POST(byID+"/login", h.RecordLogin, en.Require(authz.PolicyPatientWrite))
	api.GET("/UserProfile", h.FindProfile, en.Require(authz.PolicyPatientReadQuery))
	api.POST("/UserProfile", h.CreateProfile, en.Require(authz.PolicyPatientWriteBody))
	if h.audit != nil {
		api.GET(byID+"/audit", h.ListAccess, en.Require(authz.PolicyPatientRead))
	}
}

func (h *Handler) GetProfile(c echo.Context) error {
	return h.get(c, c.Param(h.idParam))
}

func (h *Handler) FindProfile(c echo.Context) error {
	hdid := c.QueryParam(h.idParam)
	if hdid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, h.idParam+" query parameter is required")
	}
	return h.get(c, hdid)
}

func (h *Handler) get(c echo.Context, hdid string) error {
	p, err := h.svc.Get(c.Request().Context(), hdid)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreateProfile(c echo.Context) error {
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p.HDID != authz.ResourceID(c) {
		return echo.NewHTTPError(http.StatusBadRequest, "hdid in body does not match the authorized patient")
	}
	if err := h.svc.Upsert(c.Request().Context(), &p); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	hdid := c.Param(h.idParam)
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p.HDID != "" && p.HDID != hdid {
		return echo.NewHTTPError(http.StatusBadRequest, "hdid in body does not match the route")
	}
	p.HDID = hdid
	if err := h.svc.Upsert(c.Request().Context(), &p); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) RecordLogin(c echo.Context) error {
	p, err := h.svc.RecordLogin(c.Request().Context(), c.Param(h.idParam))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListAccess(c echo.Context) error {
	pg := pagination.FromContext(c)
	events, total, err := h.audit.ListByResource(c.Request().Context(), c.Param(h.idParam), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list access events")
	}
	if events == nil {
		events = []*audit.Event{}
	}
	resp := pagination.NewResponse(events, total, pg.Limit, pg.Offset)
	resp.Links = pg.Links(c.Request().URL.Path, total)
	return c.JSON(http.StatusOK, resp)
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user profile not found")
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "user profile storage failed")
	}
}
