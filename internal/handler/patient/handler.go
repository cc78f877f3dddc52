package patient

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/frontdesk/internal/handler"
	"github.com/jwalitptl/frontdesk/internal/model"
	"github.com/jwalitptl/frontdesk/internal/service/patient"
	"github.com/jwalitptl/frontdesk/pkg/errors"
)

type Handler struct {
	service patient.PatientService
	*handler.BaseHandler
}

func NewHandler(service patient.PatientService, base *handler.BaseHandler) *Handler {
	return &Handler{
		service:     service,
		BaseHandler: base,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	patients := r.Group("/patients")
	{
		patients.GET("", h.ListPatients)
		patients.GET("/create", h.NewPatient)
		patients.POST("/create", h.CreatePatient)
		patients.GET("/:id", h.GetPatient)
		patients.GET("/:id/edit", h.EditPatient)
		patients.POST("/:id/edit", h.UpdatePatientStatus)
	}
}

func (h *Handler) ListPatients(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))
	patients, err := h.service.ListPatients(c.Request.Context(), &model.PatientFilters{SearchTerm: search})
	if err != nil {
		h.RenderError(c, err)
		return
	}
	h.Render(c, http.StatusOK, "patients_list.html", "Patients", gin.H{
		"Patients": patients,
		"Search":   search,
	})
}

func (h *Handler) NewPatient(c *gin.Context) {
	h.Render(c, http.StatusOK, "patients_create.html", "Register patient", nil)
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if err := c.ShouldBind(&req); err != nil {
		h.Fail(c, errors.Validation("Invalid form submission"), "/patients/create")
		return
	}

	p, err := h.service.CreatePatient(c.Request.Context(), &req)
	if err != nil {
		h.Fail(c, err, "/patients/create")
		return
	}
	h.Succeed(c, fmt.Sprintf("Patient %s created successfully!", p.Name), "/patients")
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "patient")
	if err != nil {
		h.RenderError(c, err)
		return
	}

	p, err := h.service.GetPatient(c.Request.Context(), id)
	if err != nil {
		h.RenderError(c, err)
		return
	}
	h.Render(c, http.StatusOK, "patients_view.html", p.Name, gin.H{"Patient": p})
}

func (h *Handler) EditPatient(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "patient")
	if err != nil {
		h.RenderError(c, err)
		return
	}

	p, err := h.service.GetPatient(c.Request.Context(), id)
	if err != nil {
		h.RenderError(c, err)
		return
	}
	h.Render(c, http.StatusOK, "patients_edit.html", "Edit "+p.Name, gin.H{"Patient": p})
}

func (h *Handler) UpdatePatientStatus(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "patient")
	if err != nil {
		h.Fail(c, err, "/patients")
		return
	}
	back := "/patients/" + id.String()

	var req model.UpdatePatientStatusRequest
	if err := c.ShouldBind(&req); err != nil {
		h.Fail(c, errors.Validation("Invalid form submission"), back+"/edit")
		return
	}

	p, err := h.service.UpdatePatientStatus(c.Request.Context(), id, &req)
	switch {
	case errors.Is(err, errors.KindNotFound):
		h.Fail(c, err, "/patients")
	case err != nil:
		h.Fail(c, err, back+"/edit")
	default:
		h.Succeed(c, fmt.Sprintf("Patient status updated to %s", p.Status), back)
	}
}
