package consultation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/frontdesk/internal/handler"
	"github.com/jwalitptl/frontdesk/internal/model"
	"github.com/jwalitptl/frontdesk/internal/service/consultation"
	"github.com/jwalitptl/frontdesk/pkg/errors"
)

type Handler struct {
	service consultation.ConsultationService
	*handler.BaseHandler
}

func NewHandler(service consultation.ConsultationService, base *handler.BaseHandler) *Handler {
	return &Handler{
		service:     service,
		BaseHandler: base,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	consultations := r.Group("/consultations")
	{
		consultations.GET("/new/:appointmentId", h.NewConsultation)
		consultations.POST("/new/:appointmentId", h.CreateConsultation)
		consultations.GET("/patient/:patientId", h.PatientHistory)
		consultations.GET("/:id", h.GetConsultation)
		consultations.GET("/:id/edit", h.EditForm)
		consultations.POST("/:id/edit", h.EditConsultation)
		consultations.POST("/:id/complete", h.CompleteConsultation)
	}
}

// failureTarget picks where a rejected submission goes: unknown records to
// today's list, form mistakes back to the form, refused transitions to view.
func failureTarget(err error, form, view string) string {
	switch {
	case errors.Is(err, errors.KindNotFound):
		return "/appointments/today"
	case errors.Is(err, errors.KindValidation) && errors.FieldOf(err) == "":
		return view
	default:
		return form
	}
}

// NewConsultation shows the form, or sends the user back to the appointment
// when it cannot take a consultation.
func (h *Handler) NewConsultation(c *gin.Context) {
	appointmentID, err := handler.ParseID(c, "appointmentId", "appointment")
	if err != nil {
		h.RenderError(c, err)
		return
	}

	detail, err := h.service.PrepareConsultation(c.Request.Context(), appointmentID)
	switch {
	case errors.Is(err, errors.KindValidation):
		h.Fail(c, err, "/appointments/"+appointmentID.String())
	case err != nil:
		h.RenderError(c, err)
	default:
		h.Render(c, http.StatusOK, "consultations_create.html", "New consultation", gin.H{"Detail": detail})
	}
}

func (h *Handler) CreateConsultation(c *gin.Context) {
	appointmentID, err := handler.ParseID(c, "appointmentId", "appointment")
	if err != nil {
		h.Fail(c, err, "/appointments/today")
		return
	}
	form := "/consultations/new/" + appointmentID.String()

	var req model.ConsultationRequest
	if err := c.ShouldBind(&req); err != nil {
		h.Fail(c, errors.Validation("Invalid form submission"), form)
		return
	}

	created, err := h.service.CreateConsultation(c.Request.Context(), appointmentID, &req)
	if err != nil {
		h.Fail(c, err, failureTarget(err, form, "/appointments/"+appointmentID.String()))
		return
	}
	h.Succeed(c, "Consultation created successfully in Draft status", "/consultations/"+created.ID.String())
}

func (h *Handler) GetConsultation(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "consultation")
	if err != nil {
		h.RenderError(c, err)
		return
	}

	detail, err := h.service.GetConsultation(c.Request.Context(), id)
	if err != nil {
		h.RenderError(c, err)
		return
	}
	h.Render(c, http.StatusOK, "consultations_view.html", "Consultation", gin.H{"Detail": detail})
}

func (h *Handler) EditForm(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "consultation")
	if err != nil {
		h.RenderError(c, err)
		return
	}

	detail, err := h.service.PrepareEdit(c.Request.Context(), id)
	switch {
	case errors.Is(err, errors.KindValidation):
		h.Fail(c, err, "/consultations/"+id.String())
	case err != nil:
		h.RenderError(c, err)
	default:
		h.Render(c, http.StatusOK, "consultations_edit.html", "Edit consultation", gin.H{"Detail": detail})
	}
}

func (h *Handler) EditConsultation(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "consultation")
	if err != nil {
		h.Fail(c, err, "/appointments/today")
		return
	}
	view := "/consultations/" + id.String()

	var req model.ConsultationRequest
	if err := c.ShouldBind(&req); err != nil {
		h.Fail(c, errors.Validation("Invalid form submission"), view+"/edit")
		return
	}

	if _, err := h.service.EditConsultation(c.Request.Context(), id, &req); err != nil {
		h.Fail(c, err, failureTarget(err, view+"/edit", view))
		return
	}
	h.Succeed(c, "Consultation updated successfully", view)
}

func (h *Handler) CompleteConsultation(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "consultation")
	if err != nil {
		h.Fail(c, err, "/appointments/today")
		return
	}
	view := "/consultations/" + id.String()

	if _, err := h.service.CompleteConsultation(c.Request.Context(), id); err != nil {
		h.Fail(c, err, failureTarget(err, view, view))
		return
	}
	h.Succeed(c, "Consultation marked as completed and appointment updated", view)
}

func (h *Handler) PatientHistory(c *gin.Context) {
	patientID, err := handler.ParseID(c, "patientId", "patient")
	if err != nil {
		h.RenderError(c, err)
		return
	}

	p, consultations, err := h.service.ListPatientConsultations(c.Request.Context(), patientID)
	if err != nil {
		h.RenderError(c, err)
		return
	}
	h.Render(c, http.StatusOK, "consultations_history.html", "Consultation history", gin.H{
		"Patient":       p,
		"Consultations": consultations,
	})
}
