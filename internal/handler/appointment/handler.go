package appointment

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/frontdesk/internal/handler"
	"github.com/jwalitptl/frontdesk/internal/model"
	"github.com/jwalitptl/frontdesk/internal/service/appointment"
	"github.com/jwalitptl/frontdesk/pkg/errors"
)

type Handler struct {
	service appointment.AppointmentService
	*handler.BaseHandler
}

func NewHandler(service appointment.AppointmentService, base *handler.BaseHandler) *Handler {
	return &Handler{
		service:     service,
		BaseHandler: base,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("/today", h.ListToday)
		appointments.GET("/create", h.NewAppointment)
		appointments.POST("/create", h.CreateAppointment)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/cancel", h.CancelAppointment)
	}
}

func (h *Handler) ListToday(c *gin.Context) {
	appointments, err := h.service.ListTodayAppointments(c.Request.Context())
	if err != nil {
		h.RenderError(c, err)
		return
	}
	h.Render(c, http.StatusOK, "appointments_today.html", "Today's appointments", gin.H{
		"Appointments": appointments,
		"Today":        h.service.Today(),
	})
}

// NewAppointment shows the booking form. Only Active patients are offered;
// ?patient_id= preselects one.
func (h *Handler) NewAppointment(c *gin.Context) {
	patients, err := h.service.ListBookablePatients(c.Request.Context())
	if err != nil {
		h.RenderError(c, err)
		return
	}
	h.Render(c, http.StatusOK, "appointments_create.html", "Schedule appointment", gin.H{
		"Patients": patients,
		"Selected": c.Query("patient_id"),
		"Now":      h.service.Today(),
	})
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBind(&req); err != nil {
		h.Fail(c, errors.Validation("Invalid form submission"), "/appointments/create")
		return
	}

	a, err := h.service.CreateAppointment(c.Request.Context(), &req)
	if err != nil {
		h.Fail(c, err, "/appointments/create")
		return
	}

	h.Succeed(c, fmt.Sprintf("Appointment scheduled successfully for %s!", a.PatientName), "/appointments/today")
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "appointment")
	if err != nil {
		h.RenderError(c, err)
		return
	}

	detail, err := h.service.GetAppointment(c.Request.Context(), id)
	if err != nil {
		h.RenderError(c, err)
		return
	}
	h.Render(c, http.StatusOK, "appointments_view.html", "Appointment", gin.H{"Detail": detail})
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "appointment")
	if err != nil {
		h.Fail(c, err, "/appointments/today")
		return
	}

	_, err = h.service.CancelAppointment(c.Request.Context(), id)
	switch {
	case errors.Is(err, errors.KindNotFound):
		h.Fail(c, err, "/appointments/today")
	case err != nil:
		h.Fail(c, err, "/appointments/"+id.String())
	default:
		h.Succeed(c, "Appointment cancelled successfully", "/appointments/today")
	}
}
