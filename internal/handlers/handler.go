package handlers

import (
	"time"

	"github.com/pocketbase/pocketbase/core"

	"ticket-manager/internal/services"
	"ticket-manager/monitoring"
)

type Options struct {
	// RejectSameUserSwap refuses swaps whose from and to users are equal
	// before the service sees them.
	RejectSameUserSwap bool
	// DefaultTeamSize applies when a request omits max_team_size.
	DefaultTeamSize int
}

// Handler serves the coordinator API.
type Handler struct {
	service  *services.TicketService
	sessions *services.SessionReader
	monitor  *monitoring.Monitor
	opts     Options
}

func NewHandler(service *services.TicketService, sessions *services.SessionReader, monitor *monitoring.Monitor, opts Options) *Handler {
	return &Handler{
		service:  service,
		sessions: sessions,
		monitor:  monitor,
		opts:     opts,
	}
}

// Register binds the API routes under /api/v1.
func (h *Handler) Register(se *core.ServeEvent, middlewares ...func(e *core.RequestEvent) error) {
	api := se.Router.Group("/api/v1")
	for _, m := range middlewares {
		api.BindFunc(m)
	}

	tickets := api.Group("/tickets")
	tickets.POST("/add-member", h.AddMember)
	tickets.POST("/swap-ticket", h.SwapTicket)
	tickets.GET("/info", h.GetTicketInfo)
	tickets.GET("/get-basic", h.GetBasicTicket)

	attendance := api.Group("/attendance")
	attendance.POST("/mark", h.MarkAttendance)
	attendance.POST("/mark-user", h.MarkUserAttendance)

	api.GET("/users/search", h.SearchUsers)
}

func (h *Handler) caller(e *core.RequestEvent) services.Caller {
	return h.sessions.Read(e.Request)
}

func (h *Handler) track(op string, start time.Time, err error) {
	if h.monitor != nil {
		h.monitor.TrackOperation(op, outcome(err), time.Since(start))
	}
}
