package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/hopyard/hops/internal/hop"
	"github.com/hopyard/hops/internal/hop/service"
	"github.com/hopyard/hops/internal/sessions"
	"github.com/hopyard/hops/pkg/logger"
)

// Flash keys.
const (
	FlashCreateError = "create_error"
	FlashGetError    = "get_error"
)

// errUnavailable is flashed in place of errors visitors cannot act on.
const errUnavailable = "The hop catalog is unavailable right now, please try again later"

// Handler serves the hop catalog pages.
type Handler struct {
	svc   service.Service
	flash *sessions.Service
}

func NewHandler(svc service.Service, flash *sessions.Service) *Handler {
	return &Handler{svc: svc, flash: flash}
}

// Register mounts the catalog routes. Requests must pass through
// sessions.Middleware first.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.index)
	r.GET("/hops/new", h.newForm)
	r.POST("/hops", h.create)
	r.GET("/hops/:id", h.show)
	r.POST("/hops/:id", h.update)
	r.GET("/hops/edit/:id", h.editForm)
	r.GET("/hops/destroy/:id", h.destroy)
}

// flashMessages keeps store and driver details out of the page; they are
// logged by the caller.
func flashMessages(err error) []string {
	var ve *hop.ValidationError
	if errors.As(err, &ve) || errors.Is(err, hop.ErrNotFound) {
		return hop.Messages(err)
	}
	return []string{errUnavailable}
}

func (h *Handler) addFlash(c *gin.Context, key string, err error) {
	if ferr := h.flash.AddFlash(c.Request.Context(), sessions.ID(c), key, flashMessages(err)...); ferr != nil {
		logger.Errorf("flash %s: %v", key, ferr)
	}
}

func (h *Handler) flashes(c *gin.Context, key string) []string {
	msgs, err := h.flash.Flashes(c.Request.Context(), sessions.ID(c), key)
	if err != nil {
		logger.Errorf("read flash %s: %v", key, err)
	}
	return msgs
}

// logUnexpected logs errors that are neither validation failures nor misses.
func logUnexpected(op string, err error) {
	var ve *hop.ValidationError
	if errors.As(err, &ve) || errors.Is(err, hop.ErrNotFound) {
		logger.Debugf("%s: %v", op, err)
		return
	}
	logger.Errorf("%s: %v", op, err)
}

func (h *Handler) redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

func (h *Handler) index(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		logUnexpected("list hops", err)
		h.addFlash(c, FlashGetError, err)
		list = []*hop.Hop{}
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title":  "Hops Dashboard",
		"hops":   list,
		"errors": h.flashes(c, FlashGetError),
	})
}

func (h *Handler) newForm(c *gin.Context) {
	c.HTML(http.StatusOK, "new.html", gin.H{
		"title":     "Add a New Hop Variety",
		"input":     hop.Input{},
		"varieties": hop.Varieties,
		"errors":    h.flashes(c, FlashCreateError),
	})
}

func (h *Handler) create(c *gin.Context) {
	var in hop.Input
	if err := c.ShouldBindWith(&in, binding.Form); err != nil {
		logger.Warnf("bind hop form: %v", err)
		h.addFlash(c, FlashCreateError, err)
		h.redirect(c, "/hops/new")
		return
	}
	created, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		logUnexpected("create hop", err)
		h.addFlash(c, FlashCreateError, err)
		h.redirect(c, "/hops/new")
		return
	}
	logger.Infof("created hop %s (%s)", created.ID.Hex(), created.Name)
	h.redirect(c, "/")
}

func (h *Handler) show(c *gin.Context) {
	found, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		logUnexpected("get hop", err)
		h.addFlash(c, FlashGetError, err)
		h.redirect(c, "/")
		return
	}
	c.HTML(http.StatusOK, "show.html", gin.H{
		"title": "View Hop Variety page",
		"hop":   found,
	})
}

func (h *Handler) editForm(c *gin.Context) {
	found, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		logUnexpected("get hop", err)
		h.addFlash(c, FlashGetError, err)
		h.redirect(c, "/")
		return
	}
	c.HTML(http.StatusOK, "edit.html", gin.H{
		"title":     "Edit Hops page",
		"hop":       found,
		"input":     hop.InputFrom(found),
		"varieties": hop.Varieties,
		"errors":    h.flashes(c, FlashCreateError),
	})
}

func (h *Handler) update(c *gin.Context) {
	id := c.Param("id")
	var in hop.Input
	if err := c.ShouldBindWith(&in, binding.Form); err != nil {
		logger.Warnf("bind hop form: %v", err)
		h.addFlash(c, FlashCreateError, err)
		h.redirect(c, "/hops/edit/"+id)
		return
	}
	if _, err := h.svc.Update(c.Request.Context(), id, in); err != nil {
		logUnexpected("update hop", err)
		h.addFlash(c, FlashCreateError, err)
		h.redirect(c, "/hops/edit/"+id)
		return
	}
	h.redirect(c, "/hops/"+id)
}

// destroy never reports failures to the visitor; they are only logged.
func (h *Handler) destroy(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		logger.Errorf("delete hop %s: %v", c.Param("id"), err)
	}
	h.redirect(c, "/")
}
