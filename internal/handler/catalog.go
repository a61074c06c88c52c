package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/sports-marketplace/internal/model"
    "github.com/iliyamo/sports-marketplace/internal/service"
)

// CatalogHandler serves the public catalog and the provider's own
// service management.
type CatalogHandler struct {
    Catalog Catalog
    Reviews Reviews
}

func NewCatalogHandler(catalog Catalog, reviews Reviews) *CatalogHandler {
    return &CatalogHandler{Catalog: catalog, Reviews: reviews}
}

type serviceReq struct {
    Name        string `json:"name"`
    Description string `json:"description"`
    Category    string `json:"category"`
    PriceCents  int64  `json:"price_cents"`
}

func (r serviceReq) input() service.ServiceInput {
    return service.ServiceInput{Name: r.Name, Description: r.Description, Category: r.Category, PriceCents: r.PriceCents}
}

type slotReq struct {
    Date      string `json:"date"`       // YYYY-MM-DD
    StartTime string `json:"start_time"` // HH:MM
    EndTime   string `json:"end_time"`   // HH:MM
    Capacity  int    `json:"capacity"`
}

// Browse: GET /v1/services?category=&provider_id=&page=&page_size=
func (h *CatalogHandler) Browse(c echo.Context) error {
    ctx, cancel := reqContext(c)
    defer cancel()
    page, err := h.Catalog.ListPublished(ctx, service.BrowseFilter{
        Category:   strings.ToLower(strings.TrimSpace(c.QueryParam("category"))),
        ProviderID: c.QueryParam("provider_id"),
    }, pageRequest(c))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, page)
}

// Show: GET /v1/services/:id.  Only published services are visible here.
func (h *CatalogHandler) Show(c echo.Context) error {
    ctx, cancel := reqContext(c)
    defer cancel()
    svc, err := h.Catalog.GetService(ctx, c.Param("id"))
    if err != nil {
        return err
    }
    if svc.Status != model.ServicePublished {
        return echo.NewHTTPError(http.StatusNotFound, "service not found")
    }
    return c.JSON(http.StatusOK, svc)
}

// Slots: GET /v1/services/:id/slots?from=YYYY-MM-DD
func (h *CatalogHandler) Slots(c echo.Context) error {
    from, err := optionalDate(c, "from")
    if err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    slots, err := h.Catalog.ListSlots(ctx, c.Param("id"), from)
    if err != nil {
        return err
    }
    if slots == nil {
        slots = []model.AvailabilitySlot{}
    }
    return c.JSON(http.StatusOK, echo.Map{"items": slots})
}

// ServiceReviews: GET /v1/services/:id/reviews
func (h *CatalogHandler) ServiceReviews(c echo.Context) error {
    ctx, cancel := reqContext(c)
    defer cancel()
    page, err := h.Reviews.ListForService(ctx, c.Param("id"), pageRequest(c))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, page)
}

// ----- provider -----

// Mine: GET /v1/provider/services
func (h *CatalogHandler) Mine(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    page, err := h.Catalog.ListMine(ctx, a, pageRequest(c))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, page)
}

// Create: POST /v1/provider/services
func (h *CatalogHandler) Create(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    var req serviceReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    svc, err := h.Catalog.CreateService(ctx, a, req.input())
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, svc)
}

// Update: PUT /v1/provider/services/:id
func (h *CatalogHandler) Update(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    var req serviceReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    svc, err := h.Catalog.UpdateService(ctx, a, c.Param("id"), req.input())
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, svc)
}

func (h *CatalogHandler) Pause(c echo.Context) error   { return h.change(c, h.Catalog.PauseService) }
func (h *CatalogHandler) Publish(c echo.Context) error { return h.change(c, h.Catalog.PublishService) }
func (h *CatalogHandler) Delete(c echo.Context) error  { return h.change(c, h.Catalog.DeleteService) }

type serviceChange func(ctx context.Context, actor service.Actor, id string) (model.Service, error)

func (h *CatalogHandler) change(c echo.Context, fn serviceChange) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    svc, err := fn(ctx, a, c.Param("id"))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, svc)
}

// AddSlot: POST /v1/provider/services/:id/slots
func (h *CatalogHandler) AddSlot(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    var req slotReq
    if err := bind(c, &req); err != nil {
        return err
    }
    date, err := model.ParseDate(req.Date)
    if err != nil {
        return badRequest(err.Error())
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    slot, err := h.Catalog.AddSlot(ctx, a, c.Param("id"), service.SlotInput{
        Date: date, StartTime: req.StartTime, EndTime: req.EndTime, Capacity: req.Capacity,
    })
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, slot)
}
