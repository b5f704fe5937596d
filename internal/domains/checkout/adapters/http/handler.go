package checkouthttp

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/adapters/http/mapper"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/ports"
	apierrors "github.com/Apurer/equipment-checkout/internal/shared/errors"
)

// IdempotencyKeyHeader lets clients retry create_staged_request without staging twice.
const IdempotencyKeyHeader = "Idempotency-Key"

// CheckoutAPI wires HTTP transport with the checkout service and workflows.
type CheckoutAPI struct {
	service   ports.Service
	workflows ports.WorkflowOrchestrator
	responder *apierrors.Responder
}

// NewCheckoutAPI creates a CheckoutAPI. workflows may be nil, in which case
// staging calls the service directly.
func NewCheckoutAPI(service ports.Service, workflows ports.WorkflowOrchestrator) *CheckoutAPI {
	return &CheckoutAPI{
		service:   service,
		workflows: workflows,
		responder: apierrors.NewResponder("", mapCheckoutError),
	}
}

// Register mounts the equipment checkout routes.
func (api *CheckoutAPI) Register(r gin.IRouter) {
	g := r.Group("/api/equipment")
	g.POST("/create_staged_request", api.CreateStagedRequest)
	g.GET("/get_all_staged_requests", api.GetAllStagedRequests)
	g.GET("/staged_requests/:id", api.GetStagedRequest)
	g.PUT("/update_staged_request", api.UpdateStagedRequest)
	g.PUT("/staged_requests/:id/selection", api.SelectEquipment)
	g.DELETE("/delete_staged_request", api.DeleteStagedRequest)
}

// NewRouter builds a gin engine with recovery and the checkout routes.
func NewRouter(api *CheckoutAPI, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)
	api.Register(router)
	return router
}

// Post /api/equipment/create_staged_request
func (api *CheckoutAPI) CreateStagedRequest(c *gin.Context) {
	var payload mapper.StagedCheckoutRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	staged, err := api.stage(c.Request.Context(), mapper.ToDomain(payload), key)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomain(staged))
}

func (api *CheckoutAPI) stage(ctx context.Context, req *domain.StagedCheckoutRequest, idempotencyKey string) (*domain.StagedCheckoutRequest, error) {
	if api.workflows != nil {
		return api.workflows.StageRequest(ctx, req, idempotencyKey)
	}
	return api.service.StageRequest(ctx, req, idempotencyKey)
}

// Get /api/equipment/get_all_staged_requests
func (api *CheckoutAPI) GetAllStagedRequests(c *gin.Context) {
	list, err := api.service.ListRequests(c.Request.Context())
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainList(list))
}

// Get /api/equipment/staged_requests/:id
func (api *CheckoutAPI) GetStagedRequest(c *gin.Context) {
	id, ok := api.parseIDParam(c)
	if !ok {
		return
	}
	req, err := api.service.GetRequest(c.Request.Context(), id)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomain(req))
}

// Put /api/equipment/update_staged_request
func (api *CheckoutAPI) UpdateStagedRequest(c *gin.Context) {
	payload, ok := api.bindIdentified(c)
	if !ok {
		return
	}
	updated, err := api.service.UpdateRequest(c.Request.Context(), mapper.ToDomain(payload))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomain(updated))
}

// Put /api/equipment/staged_requests/:id/selection
func (api *CheckoutAPI) SelectEquipment(c *gin.Context) {
	id, ok := api.parseIDParam(c)
	if !ok {
		return
	}
	var payload mapper.Selection
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	updated, err := api.service.SelectEquipment(c.Request.Context(), id, *payload.SelectedID)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomain(updated))
}

// Delete /api/equipment/delete_staged_request
// The body carries the staged request; only its id is used.
func (api *CheckoutAPI) DeleteStagedRequest(c *gin.Context) {
	payload, ok := api.bindIdentified(c)
	if !ok {
		return
	}
	if err := api.service.DeleteRequest(c.Request.Context(), payload.ID); err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (api *CheckoutAPI) bindIdentified(c *gin.Context) (mapper.StagedCheckoutRequest, bool) {
	var payload mapper.StagedCheckoutRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return payload, false
	}
	if payload.ID <= 0 {
		api.responder.BadRequest(c, "id must be a positive integer")
		return payload, false
	}
	return payload, true
}

func (api *CheckoutAPI) parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		api.responder.BadRequest(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
