package networks

import (
	"go_ipam/internal/httpx"
	"go_ipam/internal/ipam"

	"github.com/gin-gonic/gin"
)

// AllocateRequest represents network-level allocation request. With explicit
// addresses each is placed in the containing block; without, one address per
// address family present is handed out.
type AllocateRequest struct {
	InterfaceID string   `json:"interfaceId" binding:"required"`
	Addresses   []string `json:"addresses"`
	TenantID    string   `json:"tenantId"`
	MacAddress  string   `json:"macAddress"`
}

// DeallocateRequest represents network-level deallocation request
type DeallocateRequest struct {
	InterfaceID string `form:"interfaceId" binding:"required"`
}

// Handler handles networks API
type Handler struct {
	svc *ipam.Service
}

// NewHandler creates a new networks handler
func NewHandler(svc *ipam.Service) *Handler {
	return &Handler{svc: svc}
}

// Show handles GET /api/v1/networks/:id
func (h *Handler) Show(c *gin.Context) {
	network, err := h.svc.FindNetwork(c.Param("id"), c.Query("tenantId"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, network)
}

// ListAddresses handles GET /api/v1/networks/:id/ip-addresses
func (h *Handler) ListAddresses(c *gin.Context) {
	network, err := h.svc.FindNetwork(c.Param("id"), c.Query("tenantId"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	ips, err := h.svc.FindAllAddressesInNetwork(network.ID)
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, ips)
}

// Allocate handles POST /api/v1/networks/:id/ip-allocations. An unknown
// network id is seeded with a default private block first.
func (h *Handler) Allocate(c *gin.Context) {
	var req AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	network, err := h.svc.FindOrCreateNetwork(c.Param("id"), req.TenantID)
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	ips, err := h.svc.AllocateNetworkIPs(network, ipam.NetworkAllocateParams{
		Addresses:   req.Addresses,
		InterfaceID: req.InterfaceID,
		TenantID:    req.TenantID,
		MacAddress:  req.MacAddress,
	})
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, ips)
}

// Deallocate handles DELETE /api/v1/networks/:id/ip-allocations
func (h *Handler) Deallocate(c *gin.Context) {
	var req DeallocateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	network, err := h.svc.FindNetwork(c.Param("id"), c.Query("tenantId"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	if err := h.svc.DeallocateNetworkIPs(network, req.InterfaceID); err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, nil)
}
