package ip_addresses

import (
	"go_ipam/internal/httpx"
	"go_ipam/internal/ipam"

	"github.com/gin-gonic/gin"
)

// AllocateRequest represents allocate IP address request. Address pins a
// specific address; when empty the engine picks the next free one.
type AllocateRequest struct {
	Address     string `json:"address"`
	TenantID    string `json:"tenantId"`
	InterfaceID string `json:"interfaceId"`
	MacAddress  string `json:"macAddress"`
}

// Handler handles IP addresses API, nested under an IP block
type Handler struct {
	svc *ipam.Service
}

// NewHandler creates a new IP addresses handler
func NewHandler(svc *ipam.Service) *Handler {
	return &Handler{svc: svc}
}

// Allocate handles POST /api/v1/ip-blocks/:id/ip-addresses
func (h *Handler) Allocate(c *gin.Context) {
	var req AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	block, err := h.svc.FindBlock(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	ip, err := h.svc.AllocateIP(block, ipam.AllocateParams{
		Address:     req.Address,
		TenantID:    req.TenantID,
		InterfaceID: req.InterfaceID,
		MacAddress:  req.MacAddress,
	})
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, ip)
}

// List handles GET /api/v1/ip-blocks/:id/ip-addresses
func (h *Handler) List(c *gin.Context) {
	block, err := h.svc.FindBlock(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	ips, err := h.svc.BlockAddresses(block)
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, ips)
}

// Show handles GET /api/v1/ip-blocks/:id/ip-addresses/:address
func (h *Handler) Show(c *gin.Context) {
	block, err := h.svc.FindBlock(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	ip, err := h.svc.FindAllocatedIP(block, c.Param("address"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, ip)
}

// Deallocate handles DELETE /api/v1/ip-blocks/:id/ip-addresses/:address.
// The address row survives until the sweeper purges it.
func (h *Handler) Deallocate(c *gin.Context) {
	block, err := h.svc.FindBlock(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	ip, err := h.svc.FindAllocatedIP(block, c.Param("address"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	if err := h.svc.DeallocateIP(ip); err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, nil)
}

// Restore handles PUT /api/v1/ip-blocks/:id/ip-addresses/:address/restore
func (h *Handler) Restore(c *gin.Context) {
	block, err := h.svc.FindBlock(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	ip, err := h.svc.FindAllocatedIP(block, c.Param("address"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	if err := h.svc.RestoreIP(ip); err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, ip)
}
