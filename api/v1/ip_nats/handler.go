package ip_nats

import (
	"go_ipam/internal/httpx"
	"go_ipam/internal/ipam"
	"go_ipam/internal/model"

	"github.com/gin-gonic/gin"
)

// AddRequest represents add NAT association request. Each entry names an
// address and the block it lives in.
type AddRequest struct {
	Addresses []AddressRef `json:"addresses" binding:"required,min=1,dive"`
}

// AddressRef points at an allocated address inside a block
type AddressRef struct {
	IPBlockID string `json:"ipBlockId" binding:"required"`
	Address   string `json:"address" binding:"required"`
}

// ListRequest represents list NAT associations request
type ListRequest struct {
	Limit  int    `form:"limit"`
	Marker string `form:"marker"`
}

// DeleteRequest represents remove NAT associations request. An empty
// address removes every association on that side.
type DeleteRequest struct {
	Address string `form:"address"`
}

// Handler handles NAT association API, nested under an allocated address
type Handler struct {
	svc *ipam.Service
}

// NewHandler creates a new NAT associations handler
func NewHandler(svc *ipam.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ownAddress(c *gin.Context) (*model.IpAddress, *httpx.AppError) {
	block, err := h.svc.FindBlock(c.Param("id"))
	if err != nil {
		return nil, httpx.FromIPAMError(err)
	}
	ip, err := h.svc.FindAllocatedIP(block, c.Param("address"))
	if err != nil {
		return nil, httpx.FromIPAMError(err)
	}
	return ip, nil
}

// resolveRefs finds or allocates every referenced address, so an association
// can be declared before the far side was explicitly allocated.
func (h *Handler) resolveRefs(refs []AddressRef) ([]*model.IpAddress, *httpx.AppError) {
	ips := make([]*model.IpAddress, 0, len(refs))
	for _, ref := range refs {
		ip, err := h.svc.FindOrAllocateIP(ref.IPBlockID, ref.Address)
		if err != nil {
			return nil, httpx.FromIPAMError(err)
		}
		ips = append(ips, ip)
	}
	return ips, nil
}

// AddInsideLocals handles POST /api/v1/ip-blocks/:id/ip-addresses/:address/inside-locals
func (h *Handler) AddInsideLocals(c *gin.Context) {
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	globalIP, appErr := h.ownAddress(c)
	if appErr != nil {
		httpx.FailErr(c, appErr)
		return
	}
	locals, appErr := h.resolveRefs(req.Addresses)
	if appErr != nil {
		httpx.FailErr(c, appErr)
		return
	}

	if err := h.svc.AddInsideLocals(globalIP, locals); err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, locals)
}

// AddInsideGlobals handles POST /api/v1/ip-blocks/:id/ip-addresses/:address/inside-globals
func (h *Handler) AddInsideGlobals(c *gin.Context) {
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	localIP, appErr := h.ownAddress(c)
	if appErr != nil {
		httpx.FailErr(c, appErr)
		return
	}
	globals, appErr := h.resolveRefs(req.Addresses)
	if appErr != nil {
		httpx.FailErr(c, appErr)
		return
	}

	if err := h.svc.AddInsideGlobals(localIP, globals); err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, globals)
}

// ListInsideLocals handles GET /api/v1/ip-blocks/:id/ip-addresses/:address/inside-locals
func (h *Handler) ListInsideLocals(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	globalIP, appErr := h.ownAddress(c)
	if appErr != nil {
		httpx.FailErr(c, appErr)
		return
	}

	locals, err := h.svc.InsideLocals(globalIP, req.Limit, req.Marker)
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	nextMarker := ""
	if req.Limit > 0 && len(locals) == req.Limit {
		nextMarker = locals[len(locals)-1].ID
	}
	httpx.OKItems(c, locals, req.Limit, nextMarker)
}

// ListInsideGlobals handles GET /api/v1/ip-blocks/:id/ip-addresses/:address/inside-globals
func (h *Handler) ListInsideGlobals(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	localIP, appErr := h.ownAddress(c)
	if appErr != nil {
		httpx.FailErr(c, appErr)
		return
	}

	globals, err := h.svc.InsideGlobals(localIP, req.Limit, req.Marker)
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	nextMarker := ""
	if req.Limit > 0 && len(globals) == req.Limit {
		nextMarker = globals[len(globals)-1].ID
	}
	httpx.OKItems(c, globals, req.Limit, nextMarker)
}

// DeleteInsideLocals handles DELETE /api/v1/ip-blocks/:id/ip-addresses/:address/inside-locals
func (h *Handler) DeleteInsideLocals(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	globalIP, appErr := h.ownAddress(c)
	if appErr != nil {
		httpx.FailErr(c, appErr)
		return
	}

	if err := h.svc.RemoveInsideLocals(globalIP, req.Address); err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, nil)
}

// DeleteInsideGlobals handles DELETE /api/v1/ip-blocks/:id/ip-addresses/:address/inside-globals
func (h *Handler) DeleteInsideGlobals(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	localIP, appErr := h.ownAddress(c)
	if appErr != nil {
		httpx.FailErr(c, appErr)
		return
	}

	if err := h.svc.RemoveInsideGlobals(localIP, req.Address); err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, nil)
}
