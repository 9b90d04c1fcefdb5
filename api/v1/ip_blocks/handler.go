package ip_blocks

import (
	"go_ipam/internal/httpx"
	"go_ipam/internal/ipam"

	"github.com/gin-gonic/gin"
)

// ListRequest represents list IP blocks request
type ListRequest struct {
	TenantID string `form:"tenantId"`
	Limit    int    `form:"limit"`
	Marker   string `form:"marker"`
}

// CreateRequest represents create IP block request
type CreateRequest struct {
	CIDR      string `json:"cidr" binding:"required"`
	Type      string `json:"type" binding:"required"`
	NetworkID string `json:"networkId"`
	TenantID  string `json:"tenantId"`
	ParentID  string `json:"parentId"`
	PolicyID  string `json:"policyId"`
	Gateway   string `json:"gateway"`
	DNS1      string `json:"dns1"`
	DNS2      string `json:"dns2"`
}

// UpdateRequest represents update IP block request. Nil fields are untouched.
type UpdateRequest struct {
	NetworkID *string `json:"networkId"`
	PolicyID  *string `json:"policyId"`
	Gateway   *string `json:"gateway"`
	DNS1      *string `json:"dns1"`
	DNS2      *string `json:"dns2"`
}

// SubnetRequest represents create subnet request
type SubnetRequest struct {
	CIDR      string `json:"cidr" binding:"required"`
	NetworkID string `json:"networkId"`
	TenantID  string `json:"tenantId"`
}

// BlockDTO augments a block row with its computed broadcast and netmask
type BlockDTO struct {
	ID        string `json:"id"`
	CIDR      string `json:"cidr"`
	Type      string `json:"type"`
	NetworkID string `json:"networkId"`
	TenantID  string `json:"tenantId"`
	ParentID  string `json:"parentId"`
	PolicyID  string `json:"policyId"`
	Gateway   string `json:"gateway"`
	DNS1      string `json:"dns1"`
	DNS2      string `json:"dns2"`
	IsFull    bool   `json:"isFull"`
	Broadcast string `json:"broadcast"`
	Netmask   string `json:"netmask"`
}

// Handler handles IP blocks API
type Handler struct {
	svc *ipam.Service
}

// NewHandler creates a new IP blocks handler
func NewHandler(svc *ipam.Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /api/v1/ip-blocks
func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	blocks, err := h.svc.ListBlocks(req.TenantID, req.Limit, req.Marker)
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	items := make([]*BlockDTO, 0, len(blocks))
	for i := range blocks {
		items = append(items, toBlockDTO(&blocks[i]))
	}
	nextMarker := ""
	if req.Limit > 0 && len(blocks) == req.Limit {
		nextMarker = blocks[len(blocks)-1].ID
	}
	httpx.OKItems(c, items, req.Limit, nextMarker)
}

// Create handles POST /api/v1/ip-blocks
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	block, err := h.svc.CreateBlock(ipam.BlockParams{
		CIDR:      req.CIDR,
		Type:      req.Type,
		NetworkID: req.NetworkID,
		TenantID:  req.TenantID,
		ParentID:  req.ParentID,
		PolicyID:  req.PolicyID,
		Gateway:   req.Gateway,
		DNS1:      req.DNS1,
		DNS2:      req.DNS2,
	})
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, toBlockDTO(block))
}

// Show handles GET /api/v1/ip-blocks/:id
func (h *Handler) Show(c *gin.Context) {
	block, err := h.svc.FindBlock(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, toBlockDTO(block))
}

// Update handles PUT /api/v1/ip-blocks/:id
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	block, err := h.svc.FindBlock(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	if err := h.svc.UpdateBlock(block, ipam.UpdateBlockParams{
		NetworkID: req.NetworkID,
		PolicyID:  req.PolicyID,
		Gateway:   req.Gateway,
		DNS1:      req.DNS1,
		DNS2:      req.DNS2,
	}); err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, toBlockDTO(block))
}

// Delete handles DELETE /api/v1/ip-blocks/:id
func (h *Handler) Delete(c *gin.Context) {
	block, err := h.svc.FindBlock(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	if err := h.svc.DeleteBlock(block.ID); err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, nil)
}

// ListSubnets handles GET /api/v1/ip-blocks/:id/subnets
func (h *Handler) ListSubnets(c *gin.Context) {
	block, err := h.svc.FindBlock(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	subnets, err := h.svc.Subnets(block)
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	items := make([]*BlockDTO, 0, len(subnets))
	for i := range subnets {
		items = append(items, toBlockDTO(&subnets[i]))
	}
	httpx.OK(c, items)
}

// CreateSubnet handles POST /api/v1/ip-blocks/:id/subnets
func (h *Handler) CreateSubnet(c *gin.Context) {
	var req SubnetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	parent, err := h.svc.FindBlock(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	subnet, err := h.svc.SubnetBlock(parent, req.CIDR, ipam.SubnetParams{
		NetworkID: req.NetworkID,
		TenantID:  req.TenantID,
	})
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, toBlockDTO(subnet))
}

// ListSiblings handles GET /api/v1/ip-blocks/:id/siblings
func (h *Handler) ListSiblings(c *gin.Context) {
	block, err := h.svc.FindBlock(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	siblings, err := h.svc.Siblings(block)
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	items := make([]*BlockDTO, 0, len(siblings))
	for i := range siblings {
		items = append(items, toBlockDTO(&siblings[i]))
	}
	httpx.OK(c, items)
}
