package policies

import (
	"go_ipam/internal/httpx"
	"go_ipam/internal/ipam"

	"github.com/gin-gonic/gin"
)

// ListRequest represents list policies request
type ListRequest struct {
	TenantID string `form:"tenantId"`
	Limit    int    `form:"limit"`
	Marker   string `form:"marker"`
}

// CreateRequest represents create policy request
type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	TenantID    string `json:"tenantId"`
}

// UpdateRequest represents update policy request. Nil fields are untouched.
type UpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// RangeRequest represents create unusable range request. A negative offset
// counts back from the block's last address.
type RangeRequest struct {
	Offset int `json:"offset"`
	Length int `json:"length" binding:"required"`
}

// OctetRequest represents create unusable octet request
type OctetRequest struct {
	Octet *int `json:"octet" binding:"required"`
}

// Handler handles policies API
type Handler struct {
	svc *ipam.Service
}

// NewHandler creates a new policies handler
func NewHandler(svc *ipam.Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /api/v1/policies
func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	policies, err := h.svc.ListPolicies(req.TenantID, req.Limit, req.Marker)
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	nextMarker := ""
	if req.Limit > 0 && len(policies) == req.Limit {
		nextMarker = policies[len(policies)-1].ID
	}
	httpx.OKItems(c, policies, req.Limit, nextMarker)
}

// Create handles POST /api/v1/policies
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	policy, err := h.svc.CreatePolicy(ipam.PolicyParams{
		Name:        req.Name,
		Description: req.Description,
		TenantID:    req.TenantID,
	})
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, policy)
}

// Show handles GET /api/v1/policies/:id
func (h *Handler) Show(c *gin.Context) {
	policy, err := h.svc.FindPolicy(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, policy)
}

// Update handles PUT /api/v1/policies/:id
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	policy, err := h.svc.FindPolicy(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	if err := h.svc.UpdatePolicy(policy, req.Name, req.Description); err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, policy)
}

// Delete handles DELETE /api/v1/policies/:id
func (h *Handler) Delete(c *gin.Context) {
	policy, err := h.svc.FindPolicy(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	if err := h.svc.DeletePolicy(policy.ID); err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, nil)
}

// ListRanges handles GET /api/v1/policies/:id/unusable-ip-ranges
func (h *Handler) ListRanges(c *gin.Context) {
	policy, err := h.svc.FindPolicy(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	ranges, err := h.svc.PolicyRules(policy.ID).UnusableRanges()
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, ranges)
}

// CreateRange handles POST /api/v1/policies/:id/unusable-ip-ranges
func (h *Handler) CreateRange(c *gin.Context) {
	var req RangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	policy, err := h.svc.FindPolicy(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	ipRange, err := h.svc.CreateUnusableRange(policy, req.Offset, req.Length)
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, ipRange)
}

// ShowRange handles GET /api/v1/policies/:id/unusable-ip-ranges/:rangeId
func (h *Handler) ShowRange(c *gin.Context) {
	policy, err := h.svc.FindPolicy(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	ipRange, err := h.svc.FindIPRange(policy, c.Param("rangeId"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, ipRange)
}

// DeleteRange handles DELETE /api/v1/policies/:id/unusable-ip-ranges/:rangeId
func (h *Handler) DeleteRange(c *gin.Context) {
	policy, err := h.svc.FindPolicy(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	if _, err := h.svc.FindIPRange(policy, c.Param("rangeId")); err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	if err := h.svc.DeleteIPRange(policy, c.Param("rangeId")); err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, nil)
}

// ListOctets handles GET /api/v1/policies/:id/unusable-ip-octets
func (h *Handler) ListOctets(c *gin.Context) {
	policy, err := h.svc.FindPolicy(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	octets, err := h.svc.PolicyRules(policy.ID).UnusableOctets()
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, octets)
}

// CreateOctet handles POST /api/v1/policies/:id/unusable-ip-octets
func (h *Handler) CreateOctet(c *gin.Context) {
	var req OctetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	policy, err := h.svc.FindPolicy(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	ipOctet, err := h.svc.CreateUnusableOctet(policy, *req.Octet)
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, ipOctet)
}

// ShowOctet handles GET /api/v1/policies/:id/unusable-ip-octets/:octetId
func (h *Handler) ShowOctet(c *gin.Context) {
	policy, err := h.svc.FindPolicy(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	ipOctet, err := h.svc.FindIPOctet(policy, c.Param("octetId"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, ipOctet)
}

// DeleteOctet handles DELETE /api/v1/policies/:id/unusable-ip-octets/:octetId
func (h *Handler) DeleteOctet(c *gin.Context) {
	policy, err := h.svc.FindPolicy(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	if _, err := h.svc.FindIPOctet(policy, c.Param("octetId")); err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	if err := h.svc.DeleteIPOctet(policy, c.Param("octetId")); err != nil {
		httpx.FailErr(c, httpx.FromIPAMError(err))
		return
	}

	httpx.OK(c, nil)
}
