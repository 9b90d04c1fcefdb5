package v1

import (
	"go_ipam/api/v1/ip_addresses"
	"go_ipam/api/v1/ip_blocks"
	"go_ipam/api/v1/ip_nats"
	"go_ipam/api/v1/networks"
	"go_ipam/api/v1/policies"
	"go_ipam/internal/httpx"
	"go_ipam/internal/ipam"

	"github.com/gin-gonic/gin"
)

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, svc *ipam.Service) {
	v1 := r.Group("/api/v1")
	{
		v1.GET("/ping", pingHandler)

		// IP blocks routes
		blocksHandler := ip_blocks.NewHandler(svc)
		blocksGroup := v1.Group("/ip-blocks")
		{
			blocksGroup.GET("", blocksHandler.List)
			blocksGroup.POST("", blocksHandler.Create)
			blocksGroup.GET("/:id", blocksHandler.Show)
			blocksGroup.PUT("/:id", blocksHandler.Update)
			blocksGroup.DELETE("/:id", blocksHandler.Delete)
			blocksGroup.GET("/:id/subnets", blocksHandler.ListSubnets)
			blocksGroup.POST("/:id/subnets", blocksHandler.CreateSubnet)
			blocksGroup.GET("/:id/siblings", blocksHandler.ListSiblings)

			// IP addresses routes, nested under a block
			addressesHandler := ip_addresses.NewHandler(svc)
			blocksGroup.POST("/:id/ip-addresses", addressesHandler.Allocate)
			blocksGroup.GET("/:id/ip-addresses", addressesHandler.List)
			blocksGroup.GET("/:id/ip-addresses/:address", addressesHandler.Show)
			blocksGroup.DELETE("/:id/ip-addresses/:address", addressesHandler.Deallocate)
			blocksGroup.PUT("/:id/ip-addresses/:address/restore", addressesHandler.Restore)

			// NAT association routes, nested under an address
			natsHandler := ip_nats.NewHandler(svc)
			blocksGroup.POST("/:id/ip-addresses/:address/inside-locals", natsHandler.AddInsideLocals)
			blocksGroup.GET("/:id/ip-addresses/:address/inside-locals", natsHandler.ListInsideLocals)
			blocksGroup.DELETE("/:id/ip-addresses/:address/inside-locals", natsHandler.DeleteInsideLocals)
			blocksGroup.POST("/:id/ip-addresses/:address/inside-globals", natsHandler.AddInsideGlobals)
			blocksGroup.GET("/:id/ip-addresses/:address/inside-globals", natsHandler.ListInsideGlobals)
			blocksGroup.DELETE("/:id/ip-addresses/:address/inside-globals", natsHandler.DeleteInsideGlobals)
		}

		// Policies routes
		policiesHandler := policies.NewHandler(svc)
		policiesGroup := v1.Group("/policies")
		{
			policiesGroup.GET("", policiesHandler.List)
			policiesGroup.POST("", policiesHandler.Create)
			policiesGroup.GET("/:id", policiesHandler.Show)
			policiesGroup.PUT("/:id", policiesHandler.Update)
			policiesGroup.DELETE("/:id", policiesHandler.Delete)
			policiesGroup.GET("/:id/unusable-ip-ranges", policiesHandler.ListRanges)
			policiesGroup.POST("/:id/unusable-ip-ranges", policiesHandler.CreateRange)
			policiesGroup.GET("/:id/unusable-ip-ranges/:rangeId", policiesHandler.ShowRange)
			policiesGroup.DELETE("/:id/unusable-ip-ranges/:rangeId", policiesHandler.DeleteRange)
			policiesGroup.GET("/:id/unusable-ip-octets", policiesHandler.ListOctets)
			policiesGroup.POST("/:id/unusable-ip-octets", policiesHandler.CreateOctet)
			policiesGroup.GET("/:id/unusable-ip-octets/:octetId", policiesHandler.ShowOctet)
			policiesGroup.DELETE("/:id/unusable-ip-octets/:octetId", policiesHandler.DeleteOctet)
		}

		// Networks routes
		networksHandler := networks.NewHandler(svc)
		networksGroup := v1.Group("/networks")
		{
			networksGroup.GET("/:id", networksHandler.Show)
			networksGroup.GET("/:id/ip-addresses", networksHandler.ListAddresses)
			networksGroup.POST("/:id/ip-allocations", networksHandler.Allocate)
			networksGroup.DELETE("/:id/ip-allocations", networksHandler.Deallocate)
		}
	}
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}
