// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package web

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the chat and dashboard endpoints on the router group.
//
// Description:
//
//	Registers:
//	  - POST /chat              conversational assistant entry point
//	  - GET  /health            liveness probe with the brand name
//	  - GET  /data/menu         menu items keyed by item ID
//	  - GET  /data/orders       orders keyed by order ID
//	  - GET  /data/customers    customers keyed by customer ID
//	  - GET  /data/feedback     feedback log, oldest first
//	  - GET  /site/settings     storefront settings
//	  - POST /data/update       sparse update for menu, orders, site_settings
//	  - POST /data/add          insert for menu and customers
//	  - POST /data/delete       delete, menu only
//
// Inputs:
//   - rg: The gin router group to mount under (typically "/api").
//   - handlers: The initialized Handlers struct.
//
// Outputs:
//   - None.
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.POST("/chat", handlers.Chat)
	rg.GET("/health", handlers.Health)

	data := rg.Group("/data")
	{
		data.GET("/menu", handlers.Menu)
		data.GET("/orders", handlers.Orders)
		data.GET("/customers", handlers.Customers)
		data.GET("/feedback", handlers.Feedback)
		data.POST("/update", handlers.Update)
		data.POST("/add", handlers.Add)
		data.POST("/delete", handlers.Delete)
	}

	rg.GET("/site/settings", handlers.Settings)
}
