// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/models"
)

// as attaches an identity the way RequireRole does
func as(req *http.Request, userID string, role models.Role) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{
		UserID:   userID,
		Username: "user-" + userID,
		Role:     role,
	}))
}

// withPath sets path values the router would extract
func withPath(req *http.Request, kv ...string) *http.Request {
	for i := 0; i+1 < len(kv); i += 2 {
		req.SetPathValue(kv[i], kv[i+1])
	}
	return req
}
