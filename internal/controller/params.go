package controller

import (
	"strconv"
	"victorina_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// idParam parses a positive numeric path parameter, answering 400 otherwise.
func idParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// currentUser answers 401 when the request carries no claims.
func currentUser(ctx *gin.Context) (*util.Claims, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return nil, false
	}
	return claims, true
}

func pageQuery(ctx *gin.Context) (page, limit int) {
	return util.ParsePage(ctx.Query("page"), ctx.Query("limit"))
}
