package server

import (
	"net/http"

	app "photoapp/src/app"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AppHandler struct {
	meta MetadataStore
	log  *zap.SugaredLogger
}

func NewHandler(meta MetadataStore, log *zap.SugaredLogger) *AppHandler {
	return &AppHandler{
		meta: meta,
		log:  log,
	}
}

func (a *AppHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (a *AppHandler) GetUsers(c *gin.Context) {
	users, err := a.meta.ListUsers(c.Request.Context())
	if err != nil {
		a.log.Errorw("list users failed", "error", err)
		c.IndentedJSON(http.StatusInternalServerError,
			gin.H{"message": "error", "error": "can not fetch users from database"})
		return
	}
	if users == nil {
		users = []app.User{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": users})
}

func (a *AppHandler) GetAssets(c *gin.Context) {
	assets, err := a.meta.ListAssets(c.Request.Context())
	if err != nil {
		a.log.Errorw("list assets failed", "error", err)
		c.IndentedJSON(http.StatusInternalServerError,
			gin.H{"message": "error", "error": "can not fetch assets from database"})
		return
	}
	if assets == nil {
		assets = []app.Asset{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": assets})
}
