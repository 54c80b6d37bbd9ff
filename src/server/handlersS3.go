package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type (
	S3Handler struct {
		s3   ObjectStore
		meta MetadataStore
		log  *zap.SugaredLogger
	}

	StatsPayload struct {
		Bucket       string `json:"bucket"`
		Objects      *int   `json:"objects,omitempty"`
		ObjectsError string `json:"objects_error,omitempty"`
		Endpoint     string `json:"endpoint"`
		Users        *int64 `json:"users,omitempty"`
		UsersError   string `json:"users_error,omitempty"`
		Assets       *int64 `json:"assets,omitempty"`
		AssetsError  string `json:"assets_error,omitempty"`
	}
)

// presignExpiry is how long a download link stays valid.
const presignExpiry = 7 * 24 * time.Hour

func NewS3Handler(s3 ObjectStore, meta MetadataStore, log *zap.SugaredLogger) *S3Handler {
	return &S3Handler{
		s3:   s3,
		meta: meta,
		log:  log,
	}
}

// GetStats reports the bucket and table counts. Each count fails on its own.
func (s *S3Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	payload := StatsPayload{
		Bucket:   s.s3.BucketName(),
		Endpoint: s.meta.Endpoint(),
	}

	if n, err := s.s3.CountObjects(ctx); err != nil {
		s.log.Errorw("count objects failed", "error", err)
		payload.ObjectsError = "can not list bucket"
	} else {
		payload.Objects = &n
	}
	if n, err := s.meta.CountUsers(ctx); err != nil {
		s.log.Errorw("count users failed", "error", err)
		payload.UsersError = "database operation failed"
	} else {
		payload.Users = &n
	}
	if n, err := s.meta.CountAssets(ctx); err != nil {
		s.log.Errorw("count assets failed", "error", err)
		payload.AssetsError = "database operation failed"
	} else {
		payload.Assets = &n
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": payload})
}

// GetAsset redirects to a presigned download link for the asset.
func (s *S3Handler) GetAsset(c *gin.Context) {
	assetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "error", "error": "asset id must be a number"})
		return
	}

	loc, found, err := s.meta.FindAsset(c.Request.Context(), assetID)
	if err != nil {
		s.log.Errorw("find asset failed", "assetid", assetID, "error", err)
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"message": "error", "error": "can not look up asset"})
		return
	}
	if !found {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "error", "error": "no such asset"})
		return
	}

	link, err := s.s3.PresignedURL(c.Request.Context(), loc.BucketKey, presignExpiry)
	if err != nil {
		s.log.Errorw("presign failed", "assetid", assetID, "key", loc.BucketKey, "error", err)
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"message": "error", "error": "can not sign download link"})
		return
	}
	c.Redirect(http.StatusFound, link.String())
}
