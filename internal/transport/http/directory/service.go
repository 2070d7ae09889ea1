// Package directory exposes the store directory over HTTP.
package directory

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mallguide-server-go/internal/domain/directory/aggregate"
	"mallguide-server-go/internal/domain/directory/service"
	"mallguide-server-go/internal/platform/errors"
	"mallguide-server-go/internal/platform/logging"
	httptransport "mallguide-server-go/internal/transport/http"
)

// Service is the HTTP face of the directory service.
type Service struct {
	directory *service.DirectoryService
	logger    *logging.Logger
}

func NewService(directory *service.DirectoryService, logger *logging.Logger) (*Service, error) {
	if directory == nil {
		return nil, errors.New(errors.KindConfig, "http.directory.new", "directory service is required")
	}
	return &Service{directory: directory, logger: logger}, nil
}

// Register mounts read routes on public and mutations on secured.
func (s *Service) Register(_ context.Context, public, secured *gin.RouterGroup) {
	secured.POST("/create-store", s.handleCreate)
	secured.DELETE("/delete-store/:id", s.handleDelete)

	public.GET("/get-stores", s.handleList)
	public.GET("/stores/:id", s.handleGet)
	public.GET("/artifacts", s.handleArtifactsByCategory)
	public.GET("/artifacts/:id", s.handleArtifact)
	public.GET("/categories", s.handleCategories)

	s.logger.InfoTag("HTTP", "directory routes registered")
}

// storeData is the nested shape the admin console posts.
type storeData struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Floor       string `json:"floor"`
	Phone       string `json:"phone"`
	Description string `json:"description"`
	MapLocation string `json:"mapLocation"`
}

// CreateRequest accepts either flat fields or {storeName, storeData}.
// Flat fields win when both are present. Any client id is ignored.
type CreateRequest struct {
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Phone       string     `json:"phone"`
	Floor       string     `json:"floor"`
	MapLocation string     `json:"mapLocation"`
	StoreName   string     `json:"storeName"`
	StoreData   *storeData `json:"storeData,omitempty"`
}

func (r CreateRequest) input() service.CreateInput {
	in := service.CreateInput{
		Name:        r.Name,
		Category:    r.Category,
		Description: r.Description,
		Phone:       r.Phone,
		Floor:       r.Floor,
		MapLocation: r.MapLocation,
	}
	in.Name = firstNonEmpty(in.Name, r.StoreName)
	if d := r.StoreData; d != nil {
		in.Category = firstNonEmpty(in.Category, d.Category)
		in.Description = firstNonEmpty(in.Description, d.Description)
		in.Phone = firstNonEmpty(in.Phone, d.Phone)
		in.Floor = firstNonEmpty(in.Floor, d.Floor)
		in.MapLocation = firstNonEmpty(in.MapLocation, d.MapLocation)
	}
	return in
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// handleCreate godoc
// @Summary Create a store
// @Description Validates the record, renders its display artifact and persists both.
// @Tags Directory
// @Accept json
// @Produce json
// @Param store body CreateRequest true "store record"
// @Success 200 {object} object
// @Failure 400 {object} object
// @Failure 409 {object} object
// @Failure 500 {object} object
// @Router /create-store [post]
func (s *Service) handleCreate(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.directory.Create(c.Request.Context(), req.input())
	if err != nil {
		httptransport.RespondError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": res.Message, "id": res.ID})
}

// handleDelete godoc
// @Summary Delete a store
// @Description Removes the record and its artifact. Unknown ids succeed.
// @Tags Directory
// @Produce json
// @Param id path string true "store id"
// @Success 200 {object} object
// @Failure 500 {object} object
// @Router /delete-store/{id} [delete]
func (s *Service) handleDelete(c *gin.Context) {
	id := c.Param("id")
	if err := s.directory.Delete(c.Request.Context(), id); err != nil {
		httptransport.RespondError(c, s.logger, err)
		return
	}
	httptransport.RespondMessage(c, http.StatusOK, "Store "+strings.TrimSpace(id)+" deleted successfully")
}

// handleList godoc
// @Summary List stores
// @Tags Directory
// @Produce json
// @Success 200 {object} object
// @Router /get-stores [get]
func (s *Service) handleList(c *gin.Context) {
	stores, err := s.directory.List(c.Request.Context())
	if err != nil {
		httptransport.RespondError(c, s.logger, err)
		return
	}
	if stores == nil {
		stores = []*aggregate.Store{}
	}
	c.JSON(http.StatusOK, gin.H{"stores": stores})
}

// @Summary Get a store
// @Tags Directory
// @Produce json
// @Param id path string true "store id"
// @Success 200 {object} object
// @Failure 404 {object} object
// @Router /stores/{id} [get]
func (s *Service) handleGet(c *gin.Context) {
	store, err := s.directory.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httptransport.RespondError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"store": store})
}

// handleArtifact serves a render descriptor with its digest as ETag.
// @Summary Get a display artifact
// @Tags Directory
// @Produce json
// @Param id path string true "store id"
// @Success 200 {object} aggregate.Artifact
// @Success 304
// @Failure 404 {object} object
// @Router /artifacts/{id} [get]
func (s *Service) handleArtifact(c *gin.Context) {
	artifact, err := s.directory.Artifact(c.Request.Context(), c.Param("id"))
	if err != nil {
		httptransport.RespondError(c, s.logger, err)
		return
	}

	etag := `"` + artifact.Digest + `"`
	c.Header("ETag", etag)
	if match := c.GetHeader("If-None-Match"); match != "" && etagMatches(match, etag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.JSON(http.StatusOK, artifact)
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// @Summary List artifacts of a category
// @Tags Directory
// @Produce json
// @Param category query string true "category name"
// @Success 200 {object} object
// @Failure 400 {object} object
// @Router /artifacts [get]
func (s *Service) handleArtifactsByCategory(c *gin.Context) {
	category := c.Query("category")
	if strings.TrimSpace(category) == "" {
		httptransport.RespondMessage(c, http.StatusBadRequest, "category query parameter is required")
		return
	}
	artifacts, err := s.directory.ArtifactsByCategory(c.Request.Context(), category)
	if err != nil {
		httptransport.RespondError(c, s.logger, err)
		return
	}
	if artifacts == nil {
		artifacts = []*aggregate.Artifact{}
	}
	c.JSON(http.StatusOK, gin.H{"artifacts": artifacts})
}

func (s *Service) handleCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": s.directory.Categories()})
}
