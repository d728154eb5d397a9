package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/newsfilter/src/catalog"
	"github.com/stake-plus/newsfilter/src/factcheck"
	"github.com/stake-plus/newsfilter/src/textutil"
	"go.uber.org/zap"
)

const defaultContextLabel = "api"

type Analyze struct {
	analyzer Analyzer
	logger   *zap.Logger
}

func NewAnalyze(analyzer Analyzer, logger *zap.Logger) Analyze {
	return Analyze{analyzer: analyzer, logger: logger}
}

// Create runs one message through the pipeline and returns category, comment and debug.
func (a Analyze) Create(c *gin.Context) {
	var req struct {
		Text    string `json:"text"    binding:"required"`
		Context string `json:"context"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	text := textutil.Clean(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "text is empty"})
		return
	}
	label := strings.TrimSpace(req.Context)
	if label == "" {
		label = defaultContextLabel
	}

	// A run outlives a disconnected client; its result is simply dropped.
	res, err := a.analyzer.Analyze(context.WithoutCancel(c.Request.Context()), text, label)
	if err != nil {
		a.logger.Error("analysis failed", zap.Error(err), zap.String("context", label))
		status := http.StatusInternalServerError
		if errors.Is(err, factcheck.ErrNilClient) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

type Catalog struct {
	cat    CatalogAdmin
	logger *zap.Logger
}

func NewCatalog(cat CatalogAdmin, logger *zap.Logger) Catalog {
	return Catalog{cat: cat, logger: logger}
}

type categoryView struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Domains     []string `json:"domains"`
}

// List returns the visible categories in catalog order.
func (h Catalog) List(c *gin.Context) {
	descriptions := h.cat.Categories()
	out := make([]categoryView, 0, len(descriptions))
	for _, name := range h.cat.Names() {
		domains := h.cat.DomainsForCategory(name)
		if domains == nil {
			domains = []string{}
		}
		out = append(out, categoryView{Name: name, Description: descriptions[name], Domains: domains})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

func (h Catalog) AddDomain(c *gin.Context) {
	var req struct {
		Category    string `json:"category"    binding:"required,max=64"`
		Domain      string `json:"domain"      binding:"required,max=255"`
		Description string `json:"description" binding:"max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	added, err := h.cat.AddDomain(c.Request.Context(), req.Category, req.Domain, req.Description)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info("catalog domain added",
		zap.String("admin", c.GetString("sub")),
		zap.String("category", req.Category),
		zap.String("domain", req.Domain),
		zap.Bool("added", added),
	)
	status := http.StatusCreated
	if !added {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"added": added})
}

func (h Catalog) RemoveDomain(c *gin.Context) {
	category, domain := c.Param("category"), c.Param("domain")
	removed, err := h.cat.RemoveDomain(c.Request.Context(), category, domain)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"err": "domain not in category"})
		return
	}
	h.logger.Info("catalog domain removed",
		zap.String("admin", c.GetString("sub")),
		zap.String("category", category),
		zap.String("domain", domain),
	)
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// fail maps validation errors to 400 and persistence errors to 500.
func (h Catalog) fail(c *gin.Context, err error) {
	if errors.Is(err, catalog.ErrInvalidDomain) || errors.Is(err, catalog.ErrCategoryRequired) {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	h.logger.Error("catalog update failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
}
