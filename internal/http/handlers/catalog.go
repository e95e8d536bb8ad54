package handlers

import (
	"net/http"

	"proai/internal/catalog"
)

type catalogResponse struct {
	Categories      any      `json:"categories"`
	Industries      []string `json:"industries"`
	OutputStyles    []string `json:"output_styles"`
	TargetPlatforms []string `json:"target_platforms"`
}

func (a *App) CatalogIndex(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, catalogResponse{
		Categories:      a.Catalog.Categories(),
		Industries:      catalog.Industries,
		OutputStyles:    catalog.OutputStyles,
		TargetPlatforms: catalog.TargetPlatforms,
	})
}
