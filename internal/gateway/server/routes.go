package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alloclab/internal/gateway/handler"
	"alloclab/internal/gateway/middleware"
)

func NewMux(
	datasetHandler *handler.DatasetHandler,
	validationHandler *handler.ValidationHandler,
	watchHandler *handler.WatchHandler,
	exportHandler *handler.ExportHandler,
	rulesHandler *handler.RulesHandler,
	uploadsHandler *handler.UploadsHandler,
) http.Handler {
	mux := http.NewServeMux()

	// Dataset
	mux.HandleFunc("GET /api/dataset", datasetHandler.HandleGet)
	mux.HandleFunc("POST /api/dataset/{entity}", datasetHandler.HandleReplace)
	mux.HandleFunc("PUT /api/dataset/{entity}/{index}", datasetHandler.HandleUpdateRow)
	mux.HandleFunc("DELETE /api/dataset/{entity}/{index}", datasetHandler.HandleDeleteRow)

	// Validation & fixes
	mux.HandleFunc("POST /api/validate", validationHandler.HandleValidate)
	mux.HandleFunc("GET /api/validation/watch", watchHandler.HandleWatch)
	mux.HandleFunc("POST /api/fix/suggest", validationHandler.HandleSuggest)
	mux.HandleFunc("POST /api/fix/apply", validationHandler.HandleApply)
	mux.HandleFunc("POST /api/fix/bulk", validationHandler.HandleBulk)

	// Export
	mux.HandleFunc("GET /api/export", exportHandler.HandleExport)

	// Rules
	mux.HandleFunc("GET /api/rules", rulesHandler.HandleList)
	mux.HandleFunc("POST /api/rules", rulesHandler.HandleAdd)
	mux.HandleFunc("DELETE /api/rules/{id}", rulesHandler.HandleDelete)
	mux.HandleFunc("POST /api/rules/convert", rulesHandler.HandleConvert)

	// Uploads
	mux.HandleFunc("POST /api/uploads", uploadsHandler.HandleUpload)
	mux.HandleFunc("GET /api/uploads/{id}", uploadsHandler.HandleDownload)

	// Ops
	mux.HandleFunc("GET /healthz", handler.HandleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.CORS(mux)
}
