package server

import (
	"net/http"
	"strconv"

	"github.com/joseph-ayodele/receipt-processor/internal/common"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *HTTPHandler) exportReceipts(w http.ResponseWriter, r *http.Request) {
	log := common.LoggerFromContext(r.Context(), h.logger)

	xlsx, err := h.exporter.ExportXLSX(r.Context())
	if err != nil {
		log.Error("export.xlsx.failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "export failed", Code: common.CodeInternal})
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="receipts.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(xlsx)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(xlsx); err != nil {
		log.Warn("export.xlsx.write_failed", "err", err)
	}
}
