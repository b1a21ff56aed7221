package http

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"finanzas/internal/export"
	applog "finanzas/internal/log"
)

// defaultReportTitle names reports requested without a title.
const defaultReportTitle = "Transacciones"

// handleReport renders the filtered transaction history as a downloadable file.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	query := r.URL.Query()

	format := export.CSV
	if v := query.Get("format"); v != "" {
		if format, err = export.ParseFormat(v); err != nil {
			writeError(w, r, badRequestf("%v", err))
			return
		}
	}
	title := sanitizeInput(query.Get("title"))
	if title == "" {
		title = defaultReportTitle
	}
	filter, err := ParseTransactionFilter(query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	txs, err := s.svc.Transactions.History(r.Context(), userID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := s.now().In(s.loc)
	report := export.NewReport(title, txs, now)
	var buf bytes.Buffer
	if err := export.Write(&buf, format, report); err != nil {
		writeError(w, r, err)
		return
	}

	filename := export.FileName(title, now) + "." + string(format)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Report exported",
		applog.FieldUserID, userID,
		"format", format,
		"rows", len(report.Rows),
		"bytes", buf.Len())

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(filename, `"`, "")+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
