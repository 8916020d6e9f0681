package api

import (
	stderrors "errors"
	"io"
	"mime"
	"net/http"

	"golang-bank-transaction-service/internal/models"
	"golang-bank-transaction-service/internal/query"
	"golang-bank-transaction-service/pkg/errors"
	"golang-bank-transaction-service/pkg/logger"
)

const (
	uploadField    = "file"
	csvContentType = "text/csv"

	headerRunID    = "X-Ingest-Run-ID"
	headerDegraded = "X-Ingest-Degraded"
)

func (s *Server) handleByUser(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	date, err := parseDateParam(values)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	txType, err := parseTypeParam(values)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := parsePageParams(values, s.config.DefaultPageSize, s.config.MaxPageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.finder.FindByUser(r.Context(), query.UserFilter{TransactionDate: date, TransactionType: txType}, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MapPage(result, (*models.BankTransaction).View))
}

func (s *Server) handleByBank(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	date, err := parseDateParam(values)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	txType, err := parseTypeParam(values)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	bankCode, err := parseBankCodeParam(values)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := parsePageParams(values, s.config.DefaultPageSize, s.config.MaxPageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filter := query.BankFilter{TransactionDate: date, TransactionType: txType, BankCode: bankCode}
	result, err := s.finder.FindByBank(r.Context(), filter, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MapPage(result, (*models.BankTransaction).View))
}

// handlePersistCSV streams the "file" part into the ingestion engine without
// buffering the upload. The response body is the inserted row count.
func (s *Server) handlePersistCSV(w http.ResponseWriter, r *http.Request) {
	reader, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, r, errors.InvalidParameter("Content-Type", r.Header.Get("Content-Type"), err).
			WithSuggestion("send the file as multipart/form-data"))
		return
	}

	for {
		part, err := reader.NextPart()
		if stderrors.Is(err, io.EOF) {
			s.writeError(w, r, errors.InvalidParameter(uploadField, "", nil).
				WithSuggestion("attach the csv file in a multipart field named 'file'"))
			return
		}
		if err != nil {
			s.writeError(w, r, errors.StreamReadError(0, err))
			return
		}

		if part.FormName() != uploadField {
			_ = part.Close()
			continue
		}

		contentType := part.Header.Get("Content-Type")
		if mediaType, _, err := mime.ParseMediaType(contentType); err != nil || mediaType != csvContentType {
			_ = part.Close()
			s.writeError(w, r, errors.UnsupportedFileType(contentType))
			return
		}

		summary, err := s.ingester.Ingest(r.Context(), part)
		_ = part.Close()
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		requestLogger(r.Context(), s.logger).WithFields(logger.Fields{
			"run_id":   summary.RunID,
			"filename": part.FileName(),
			"inserted": summary.Inserted,
			"degraded": summary.Degraded,
			"duration": summary.Duration.String(),
		}).Info("CSV persisted")

		w.Header().Set(headerRunID, summary.RunID)
		if summary.Degraded {
			w.Header().Set(headerDegraded, "true")
		}
		writeJSON(w, http.StatusOK, summary.Inserted)
		return
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
