// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package api

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/freightlab/shipmart/internal/logging"
	"github.com/freightlab/shipmart/internal/models"
)

// respondJSON writes an APIResponse with a weak cache window and ETag.
// Mart data only changes on rebuild, so short-lived caching is safe.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Header().Set("Vary", "Accept-Encoding")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag creates a simple ETag from data using FNV-1a.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondError writes an error envelope and logs the underlying cause.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().
			Str("code", code).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error:    &models.APIError{Code: code, Message: message},
	})
}

// respondData writes a success envelope with a row count.
func respondData(w http.ResponseWriter, data any, count int) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now(), Count: count},
	})
}

// sanitizeLogValue strips newlines so request-derived values cannot
// forge extra log lines.
func sanitizeLogValue(v string) string {
	v = strings.ReplaceAll(v, "\n", " ")
	return strings.ReplaceAll(v, "\r", " ")
}

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// monthParam reads the optional ?month= filter. The empty string means
// no filter; anything else must look like "2024-01".
func monthParam(r *http.Request) (string, bool) {
	month := r.URL.Query().Get("month")
	if month == "" || monthPattern.MatchString(month) {
		return month, true
	}
	return "", false
}
