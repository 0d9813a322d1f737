package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/intake/internal/api"
	"github.com/jackzampolin/intake/internal/extractor"
	"github.com/jackzampolin/intake/internal/patient"
	"github.com/jackzampolin/intake/internal/svcctx"
)

// ExtractRequest is the request body for an extraction.
type ExtractRequest struct {
	PatientText string `json:"patient_text"`
	// Provider optionally overrides the configured extraction provider.
	Provider string `json:"provider,omitempty"`
}

// ExtractResponse is the response for a successful extraction.
type ExtractResponse struct {
	Record patient.Record `json:"record"`
	// Warning is set when the record was extracted but could not be persisted.
	Warning string `json:"warning,omitempty"`
}

// ExtractEndpoint handles POST /api/extract. It runs the LLM extraction,
// appends the result to the record store, and persists the full store to
// the patient data file.
type ExtractEndpoint struct{}

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/extract", e.handler
}

func (e *ExtractEndpoint) RequiresLLM() bool { return true }

func (e *ExtractEndpoint) CommandGroup() string { return "" }

// handler godoc
//
//	@Summary		Extract structured patient info from free text
//	@Description	Runs LLM extraction on the complaint text, stores the resulting record, and saves all records to disk
//	@Tags			extraction
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ExtractRequest	true	"Patient complaint text"
//	@Success		200		{object}	ExtractResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/extract [post]
func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ext := svcctx.ExtractorFrom(r.Context())
	if ext == nil {
		writeError(w, http.StatusServiceUnavailable, "extractor not initialized")
		return
	}

	result, err := ext.ExtractWithProvider(r.Context(), req.Provider, req.PatientText)
	if err != nil {
		if _, ok := extractor.IsValidationError(err); ok {
			writeError(w, http.StatusBadRequest, err.Error())
		} else if _, ok := extractor.IsExtractionError(err); ok {
			writeError(w, http.StatusBadGateway, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	store := svcctx.StoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "record store not initialized")
		return
	}

	record := store.Append(req.PatientText, *result.Info)
	resp := ExtractResponse{Record: record}

	// A persistence failure keeps the record in memory and surfaces as a
	// warning rather than failing the extraction.
	if persister := svcctx.PersisterFrom(r.Context()); persister != nil {
		if err := persister.Write(store.All()); err != nil {
			if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
				logger.Warn("failed to persist patient records",
					"record_id", record.ID,
					"error", err)
			}
			resp.Warning = fmt.Sprintf("record %d saved in memory but not persisted: %v", record.ID, err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "extract <patient text>",
		Short: "Extract structured info from a patient complaint",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())

			req := ExtractRequest{
				PatientText: strings.Join(args, " "),
				Provider:    provider,
			}
			var resp ExtractResponse
			if err := client.Post(ctx, "/api/extract", req, &resp); err != nil {
				return err
			}

			if resp.Warning != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", resp.Warning)
			}
			return api.Output(resp.Record)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "Override the configured extraction provider")

	return cmd
}
