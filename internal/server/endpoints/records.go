package endpoints

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/intake/internal/api"
	"github.com/jackzampolin/intake/internal/patient"
	"github.com/jackzampolin/intake/internal/svcctx"
)

// RecordsResponse contains a list of patient records.
type RecordsResponse struct {
	Records []patient.Record `json:"records"`
	Total   int              `json:"total"`
}

// RecordResponse contains a single patient record.
type RecordResponse struct {
	Record patient.Record `json:"record"`
}

// ListRecordsEndpoint handles GET /api/records.
type ListRecordsEndpoint struct{}

func (e *ListRecordsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/records", e.handler
}

func (e *ListRecordsEndpoint) RequiresLLM() bool { return false }

func (e *ListRecordsEndpoint) CommandGroup() string { return "records" }

// handler godoc
//
//	@Summary	List patient records, most recent first
//	@Tags		records
//	@Produce	json
//	@Param		limit	query		int		false	"Maximum number of records to return"
//	@Param		offset	query		int		false	"Number of records to skip"
//	@Param		order	query		string	false	"Sort order: newest (default) or oldest"
//	@Success	200		{object}	RecordsResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/api/records [get]
func (e *ListRecordsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.StoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "record store not initialized")
		return
	}

	limit := 0
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %q must be a non-negative integer", v))
			return
		}
		limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid offset: %q must be a non-negative integer", v))
			return
		}
		offset = n
	}

	var records []patient.Record
	switch r.URL.Query().Get("order") {
	case "", "newest":
		records = store.Recent()
	case "oldest":
		records = store.All()
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid order: %q must be newest or oldest", r.URL.Query().Get("order")))
		return
	}
	if offset >= len(records) {
		records = nil
	} else {
		records = records[offset:]
	}
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	if records == nil {
		records = []patient.Record{}
	}

	writeJSON(w, http.StatusOK, RecordsResponse{
		Records: records,
		Total:   len(records),
	})
}

func (e *ListRecordsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var limit, offset int
	var order string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List patient records, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())

			params := url.Values{}
			if limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				params.Set("offset", strconv.Itoa(offset))
			}
			if order != "" {
				params.Set("order", order)
			}

			path := "/api/records"
			if len(params) > 0 {
				path += "?" + params.Encode()
			}

			var resp RecordsResponse
			if err := client.Get(ctx, path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Result offset")
	cmd.Flags().StringVar(&order, "order", "", "Sort order: newest or oldest")
	return cmd
}

// GetRecordEndpoint handles GET /api/records/{id}.
type GetRecordEndpoint struct{}

func (e *GetRecordEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/records/{id}", e.handler
}

func (e *GetRecordEndpoint) RequiresLLM() bool { return false }

func (e *GetRecordEndpoint) CommandGroup() string { return "records" }

// handler godoc
//
//	@Summary	Get a patient record by ID
//	@Tags		records
//	@Produce	json
//	@Param		id	path		int	true	"Record ID"
//	@Success	200	{object}	RecordResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/records/{id} [get]
func (e *GetRecordEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.StoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "record store not initialized")
		return
	}

	idStr := r.PathValue("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid record id: %q must be an integer", idStr))
		return
	}

	record, ok := store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("record not found: %d", id))
		return
	}

	writeJSON(w, http.StatusOK, RecordResponse{Record: record})
}

func (e *GetRecordEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a patient record by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())

			var resp RecordResponse
			if err := client.Get(ctx, "/api/records/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp.Record)
		},
	}
}
