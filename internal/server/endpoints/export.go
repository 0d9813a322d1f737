package endpoints

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/intake/internal/api"
	"github.com/jackzampolin/intake/internal/persist"
	"github.com/jackzampolin/intake/internal/svcctx"
)

// ExportEndpoint handles GET /api/export. It serves the current record set
// in the exact serialization written to the patient data file, so a
// download and the file on disk are byte-identical.
type ExportEndpoint struct{}

func (e *ExportEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/export", e.handler
}

func (e *ExportEndpoint) RequiresLLM() bool { return false }

func (e *ExportEndpoint) CommandGroup() string { return "" }

// handler godoc
//
//	@Summary	Download all patient records as a JSON file
//	@Tags		records
//	@Produce	json
//	@Success	200	{file}		file
//	@Failure	500	{object}	ErrorResponse
//	@Router		/api/export [get]
func (e *ExportEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.StoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "record store not initialized")
		return
	}

	data, err := persist.Marshal(store.All())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", persist.DataFileName))
	w.Write(data)
}

func (e *ExportEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download all patient records as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())

			data, err := client.GetRaw(ctx, "/api/export")
			if err != nil {
				return err
			}

			if outputFile != "" {
				if err := os.WriteFile(outputFile, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outputFile, err)
				}
				fmt.Printf("Wrote %d bytes to %s\n", len(data), outputFile)
				return nil
			}

			fmt.Println(string(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (default stdout)")
	return cmd
}
