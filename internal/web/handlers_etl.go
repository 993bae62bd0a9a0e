package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/catalogsvc/internal/core"
	"github.com/JonMunkholm/catalogsvc/internal/logging"
	"github.com/dustin/go-humanize"
)

// multipartOverhead is headroom for boundaries and part headers on top of
// the file size limit.
const multipartOverhead = 1 << 20

// uploadDeadlineSlack is added to the import budget when extending the
// connection deadlines, to cover reading the form and writing the response.
const uploadDeadlineSlack = 30 * time.Second

// multipartMemory is how much of a form is held in memory before parts
// spill to temporary files.
const multipartMemory = 8 << 20

// importResponse is the body of a successful ETL upload.
type importResponse[T any] struct {
	Message string `json:"message"`
	*core.ImportResult[T]
}

// handleImportCatalogs loads catalogs from the multipart "file" part.
// Query: raise_on_error=true aborts on the first invalid row.
func (s *Server) handleImportCatalogs(w http.ResponseWriter, r *http.Request) {
	handleImport(s, w, r, s.service.ImportCatalogs)
}

// handleImportProducts loads products from the multipart "file" part.
// Catalog references are not checked.
func (s *Server) handleImportProducts(w http.ResponseWriter, r *http.Request) {
	handleImport(s, w, r, s.service.ImportProducts)
}

type importFunc[T any] func(context.Context, core.Upload, core.ImportOptions) (*core.ImportResult[T], error)

func handleImport[T any](s *Server, w http.ResponseWriter, r *http.Request, run importFunc[T]) {
	raise, err := parseBoolQuery(r, "raise_on_error")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.extendUploadDeadlines(w, r)

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			err = fmt.Errorf("%w: limit is %s", core.ErrFileTooLarge, humanize.Bytes(uint64(maxSize)))
		} else {
			err = fmt.Errorf("%w: invalid multipart form: %v", core.ErrValidation, err)
		}
		s.respondError(w, r, err)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: no file provided in form field %q", core.ErrValidation, "file"))
		return
	}
	defer file.Close()

	up := core.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	result, err := run(r.Context(), up, core.ImportOptions{RaiseOnError: raise})
	if err != nil {
		var details any
		var rowErr *core.RowError
		switch {
		case errors.As(err, &rowErr):
			details = rowErr
		case result != nil:
			details = result
		}
		s.respondErrorDetails(w, r, err, details)
		return
	}

	writeJSON(w, http.StatusOK, importResponse[T]{
		Message:      result.Message(),
		ImportResult: result,
	})
}

// extendUploadDeadlines lifts SERVER_READ_TIMEOUT and SERVER_WRITE_TIMEOUT
// for this connection so the import can use its full wait and run budget.
func (s *Server) extendUploadDeadlines(w http.ResponseWriter, r *http.Request) {
	budget := s.cfg.Upload.Timeout
	if budget <= 0 {
		return
	}
	deadline := time.Now().Add(s.cfg.Upload.MaxWaitTime + budget + uploadDeadlineSlack)

	rc := http.NewResponseController(w)
	if err := rc.SetReadDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logging.FromContext(r.Context()).Debug("extend read deadline", "error", err)
	}
	if err := rc.SetWriteDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logging.FromContext(r.Context()).Debug("extend write deadline", "error", err)
	}
}
