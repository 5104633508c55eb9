package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/novotnytom/ocrinvoices/internal/converter"
)

// ConvertZasilkovna transcodes uploaded settlement files and streams back a
// zip of the converted statements.
func (s *Server) ConvertZasilkovna(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		AbortWithError(c, newValidationError("missing_files", "at least one file is required"))
		return
	}

	uploads := make([]converter.Upload, 0, len(files))
	for _, file := range files {
		f, err := file.Open()
		if err != nil {
			AbortWithError(c, err)
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			AbortWithError(c, err)
			return
		}
		uploads = append(uploads, converter.Upload{
			Filename: file.Filename,
			Content:  content,
		})
	}

	archive, err := s.converterSvc.Zasilkovna(c.Request.Context(), uploads)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=converted_zasilkovna.zip")
	c.Data(http.StatusOK, "application/zip", archive)
}
