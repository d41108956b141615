package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ccollicutt/ifextract/pkg/config"
	"github.com/ccollicutt/ifextract/pkg/objstore"
	"github.com/ccollicutt/ifextract/pkg/output"
	"github.com/ccollicutt/ifextract/pkg/store"
	"github.com/ccollicutt/ifextract/pkg/transcript"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SuccessResponse wraps successful JSON results.
type SuccessResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ExtractResponse is the data of a JSON extraction response.
type ExtractResponse struct {
	Report    *output.Report   `json:"report"`
	RunID     uint             `json:"run_id,omitempty"`
	Export    *objstore.Object `json:"export,omitempty"`
	Published bool             `json:"published"`
}

func fail(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: msg})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{
		Code:    "SUCCESS",
		Message: "ok",
		Data: gin.H{
			"version": s.version,
			"store":   s.pipeline.Store() != nil,
		},
	})
}

// extract accepts a transcript as the raw request body or as the "file"
// field of a multipart form.
//
// Query parameters: format (json|csv|xlsx|text, default json), source
// (label recorded in the report) and publish (upload, store and notify).
func (s *Server) extract(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", config.FormatJSON))
	if _, err := output.New(format, output.FormatOptions{}); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_FORMAT", err.Error())
		return
	}
	publish, _ := strconv.ParseBool(c.DefaultQuery("publish", "false"))

	limit := s.pipeline.Config().Server.MaxBodyBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	body, source, err := readUpload(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, "TOO_LARGE", fmt.Sprintf("transcript exceeds %d bytes", limit))
			return
		}
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if q := c.Query("source"); q != "" {
		source = q
	}

	tr, err := transcript.Decode(body)
	if err != nil {
		fail(c, http.StatusBadRequest, "EMPTY_TRANSCRIPT", err.Error())
		return
	}

	ctx := c.Request.Context()
	report := s.pipeline.Extract(tr, source)

	rendered, err := s.pipeline.Render(ctx, report, format)
	if err != nil {
		fail(c, http.StatusInternalServerError, "RENDER_FAILED", err.Error())
		return
	}

	resp := ExtractResponse{Report: report, Published: publish}
	if publish {
		out, err := s.pipeline.Publish(ctx, report, format, rendered)
		if err != nil {
			fail(c, http.StatusBadGateway, "PUBLISH_FAILED", err.Error())
			return
		}
		resp.RunID = out.RunID
		resp.Export = out.Object
		if out.RunID != 0 {
			c.Header("X-Run-ID", strconv.FormatUint(uint64(out.RunID), 10))
		}
	}

	if format == config.FormatJSON {
		c.JSON(http.StatusOK, SuccessResponse{Code: "SUCCESS", Message: "ok", Data: resp})
		return
	}

	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, extensionFor(format)))
	c.Data(http.StatusOK, objstore.ContentType(format), rendered)
}

func readUpload(c *gin.Context) ([]byte, string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("reading form file: %w", err)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		return data, fh.Filename, err
	}

	data, err := io.ReadAll(c.Request.Body)
	return data, "upload", err
}

func extensionFor(format string) string {
	if format == config.FormatText {
		return "txt"
	}
	return format
}

func (s *Server) listRuns(c *gin.Context) {
	st := s.pipeline.Store()
	if st == nil {
		fail(c, http.StatusServiceUnavailable, "STORE_DISABLED", "run history is not enabled")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(store.DefaultListLimit)))
	if err != nil || limit < 1 {
		fail(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
		return
	}

	runs, err := st.List(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "SUCCESS", Message: "ok", Data: runs})
}

func (s *Server) getRun(c *gin.Context) {
	st := s.pipeline.Store()
	if st == nil {
		fail(c, http.StatusServiceUnavailable, "STORE_DISABLED", "run history is not enabled")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, "INVALID_ID", "id must be a positive integer")
		return
	}

	run, err := st.Get(c.Request.Context(), uint(id))
	if errors.Is(err, store.ErrRunNotFound) {
		fail(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}

	table, err := run.Table()
	if err != nil {
		fail(c, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	run.Interfaces = nil
	c.JSON(http.StatusOK, SuccessResponse{
		Code:    "SUCCESS",
		Message: "ok",
		Data:    gin.H{"run": run, "table": table},
	})
}
