package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"eco-report-service/config"
	"eco-report-service/email"
	"eco-report-service/imageproc"
	"eco-report-service/models"
	"eco-report-service/report"
	"eco-report-service/service"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// Handlers represents the HTTP handlers
type Handlers struct {
	config *config.Config
	svc    *service.Service
	sender *email.Sender
}

// NewHandlers creates new HTTP handlers. sender may be nil when email
// submission is not configured.
func NewHandlers(cfg *config.Config, svc *service.Service, sender *email.Sender) *Handlers {
	return &Handlers{config: cfg, svc: svc, sender: sender}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "eco-report-service",
		"provider": h.svc.SourceName(),
	})
}

// Categories returns the waste categories the classifier supports
func (h *Handlers) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": models.WasteCategories,
	})
}

// readAnalysisForm extracts the multipart analysis inputs shared by the
// analyze and email endpoints.
func (h *Handlers) readAnalysisForm(c *gin.Context) (imageData []byte, location, notes string, useModel bool, err error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, "", "", false, fmt.Errorf("image file is required: %w", err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", "", false, fmt.Errorf("failed to open uploaded image: %w", err)
	}
	defer file.Close()

	imageData, err = io.ReadAll(file)
	if err != nil {
		return nil, "", "", false, fmt.Errorf("failed to read uploaded image: %w", err)
	}

	location = c.PostForm("location")
	notes = c.PostForm("notes")

	useModel = h.config.UseModelSeverity
	if v := c.PostForm("use_model_severity"); v != "" {
		if parsed, parseErr := strconv.ParseBool(v); parseErr == nil {
			useModel = parsed
		}
	}

	return imageData, location, notes, useModel, nil
}

// Analyze runs the analysis pipeline on an uploaded image. With
// ?format=text the formatted report is returned as a downloadable file
// instead of the JSON record.
func (h *Handlers) Analyze(c *gin.Context) {
	imageData, location, notes, useModel, err := h.readAnalysisForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.svc.Analyze(imageData, location, notes, useModel)
	if err != nil {
		if errors.Is(err, imageproc.ErrInvalidImage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Errorf("Analysis failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	if c.Query("format") == "text" {
		filename := fmt.Sprintf("%s.txt", record.ReportID)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(report.FormatForDisplay(record)))
		return
	}

	c.JSON(http.StatusOK, record)
}

// AnalyzeAndEmail runs the pipeline and submits the finished report to the
// recipient given in the form.
func (h *Handlers) AnalyzeAndEmail(c *gin.Context) {
	if h.sender == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email submission is not configured"})
		return
	}

	recipient := c.PostForm("recipient")
	if recipient == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient is required"})
		return
	}

	imageData, location, notes, useModel, err := h.readAnalysisForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.svc.Analyze(imageData, location, notes, useModel)
	if err != nil {
		if errors.Is(err, imageproc.ErrInvalidImage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Errorf("Analysis failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	if err := h.sender.SendReport(recipient, record, imageData); err != nil {
		log.Errorf("Report email failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "report generated but email submission failed",
			"report": record,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report":    record,
		"recipient": recipient,
	})
}

// formPage is a minimal self-contained upload form for manual use; the real
// frontend lives outside this service.
const formPage = `<!DOCTYPE html>
<html>
<head><title>EcoReport</title></head>
<body>
<h1>EcoReport</h1>
<form action="/api/v3/analyze" method="post" enctype="multipart/form-data">
  <p><label>Image: <input type="file" name="image" accept="image/*" required></label></p>
  <p><label>Location: <input type="text" name="location" size="48"></label></p>
  <p><label>Notes: <textarea name="notes" rows="3" cols="48"></textarea></label></p>
  <p><label>Severity strategy:
    <select name="use_model_severity">
      <option value="true">Model-based</option>
      <option value="false">Rule-based</option>
    </select></label></p>
  <p><button type="submit">Analyze</button></p>
</form>
</body>
</html>`

// FormPage serves the upload form
func (h *Handlers) FormPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(formPage))
}
