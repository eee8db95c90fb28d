package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eco-report-service/config"
	"eco-report-service/email"
	"eco-report-service/handlers"
	"eco-report-service/imageproc"
	"eco-report-service/metrics"
	"eco-report-service/report"
	"eco-report-service/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// "run" analyzes a single image from the command line; the default
	// invocation starts the HTTP server.
	if len(os.Args) > 1 && os.Args[1] == "run" {
		os.Exit(runCLI(cfg, os.Args[2:]))
	}

	serve(cfg)
}

// runCLI implements: run [-rule-severity] [-email-to addr] <image_path> <location_text> [notes_text]
func runCLI(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	ruleSeverity := fs.Bool("rule-severity", false, "Use the rule-based severity table instead of the reasoning model")
	emailTo := fs.String("email-to", "", "Also submit the finished report to this email address")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: eco-report-service run [-rule-severity] [-email-to addr] <image_path> <location_text> [notes_text]")
		return 2
	}

	// Validate required configuration before any analysis runs
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	imagePath := fs.Arg(0)
	location := fs.Arg(1)
	notes := ""
	if fs.NArg() > 2 {
		notes = fs.Arg(2)
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image %s: %v\n", imagePath, err)
		return 1
	}

	metrics.Register()
	svc := service.NewService(cfg)

	record, err := svc.Analyze(imageData, location, notes, !*ruleSeverity && cfg.UseModelSeverity)
	if err != nil {
		if errors.Is(err, imageproc.ErrInvalidImage) {
			fmt.Fprintf(os.Stderr, "Invalid image %s: %v\n", imagePath, err)
		} else {
			fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
		}
		return 1
	}

	fmt.Println(report.FormatForDisplay(record))

	if *emailTo != "" {
		sender := email.NewSender(cfg.SendGridAPIKey, cfg.SendGridFromName, cfg.SendGridFromEmail)
		if sender == nil {
			fmt.Fprintln(os.Stderr, "Email submission is not configured (SENDGRID_API_KEY is empty)")
			return 1
		}
		if err := sender.SendReport(*emailTo, record, imageData); err != nil {
			fmt.Fprintf(os.Stderr, "Email submission failed: %v\n", err)
			return 1
		}
		fmt.Printf("Report %s submitted to %s\n", record.ReportID, *emailTo)
	}

	return 0
}

func serve(cfg *config.Config) {
	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	metrics.Register()

	// Initialize service and handlers
	svc := service.NewService(cfg)
	sender := email.NewSender(cfg.SendGridAPIKey, cfg.SendGridFromName, cfg.SendGridFromEmail)
	h := handlers.NewHandlers(cfg, svc, sender)

	// Setup HTTP server
	router := gin.Default()

	router.GET("/", h.FormPage)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v3")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/categories", h.Categories)
		api.POST("/analyze", h.Analyze)
		api.POST("/analyze/email", h.AnalyzeAndEmail)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
