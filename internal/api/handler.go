// Package api exposes statement conversion over HTTP for callers that
// can't run the CLI, like the bookkeeping dashboard.
package api

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/extractor"
	"github.com/insightdelivered/statement-reconciler/internal/models"
	"github.com/insightdelivered/statement-reconciler/internal/parser"
	"github.com/insightdelivered/statement-reconciler/internal/statement"
	"github.com/insightdelivered/statement-reconciler/internal/writer"
)

const version = "2.0.0"

// ConvertResponse is the JSON body of /api/convert.
type ConvertResponse struct {
	Success      bool                       `json:"success"`
	Error        string                     `json:"error,omitempty"`
	Bank         string                     `json:"bank,omitempty"`
	Period       string                     `json:"period,omitempty"`
	Count        int                        `json:"count"`
	Transactions []models.TransactionRecord `json:"transactions"`
	Ledger       string                     `json:"ledger,omitempty"`
	CSV          string                     `json:"csv,omitempty"`
	Version      string                     `json:"version,omitempty"`
}

// Handler serves the conversion endpoints.
type Handler struct {
	Custom  *config.Custom
	Parsers []parser.Parser
	Log     zerolog.Logger
}

func NewHandler(cfg *config.Custom, log zerolog.Logger) *Handler {
	return &Handler{Custom: cfg, Parsers: parser.Registry(cfg), Log: log}
}

// Register mounts the API routes on the app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/convert", h.HandleConvert)
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": version,
	})
}

// HandleConvert accepts one multipart statement file named YYYY_MM.pdf
// (or .txt/.csv for pre-extracted uploads), parses and validates it,
// and returns the transactions plus rendered ledger text.
func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	reqLog := h.Log.With().Str("request_id", uuid.New().String()).Logger()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".pdf" && ext != ".txt" && ext != ".csv" {
		return writeError(c, fiber.StatusBadRequest, "Only .pdf, .txt, and .csv statements are supported.")
	}

	text, err := h.statementText(fileHeader, ext)
	if err != nil {
		reqLog.Error().Err(err).Str("file", fileHeader.Filename).Msg("extraction failed")
		return writeError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	p, ok := parser.Probe(h.Parsers, text)
	if !ok {
		return writeError(c, fiber.StatusUnprocessableEntity, "couldn't match statement to any bank")
	}

	st, err := statement.New(fileHeader.Filename, text)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}
	st.Bank = p.BankName()
	if err := p.Parse(st); err != nil {
		reqLog.Error().Err(err).Str("bank", p.BankName()).Msg("parse failed")
		return writeError(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	if err := st.Validate(); err != nil {
		reqLog.Error().Err(err).Str("bank", p.BankName()).Msg("validation failed")
		return writeError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	body, err := st.RenderLedger()
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, err.Error())
	}

	var csvBuf bytes.Buffer
	csvWriter := &writer.CSVWriter{IncludeHeader: c.FormValue("header") != "false"}
	if err := csvWriter.Write(&csvBuf, st); err != nil {
		return writeError(c, fiber.StatusInternalServerError, err.Error())
	}

	reqLog.Info().
		Str("bank", p.BankName()).
		Str("period", st.PeriodKey()).
		Int("transactions", len(st.Transactions)).
		Msg("statement converted")

	txs := st.Transactions
	if txs == nil {
		txs = []models.TransactionRecord{}
	}
	return c.JSON(ConvertResponse{
		Success:      true,
		Bank:         p.BankName(),
		Period:       st.PeriodKey(),
		Count:        len(txs),
		Transactions: txs,
		Ledger:       st.Preamble + body,
		CSV:          csvBuf.String(),
		Version:      version,
	})
}

func (h *Handler) statementText(fileHeader *multipart.FileHeader, ext string) (string, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	if ext != ".pdf" {
		raw, err := io.ReadAll(f)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	// The PDF extractors want a path, so spool the upload to disk.
	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, f); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	return extractor.Extract(tmp.Name())
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success: false,
		Error:   msg,
	})
}
