package insurance

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/payroll/backend/internal/domain/shared"
	"github.com/payroll/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// CSV encodings supported by the export endpoint. UTF-8 output carries a BOM
// so Excel detects the encoding; GB18030 targets Excel on zh-CN locales.
const (
	EncodingUTF8    = "utf8"
	EncodingGB18030 = "gb18030"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ExportStorage persists generated export files and hands out download links.
type ExportStorage interface {
	// Put stores the file content under the given key.
	Put(ctx context.Context, key, contentType string, content []byte) error

	// PresignDownload returns a time-limited download URL for the key.
	PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// ExportInput identifies a batch detail export.
type ExportInput struct {
	PeriodID             uuid.UUID
	EmployeeIDs          []uuid.UUID
	IncludeOptionalTypes bool
	Encoding             string
}

// ExportResult points at the uploaded detail file.
type ExportResult struct {
	ObjectKey   string    `json:"object_key"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
	RowCount    int       `json:"row_count"`
}

// ExportService runs a batch computation without persisting and uploads the
// per-detail CSV to object storage.
type ExportService struct {
	batch   *BatchService
	storage ExportStorage
	logger  *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(batch *BatchService, storage ExportStorage, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		batch:   batch,
		storage: storage,
		logger:  logger,
	}
}

// ExportBatchDetails computes the batch and uploads a detail CSV. The run
// never persists line items; export is a read-only view of what a persist run
// would compute.
func (s *ExportService) ExportBatchDetails(ctx context.Context, input ExportInput) (*ExportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "export", "ExportBatchDetails",
		telemetry.String(telemetry.AttrPeriodID, input.PeriodID.String()))
	defer span.End()

	encoding := input.Encoding
	if encoding == "" {
		encoding = EncodingUTF8
	}
	if encoding != EncodingUTF8 && encoding != EncodingGB18030 {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("unsupported export encoding %q", encoding))
	}

	summary, err := s.batch.RunBatch(ctx, BatchInput{
		PeriodID:             input.PeriodID,
		EmployeeIDs:          input.EmployeeIDs,
		IncludeOptionalTypes: input.IncludeOptionalTypes,
		Persist:              false,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	content, rowCount, err := renderDetailCSV(summary, encoding)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	key := fmt.Sprintf("contribution-details/%s/%s.csv",
		input.PeriodID, time.Now().UTC().Format("20060102_150405"))
	if err := s.storage.Put(ctx, key, "text/csv", content); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to upload export file: %w", err)
	}

	url, expiresAt, err := s.storage.PresignDownload(ctx, key, 0)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to presign export download: %w", err)
	}

	s.logger.Info("Exported batch contribution details",
		zap.String("period_id", input.PeriodID.String()),
		zap.String("object_key", key),
		zap.Int("row_count", rowCount),
		zap.String("encoding", encoding))

	return &ExportResult{
		ObjectKey:   key,
		DownloadURL: url,
		ExpiresAt:   expiresAt,
		RowCount:    rowCount,
	}, nil
}

// renderDetailCSV writes one row per calculation detail plus per-employee
// totals, in the requested encoding.
func renderDetailCSV(summary *BatchRunSummary, encoding string) ([]byte, int, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"employee_id", "insurance_type_key", "insurance_type_name",
		"payer_role", "adjusted_base", "rate", "amount", "status", "error",
	}
	if err := w.Write(header); err != nil {
		return nil, 0, err
	}

	rowCount := 0
	for _, result := range summary.Results {
		for _, d := range result.Details {
			status := "ok"
			if !d.Success {
				status = "failed"
			}
			row := []string{
				d.EmployeeID.String(),
				string(d.TypeKey),
				d.TypeName,
				string(d.Role),
				d.AdjustedBase.String(),
				d.Rate.String(),
				d.Amount.String(),
				status,
				d.ErrorReason,
			}
			if err := w.Write(row); err != nil {
				return nil, 0, err
			}
			rowCount++
		}
		totals := []string{
			result.EmployeeID.String(), "total", "",
			"", "", "",
			result.TotalEmployeeAmount.Add(result.TotalEmployerAmount).String(),
			resultStatus(result), result.Message,
		}
		if err := w.Write(totals); err != nil {
			return nil, 0, err
		}
		rowCount++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, 0, err
	}

	if encoding == EncodingGB18030 {
		encoded, _, err := transform.Bytes(simplifiedchinese.GB18030.NewEncoder(), buf.Bytes())
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode export as GB18030: %w", err)
		}
		return encoded, rowCount, nil
	}

	out := make([]byte, 0, len(utf8BOM)+buf.Len())
	out = append(out, utf8BOM...)
	out = append(out, buf.Bytes()...)
	return out, rowCount, nil
}

func resultStatus(result insurance.BatchItemResult) string {
	if result.Success {
		return "ok"
	}
	return "failed"
}
