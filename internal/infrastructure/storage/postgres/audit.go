package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "fueldesk/internal/core/context"
	"fueldesk/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used for the changes payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which changes are zstd-compressed.
const DefaultCompressThreshold = 4 * 1024

// auditRow is the sys_audit row.
type auditRow struct {
	ID                int64           `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          int64           `db:"entity_id"`
	Action            string          `db:"action"`
	UserID            int64           `db:"user_id"`
	ClientIP          string          `db:"client_ip"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditRecorder writes the audit trail into sys_audit inside the caller's transaction.
type AuditRecorder struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var (
	_ audit.Recorder = (*AuditRecorder)(nil)
	_ audit.Reader   = (*AuditRecorder)(nil)
)

// NewAuditRecorder creates the recorder. threshold <= 0 uses DefaultCompressThreshold.
func NewAuditRecorder(txManager *TxManager, threshold int) (*AuditRecorder, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	return &AuditRecorder{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: threshold,
	}, nil
}

// Record implements audit.Recorder.
func (r *AuditRecorder) Record(ctx context.Context, entry audit.Entry) error {
	row, err := r.encode(ctx, entry)
	if err != nil {
		return err
	}

	sql, args, err := Builder().
		Insert("sys_audit").
		Columns("entity_type", "entity_id", "action", "user_id", "client_ip",
			"changes", "changes_compressed", "compression_algo", "created_at").
		Values(row.EntityType, row.EntityID, row.Action, row.UserID, row.ClientIP,
			row.Changes, row.ChangesCompressed, row.CompressionAlgo, row.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// encode fills user and client ip from ctx and compresses large payloads.
func (r *AuditRecorder) encode(ctx context.Context, entry audit.Entry) (auditRow, error) {
	if entry.UserID == 0 {
		entry.UserID = appctx.GetUserID(ctx)
	}
	if entry.ClientIP == "" {
		entry.ClientIP = appctx.GetClientIP(ctx)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return auditRow{}, fmt.Errorf("marshal changes: %w", err)
	}

	row := auditRow{
		EntityType:      entry.EntityType,
		EntityID:        entry.EntityID,
		Action:          string(entry.Action),
		UserID:          entry.UserID,
		ClientIP:        entry.ClientIP,
		Changes:         changes,
		CompressionAlgo: CompressionNone,
		CreatedAt:       entry.CreatedAt,
	}
	if len(changes) > r.compressThreshold {
		row.ChangesCompressed = r.encoder.EncodeAll(changes, nil)
		row.Changes = nil
		row.CompressionAlgo = CompressionZstd
	}
	return row, nil
}

// decode reverses encode.
func (r *AuditRecorder) decode(row auditRow) (audit.Entry, error) {
	payload := []byte(row.Changes)
	if row.CompressionAlgo == CompressionZstd && len(row.ChangesCompressed) > 0 {
		decompressed, err := r.decoder.DecodeAll(row.ChangesCompressed, nil)
		if err != nil {
			return audit.Entry{}, fmt.Errorf("decompress changes: %w", err)
		}
		payload = decompressed
	}

	var changes map[string]any
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &changes); err != nil {
			return audit.Entry{}, fmt.Errorf("unmarshal changes: %w", err)
		}
	}
	return audit.Entry{
		EntityType: row.EntityType,
		EntityID:   row.EntityID,
		Action:     audit.Action(row.Action),
		UserID:     row.UserID,
		ClientIP:   row.ClientIP,
		Changes:    changes,
		CreatedAt:  row.CreatedAt,
	}, nil
}

// History implements audit.Reader.
func (r *AuditRecorder) History(ctx context.Context, entityType string, entityID int64, limit int) ([]audit.Entry, error) {
	q := Builder().
		Select("id", "entity_type", "entity_id", "action", "user_id", "client_ip",
			"changes", "changes_compressed", "compression_algo", "created_at").
		From("sys_audit").
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		OrderBy("id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	rows, err := SelectAll[auditRow](ctx, r.txManager.GetQuerier(ctx), q)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}

	entries := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := r.decode(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
