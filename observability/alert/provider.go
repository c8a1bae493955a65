package alert

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/meridiancms/mediacore/meta"
	"github.com/meridiancms/mediacore/observability/logger"
)

// errorRow is one reported error as stored in the errors table.
type errorRow struct {
	ID        string            `bun:"id,pk"`
	Code      string            `bun:"code,notnull"`
	Message   string            `bun:"message,notnull"`
	Details   map[string]string `bun:"details,type:jsonb,notnull"`
	Service   string            `bun:"service,notnull"`
	Operation string            `bun:"operation,notnull"`
	CreatedAt time.Time         `bun:"created_at,notnull"`
	Alerted   bool              `bun:"alerted,notnull"`
}

// errorInfo is the digest a notifier renders into a message.
type errorInfo struct {
	code      string
	message   string
	service   string
	operation string
	details   map[string]string

	// occurrences of this service+operation within the cooldown window
	frequency        int
	frequencyMinutes int
}

// notifyProvider stores every report and notifies the operator channel
// when the service+operation pair is out of cooldown.
type notifyProvider struct {
	cfg      Config
	store    *store
	notifier notifier
}

// SendError persists the report synchronously and hands notification off
// to a background goroutine, so the reporting code path stays cheap.
func (p *notifyProvider) SendError(
	ctx context.Context,
	errCode, msg, operation string,
	details map[string]string,
) error {
	if details == nil {
		details = make(map[string]string)
	}
	details["service_version"] = meta.GetServiceVersion()

	row := errorRow{
		ID:        uuid.NewString(),
		Code:      errCode,
		Message:   msg,
		Details:   details,
		Service:   meta.GetServiceName(),
		Operation: operation,
		CreatedAt: time.Now(),
	}

	// the report must outlive a cancelled request context
	if err := p.store.add(context.WithoutCancel(ctx), row); err != nil {
		return err
	}

	go p.notifyAsync(row)
	return nil
}

func (p *notifyProvider) notifyAsync(row errorRow) {
	log := logger.Named("alert")
	ctx := context.Background()

	if err := p.store.claimForAlert(ctx, row, p.cfg.CooldownMinutes); err != nil {
		if !errors.Is(err, errAlertCooldown) {
			log.With("error", err.Error()).Warn("claiming error for alert failed")
		}
		return
	}

	frequency, err := p.store.countRecent(ctx, row.Service, row.Operation, p.cfg.CooldownMinutes)
	if err != nil {
		log.With("error", err.Error()).Warn("counting recent errors failed")
		return
	}

	info := errorInfo{
		code:             row.Code,
		message:          row.Message,
		service:          row.Service,
		operation:        row.Operation,
		details:          row.Details,
		frequency:        frequency,
		frequencyMinutes: p.cfg.CooldownMinutes,
	}
	if err := p.notifier.notify(ctx, info); err != nil {
		log.With("error", err.Error()).Warn("notification failed")
	}
}

var errAlertCooldown = errors.New("alert is in cooldown period")

// store keeps error rows and the alerted flag in PostgreSQL.
type store struct {
	db     *bun.DB
	table  string
	schema string
}

func newStore(db *bun.DB, schema string) (*store, error) {
	s := &store{
		db:     db,
		table:  fmt.Sprintf("%q.errors", schema),
		schema: schema,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.ensureSchema(ctx); err != nil {
		return nil, errx.Wrap(err)
	}
	return s, nil
}

func (s *store) ensureSchema(ctx context.Context) error {
	_, err := s.db.NewRaw(`
		CREATE SCHEMA IF NOT EXISTS ?;

		CREATE TABLE IF NOT EXISTS ? (
			id UUID PRIMARY KEY,
			code TEXT NOT NULL,
			message TEXT NOT NULL,
			details JSONB NOT NULL,
			service TEXT NOT NULL,
			operation TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			alerted BOOLEAN NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_errors_service_operation_alerted
		ON ? (service, operation, alerted);

		CREATE INDEX IF NOT EXISTS idx_errors_created_at
		ON ? (created_at);
	`, bun.Ident(s.schema), bun.Safe(s.table), bun.Safe(s.table), bun.Safe(s.table)).Exec(ctx)

	return errx.Wrap(err)
}

func (s *store) add(ctx context.Context, row errorRow) error {
	_, err := s.db.NewRaw(`
		INSERT INTO ? (id, code, message, details, service, operation, created_at, alerted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`, bun.Safe(s.table),
		row.ID, row.Code, row.Message, row.Details,
		row.Service, row.Operation, row.CreatedAt, row.Alerted,
	).Exec(ctx)

	return errx.Wrap(err)
}

// claimForAlert marks the row alerted when its service+operation pair is
// out of cooldown, or returns errAlertCooldown. An advisory transaction
// lock serializes concurrent claims for the same pair across instances.
func (s *store) claimForAlert(ctx context.Context, row errorRow, cooldownMinutes int) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return errx.Wrap(err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.NewRaw(
		`SELECT pg_advisory_xact_lock(?)`, lockKey(row.Service, row.Operation),
	).Exec(ctx); err != nil {
		return errx.Wrap(err)
	}

	var lastAlertedAt time.Time
	err = tx.NewRaw(`
		SELECT created_at
		FROM ?
		WHERE service = ? AND operation = ? AND alerted = true
		ORDER BY created_at DESC
		LIMIT 1
	`, bun.Safe(s.table), row.Service, row.Operation).Scan(ctx, &lastAlertedAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		// first alert for this pair
	case err != nil:
		return errx.Wrap(err)
	case time.Since(lastAlertedAt) < time.Duration(cooldownMinutes)*time.Minute:
		return errAlertCooldown
	}

	if _, err := tx.NewRaw(`
		UPDATE ?
		SET alerted = true
		WHERE id = ?
	`, bun.Safe(s.table), row.ID).Exec(ctx); err != nil {
		return errx.Wrap(err)
	}

	return errx.Wrap(tx.Commit())
}

func (s *store) countRecent(ctx context.Context, service, operation string, minutesBack int) (int, error) {
	var count int

	err := s.db.NewRaw(`
		SELECT COUNT(*)
		FROM ?
		WHERE service = ? AND operation = ? AND created_at > NOW() - INTERVAL '1 minute' * ?
	`, bun.Safe(s.table), service, operation, minutesBack).Scan(ctx, &count)
	if err != nil {
		return 0, errx.Wrap(err)
	}
	return count, nil
}

// lockKey hashes service+operation into an advisory lock key.
func lockKey(service, operation string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(service))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(operation))
	return int64(h.Sum64()) //nolint:gosec // advisory locks take any int64, sign is irrelevant
}
