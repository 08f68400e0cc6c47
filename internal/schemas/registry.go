// Package schemas compiles registered attestation field layouts into ABI
// codecs and validates delegation payloads against them, so a layout mismatch
// fails locally instead of surfacing as an on-chain revert.
package schemas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/veritix/veritix-api/internal/db"
	"github.com/veritix/veritix-api/internal/logger"
)

var (
	// ErrSchemaNotFound is returned when a schema UID is not registered.
	ErrSchemaNotFound = errors.New("schema not registered")
	// ErrPayloadLayout is returned when a payload does not decode exactly
	// against the schema's declared field layout.
	ErrPayloadLayout = errors.New("payload does not match schema layout")
)

// Schema is a registered layout with its admission metadata and compiled
// codec.
type Schema struct {
	UID          string
	Name         string
	Enabled      bool
	ExemptGlobal bool
	// DailyLimit is the per-user per-day cap for this schema; nil means the
	// schema declares no cap of its own.
	DailyLimit *int32

	args abi.Arguments
}

// Registry resolves schema UIDs to compiled codecs. The database row is the
// source of truth on every lookup: admission fields (Enabled, ExemptGlobal,
// DailyLimit) are read fresh each time, so operator edits to
// attestation_schemas take effect without a restart. Only compiled codecs
// are cached, keyed by the layout string itself.
type Registry struct {
	queries db.Querier
	logger  *zap.Logger

	mu     sync.RWMutex
	codecs map[string]abi.Arguments
}

// NewRegistry creates a schema registry backed by the given queries.
func NewRegistry(queries db.Querier) *Registry {
	return &Registry{
		queries: queries,
		logger:  logger.Log,
		codecs:  make(map[string]abi.Arguments),
	}
}

// Get resolves a schema by UID, compiling its layout on first use.
func (r *Registry) Get(ctx context.Context, uid string) (*Schema, error) {
	row, err := r.queries.GetAttestationSchema(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, uid)
		}
		return nil, fmt.Errorf("failed to load schema %s: %w", uid, err)
	}
	return r.compile(row)
}

// Warm pre-compiles every registered layout. Called at startup so bad layout
// rows are reported before the first request hits them; lookups still read
// the row per call.
func (r *Registry) Warm(ctx context.Context) error {
	rows, err := r.queries.ListAttestationSchemas(ctx)
	if err != nil {
		return fmt.Errorf("failed to list schemas: %w", err)
	}

	for _, row := range rows {
		if _, err := r.compile(row); err != nil {
			r.logger.Error("Schema layout failed to compile",
				zap.String("schema_uid", row.UID),
				zap.String("layout", row.Layout),
				zap.Error(err),
			)
			return err
		}
	}

	r.logger.Info("Schema registry warmed", zap.Int("schemas", len(rows)))
	return nil
}

// ValidatePayload checks that the payload decodes exactly against the schema
// layout. Re-encoding the decoded values must reproduce the input byte for
// byte; trailing bytes or non-canonical padding are rejected.
func (s *Schema) ValidatePayload(payload []byte) error {
	values, err := s.args.Unpack(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPayloadLayout, err)
	}

	repacked, err := s.args.Pack(values...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPayloadLayout, err)
	}
	if !bytes.Equal(repacked, payload) {
		return fmt.Errorf("%w: non-canonical encoding", ErrPayloadLayout)
	}
	return nil
}

// EncodePayload packs field values in layout order.
func (s *Schema) EncodePayload(values ...interface{}) ([]byte, error) {
	encoded, err := s.args.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload for schema %s: %w", s.UID, err)
	}
	return encoded, nil
}

// DecodePayload unpacks a payload into its field values in layout order.
func (s *Schema) DecodePayload(payload []byte) ([]interface{}, error) {
	values, err := s.args.Unpack(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadLayout, err)
	}
	return values, nil
}

func (r *Registry) compile(row db.AttestationSchema) (*Schema, error) {
	r.mu.RLock()
	args, ok := r.codecs[row.Layout]
	r.mu.RUnlock()

	if !ok {
		var err error
		args, err = CompileLayout(row.Layout)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", row.UID, err)
		}
		r.mu.Lock()
		r.codecs[row.Layout] = args
		r.mu.Unlock()
	}

	schema := &Schema{
		UID:          row.UID,
		Name:         row.Name,
		Enabled:      row.Enabled,
		ExemptGlobal: row.ExemptGlobal,
		args:         args,
	}
	if row.DailyLimit.Valid {
		limit := row.DailyLimit.Int32
		schema.DailyLimit = &limit
	}
	return schema, nil
}

// CompileLayout parses a declared field layout ("bytes32 eventId,uint64 seat")
// into ABI arguments. Field order in the string is the encoding order.
func CompileLayout(layout string) (abi.Arguments, error) {
	if strings.TrimSpace(layout) == "" {
		return nil, fmt.Errorf("empty schema layout")
	}

	var args abi.Arguments
	for _, field := range strings.Split(layout, ",") {
		parts := strings.Fields(strings.TrimSpace(field))
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed layout field %q", field)
		}

		typ, err := abi.NewType(parts[0], "", nil)
		if err != nil {
			return nil, fmt.Errorf("unsupported layout type %q: %w", parts[0], err)
		}
		args = append(args, abi.Argument{Name: parts[1], Type: typ})
	}
	return args, nil
}
