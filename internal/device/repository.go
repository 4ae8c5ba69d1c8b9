package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/property"
)

// Repository defines the interface for device configuration reads and the
// narrow writes the runtime performs (variable property values and
// connection states). This abstraction allows for different
// implementations (SQLite, mock, etc.) and enables unit testing without
// database dependencies.
type Repository interface {
	// GetByConnector retrieves every enabled device of a connector,
	// fully populated with channels and properties.
	GetByConnector(ctx context.Context, connectorID uuid.UUID) ([]Device, error)

	// GetByID retrieves a device by its unique identifier.
	// Returns ErrNotFound if the device does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Device, error)

	// GetProperty retrieves a single property by ID, regardless of which
	// device owns it. Used to resolve mapped property parents.
	// Returns ErrPropertyNotFound if the property does not exist.
	GetProperty(ctx context.Context, propertyID uuid.UUID) (*property.Property, error)

	// UpdatePropertyValue persists the configured value of a variable
	// property. Returns ErrPropertyNotFound if the property does not exist.
	UpdatePropertyValue(ctx context.Context, propertyID uuid.UUID, value any) error

	// GetConnectionState returns the last persisted connection state of a
	// device, or Unknown if none has been recorded.
	GetConnectionState(ctx context.Context, deviceID uuid.UUID) (ConnectionState, error)

	// SetConnectionState persists a device's connection state.
	SetConnectionState(ctx context.Context, deviceID uuid.UUID, state ConnectionState) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByConnector retrieves every enabled device of a connector.
func (r *SQLiteRepository) GetByConnector(ctx context.Context, connectorID uuid.UUID) ([]Device, error) {
	query := `
		SELECT id, connector_id, identifier, name, type, enabled,
			state_processing_delay, created_at, updated_at
		FROM devices
		WHERE connector_id = ? AND enabled = 1
		ORDER BY identifier`

	rows, err := r.db.QueryContext(ctx, query, connectorID.String())
	if err != nil {
		return nil, fmt.Errorf("querying devices by connector: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only iteration

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	for i := range devices {
		if err := r.loadDeviceProperties(ctx, &devices[i]); err != nil {
			return nil, err
		}
		if err := r.loadChannels(ctx, &devices[i]); err != nil {
			return nil, err
		}
	}

	return devices, nil
}

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*Device, error) {
	query := `
		SELECT id, connector_id, identifier, name, type, enabled,
			state_processing_delay, created_at, updated_at
		FROM devices
		WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id.String())
	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}

	if err := r.loadDeviceProperties(ctx, d); err != nil {
		return nil, err
	}
	if err := r.loadChannels(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetProperty retrieves a single property by ID.
func (r *SQLiteRepository) GetProperty(ctx context.Context, propertyID uuid.UUID) (*property.Property, error) {
	query := `
		SELECT id, channel_id, device_id, identifier, name, kind, data_type, format,
			unit, settable, queryable, value, parent_id, created_at, updated_at
		FROM properties
		WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, propertyID.String())
	p, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPropertyNotFound
		}
		return nil, fmt.Errorf("querying property by id: %w", err)
	}
	return p, nil
}

// UpdatePropertyValue persists the configured value of a variable property.
func (r *SQLiteRepository) UpdatePropertyValue(ctx context.Context, propertyID uuid.UUID, value any) error {
	var stored *string
	if value != nil {
		s := fmt.Sprintf("%v", value)
		stored = &s
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE properties
		SET value = ?, updated_at = datetime('now')
		WHERE id = ?`,
		stored, propertyID.String(),
	)
	if err != nil {
		return fmt.Errorf("updating property value: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrPropertyNotFound
	}
	return nil
}

// GetConnectionState returns the last persisted connection state.
func (r *SQLiteRepository) GetConnectionState(ctx context.Context, deviceID uuid.UUID) (ConnectionState, error) {
	var state string
	err := r.db.QueryRowContext(ctx,
		`SELECT state FROM device_connection_states WHERE device_id = ?`,
		deviceID.String(),
	).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return Unknown, nil
	}
	if err != nil {
		return Unknown, fmt.Errorf("querying connection state: %w", err)
	}

	cs := ConnectionState(state)
	if !cs.IsValid() {
		return Unknown, fmt.Errorf("%w: %q", ErrInvalidConnectionState, state)
	}
	return cs, nil
}

// SetConnectionState persists a device's connection state.
func (r *SQLiteRepository) SetConnectionState(ctx context.Context, deviceID uuid.UUID, state ConnectionState) error {
	if !state.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidConnectionState, state)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO device_connection_states (device_id, state, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(device_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at`,
		deviceID.String(), string(state),
	)
	if err != nil {
		return fmt.Errorf("persisting connection state: %w", err)
	}
	return nil
}

// loadChannels populates a device's channels and their properties.
func (r *SQLiteRepository) loadChannels(ctx context.Context, d *Device) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, device_id, identifier, name, created_at, updated_at
		FROM channels
		WHERE device_id = ?
		ORDER BY identifier`,
		d.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("querying channels: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only iteration

	var channels []Channel
	for rows.Next() {
		var (
			ch                   Channel
			idStr, deviceIDStr   string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&idStr, &deviceIDStr, &ch.Identifier, &ch.Name, &createdAt, &updatedAt); err != nil {
			return fmt.Errorf("scanning channel: %w", err)
		}
		if ch.ID, err = uuid.Parse(idStr); err != nil {
			return fmt.Errorf("parsing channel id: %w", err)
		}
		if ch.DeviceID, err = uuid.Parse(deviceIDStr); err != nil {
			return fmt.Errorf("parsing channel device id: %w", err)
		}
		ch.CreatedAt = parseTimestamp(createdAt)
		ch.UpdatedAt = parseTimestamp(updatedAt)
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating channels: %w", err)
	}

	for i := range channels {
		if err := r.loadProperties(ctx, &channels[i]); err != nil {
			return err
		}
	}

	d.Channels = channels
	return nil
}

// loadDeviceProperties populates a device's device-level properties.
func (r *SQLiteRepository) loadDeviceProperties(ctx context.Context, d *Device) error {
	properties, err := r.queryProperties(ctx, `device_id`, d.ID)
	if err != nil {
		return err
	}
	if err := r.validateMappings(ctx, properties); err != nil {
		return err
	}
	d.Properties = properties
	return nil
}

// loadProperties populates a channel's properties and validates the
// mapped-parent invariant.
func (r *SQLiteRepository) loadProperties(ctx context.Context, ch *Channel) error {
	properties, err := r.queryProperties(ctx, `channel_id`, ch.ID)
	if err != nil {
		return err
	}
	if err := r.validateMappings(ctx, properties); err != nil {
		return err
	}
	ch.Properties = properties
	return nil
}

// queryProperties loads every property whose owner column matches id.
func (r *SQLiteRepository) queryProperties(ctx context.Context, ownerColumn string, id uuid.UUID) ([]property.Property, error) {
	query := fmt.Sprintf(`
		SELECT id, channel_id, device_id, identifier, name, kind, data_type, format,
			unit, settable, queryable, value, parent_id, created_at, updated_at
		FROM properties
		WHERE %s = ?
		ORDER BY identifier`, ownerColumn)

	rows, err := r.db.QueryContext(ctx, query, id.String())
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only iteration

	var properties []property.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}
	return properties, nil
}

// validateMappings checks that every mapped property references an
// existing dynamic parent.
func (r *SQLiteRepository) validateMappings(ctx context.Context, properties []property.Property) error {
	for i := range properties {
		p := &properties[i]
		if p.Kind != property.KindMapped {
			continue
		}
		if p.ParentID == nil {
			return fmt.Errorf("%w: mapped property %s has no parent", ErrInvalidMapping, p.Identifier)
		}
		parent, err := r.GetProperty(ctx, *p.ParentID)
		if err != nil {
			return fmt.Errorf("%w: mapped property %s parent: %w", ErrInvalidMapping, p.Identifier, err)
		}
		if parent.Kind != property.KindDynamic {
			return fmt.Errorf("%w: mapped property %s parent is %s, not dynamic",
				ErrInvalidMapping, p.Identifier, parent.Kind)
		}
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a device row.
func scanDevice(row scanner) (*Device, error) {
	var (
		d                    Device
		idStr, connectorStr  string
		delaySec             int64
		createdAt, updatedAt string
	)

	err := row.Scan(&idStr, &connectorStr, &d.Identifier, &d.Name, &d.Type,
		&d.Enabled, &delaySec, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if d.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parsing device id: %w", err)
	}
	if d.ConnectorID, err = uuid.Parse(connectorStr); err != nil {
		return nil, fmt.Errorf("parsing connector id: %w", err)
	}
	d.StateProcessingDelay = time.Duration(delaySec) * time.Second
	d.CreatedAt = parseTimestamp(createdAt)
	d.UpdatedAt = parseTimestamp(updatedAt)

	return &d, nil
}

// scanProperty scans a property row.
func scanProperty(row scanner) (*property.Property, error) {
	var (
		p                     property.Property
		idStr                 string
		channelStr, deviceStr *string
		formatJSON            *string
		value                 *string
		parentStr             *string
		createdAt, updatedAt  string
	)

	err := row.Scan(&idStr, &channelStr, &deviceStr, &p.Identifier, &p.Name, &p.Kind,
		&p.DataType, &formatJSON, &p.Unit, &p.Settable, &p.Queryable,
		&value, &parentStr, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if p.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parsing property id: %w", err)
	}
	if channelStr != nil {
		if p.ChannelID, err = uuid.Parse(*channelStr); err != nil {
			return nil, fmt.Errorf("parsing property channel id: %w", err)
		}
	}
	if deviceStr != nil {
		if p.DeviceID, err = uuid.Parse(*deviceStr); err != nil {
			return nil, fmt.Errorf("parsing property device id: %w", err)
		}
	}

	if formatJSON != nil && *formatJSON != "" {
		if err := json.Unmarshal([]byte(*formatJSON), &p.Format); err != nil {
			return nil, fmt.Errorf("parsing property format: %w", err)
		}
	}
	if value != nil {
		p.Value = *value
	}
	if parentStr != nil {
		parent, err := uuid.Parse(*parentStr)
		if err != nil {
			return nil, fmt.Errorf("parsing property parent id: %w", err)
		}
		p.ParentID = &parent
	}
	p.CreatedAt = parseTimestamp(createdAt)
	p.UpdatedAt = parseTimestamp(updatedAt)

	return &p, nil
}

// parseTimestamp parses SQLite datetime() output, falling back to the
// zero time on malformed input.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
