package models

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
)

// ProjectID is a typed ID for portfolio projects
type ProjectID struct {
	uuid uuid.UUID
}

func NewProjectID() ProjectID {
	return ProjectID{uuid: uuid.New()}
}

func ParseProjectID(s string) (ProjectID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ProjectID{}, fmt.Errorf("invalid project ID: %w", err)
	}
	return ProjectID{uuid: id}, nil
}

func (p ProjectID) UUID() uuid.UUID { return p.uuid }
func (p ProjectID) String() string  { return p.uuid.String() }
func (p ProjectID) IsZero() bool    { return p.uuid == uuid.Nil }

func (p ProjectID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "projects",
		ID:    p.uuid.String(),
	}
}

func (p ProjectID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.uuid.String())
}

func (p *ProjectID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	p.uuid = id
	return nil
}

func (p ProjectID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"projects", p.uuid.String()},
	})
}

func (p *ProjectID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "projects", &p.uuid)
}

// MessageID is a typed ID for contact messages
type MessageID struct {
	uuid uuid.UUID
}

func NewMessageID() MessageID {
	return MessageID{uuid: uuid.New()}
}

func ParseMessageID(s string) (MessageID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return MessageID{}, fmt.Errorf("invalid message ID: %w", err)
	}
	return MessageID{uuid: id}, nil
}

func (m MessageID) UUID() uuid.UUID { return m.uuid }
func (m MessageID) String() string  { return m.uuid.String() }
func (m MessageID) IsZero() bool    { return m.uuid == uuid.Nil }

func (m MessageID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "messages",
		ID:    m.uuid.String(),
	}
}

func (m MessageID) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.uuid.String())
}

func (m *MessageID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	m.uuid = id
	return nil
}

func (m MessageID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"messages", m.uuid.String()},
	})
}

func (m *MessageID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "messages", &m.uuid)
}

// ClientID is a typed ID for client engagement records
type ClientID struct {
	uuid uuid.UUID
}

func NewClientID() ClientID {
	return ClientID{uuid: uuid.New()}
}

func ParseClientID(s string) (ClientID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ClientID{}, fmt.Errorf("invalid client ID: %w", err)
	}
	return ClientID{uuid: id}, nil
}

func (c ClientID) UUID() uuid.UUID { return c.uuid }
func (c ClientID) String() string  { return c.uuid.String() }
func (c ClientID) IsZero() bool    { return c.uuid == uuid.Nil }

func (c ClientID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "clients",
		ID:    c.uuid.String(),
	}
}

func (c ClientID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.uuid.String())
}

func (c *ClientID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	c.uuid = id
	return nil
}

func (c ClientID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"clients", c.uuid.String()},
	})
}

func (c *ClientID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "clients", &c.uuid)
}

// Singleton record IDs. Each of these collections is expected to hold
// exactly one document.

func ProfileRecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: "profile", ID: "main"}
}

func ResumeRecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: "settings", ID: "resume"}
}

func AnalyticsRecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: "analytics", ID: "main"}
}

// unmarshalCBORID is a helper for unmarshaling SurrealDB RecordID from CBOR.
// SurrealDB uses CBOR tag 8 to identify RecordID types in its binary protocol.
// The RecordID is encoded as [table_name, id_string] within the tag.
func unmarshalCBORID(data []byte, expectedTable string, target *uuid.UUID) error {
	if len(data) == 0 {
		return fmt.Errorf("empty CBOR data")
	}

	// Check if this is a CBOR tag (major type 6)
	majorType := data[0] >> 5
	if majorType != 6 {
		return fmt.Errorf("expected CBOR tag for RecordID, got major type %d", majorType)
	}

	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to unmarshal CBOR tag: %w", err)
	}

	// SurrealDB uses tag 8 for RecordID
	if tag.Number != 8 {
		return fmt.Errorf("expected RecordID tag (8), got %d", tag.Number)
	}

	arr, ok := tag.Content.([]any)
	if !ok || len(arr) != 2 {
		return fmt.Errorf("invalid RecordID format: expected [table, id] array")
	}

	table, ok := arr[0].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: table name must be string")
	}
	if table != expectedTable {
		return fmt.Errorf("expected table %s, got %s", expectedTable, table)
	}

	idStr, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: ID must be string")
	}

	parsedUUID, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid UUID in RecordID: %w", err)
	}

	*target = parsedUUID
	return nil
}
