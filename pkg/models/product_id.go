package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// ProductTable is the SurrealDB table products are stored in.
const ProductTable = "product"

// recordIDTag is the CBOR tag SurrealDB uses for record IDs.
const recordIDTag = 8

// ProductID is a typed ID for products
type ProductID struct {
	uuid uuid.UUID
}

func NewProductID() ProductID {
	return ProductID{uuid: uuid.New()}
}

func NewProductIDFromUUID(id uuid.UUID) ProductID {
	return ProductID{uuid: id}
}

func ParseProductID(s string) (ProductID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ProductID{}, fmt.Errorf("invalid product ID: %w", err)
	}
	return ProductID{uuid: id}, nil
}

func (p ProductID) UUID() uuid.UUID { return p.uuid }
func (p ProductID) String() string  { return p.uuid.String() }
func (p ProductID) IsZero() bool    { return p.uuid == uuid.Nil }

func (p ProductID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: ProductTable,
		ID:    p.uuid.String(),
	}
}

func (p ProductID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.uuid.String())
}

func (p *ProductID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		p.uuid = uuid.Nil
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	p.uuid = id
	return nil
}

func (p ProductID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  recordIDTag,
		Content: []any{ProductTable, p.uuid.String()},
	})
}

func (p *ProductID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, ProductTable, &p.uuid)
}

func (p ProductID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(p.uuid.String())
}

func (p *ProductID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	s, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("cannot decode BSON %s into product ID", t)
	}
	return scanUUID(s, &p.uuid)
}

func (p ProductID) Value() (driver.Value, error) {
	if p.IsZero() {
		return nil, nil
	}
	return p.uuid.String(), nil
}

func (p *ProductID) Scan(value any) error {
	return scanUUID(value, &p.uuid)
}

func (ProductID) GormDataType() string { return "uuid" }

func scanUUID(value any, target *uuid.UUID) error {
	if value == nil {
		*target = uuid.Nil
		return nil
	}

	switch v := value.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		*target = id
	case []byte:
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return err
		}
		*target = id
	default:
		return fmt.Errorf("cannot scan type %T into UUID", value)
	}
	return nil
}

// unmarshalCBORID decodes a record ID of expectedTable. A bare string ID is
// also accepted.
func unmarshalCBORID(data []byte, expectedTable string, target *uuid.UUID) error {
	if len(data) == 0 {
		return fmt.Errorf("empty CBOR data")
	}

	var raw any
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal CBOR ID: %w", err)
	}

	switch v := raw.(type) {
	case string:
		return scanUUID(v, target)
	case cbor.Tag:
		if v.Number != recordIDTag {
			return fmt.Errorf("expected RecordID tag (%d), got %d", recordIDTag, v.Number)
		}
		arr, ok := v.Content.([]any)
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
		id, ok := arr[1].(string)
		if !ok {
			return fmt.Errorf("invalid RecordID format: ID must be string")
		}
		return scanUUID(id, target)
	}
	return fmt.Errorf("cannot decode CBOR %T into product ID", raw)
}
