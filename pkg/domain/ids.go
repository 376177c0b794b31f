// Package domain holds the typed primitives shared across modules: entity
// identifiers, the record status machine, and the deduction category
// enumeration. IDs are distinct types over uuid.UUID so the compiler rejects
// cross-entity mixups; parsing validates at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "taxrelief/pkg/domain-errors"
)

// RecordID identifies a single expense or revenue line item.
type RecordID uuid.UUID

// ProjectID identifies the R&D project a record belongs to.
type ProjectID uuid.UUID

// AssetID identifies a qualifying intellectual-property asset.
type AssetID uuid.UUID

// NewRecordID returns a fresh random record identifier.
func NewRecordID() RecordID { return RecordID(uuid.New()) }

// NewProjectID returns a fresh random project identifier.
func NewProjectID() ProjectID { return ProjectID(uuid.New()) }

// NewAssetID returns a fresh random asset identifier.
func NewAssetID() AssetID { return AssetID(uuid.New()) }

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be the nil UUID")
	}
	return u, nil
}

// ParseRecordID validates and returns a RecordID.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s, "record id")
	return RecordID(u), err
}

// ParseProjectID validates and returns a ProjectID.
func ParseProjectID(s string) (ProjectID, error) {
	u, err := parseUUID(s, "project id")
	return ProjectID(u), err
}

// ParseAssetID validates and returns an AssetID.
func ParseAssetID(s string) (AssetID, error) {
	u, err := parseUUID(s, "asset id")
	return AssetID(u), err
}

func (id RecordID) String() string  { return uuid.UUID(id).String() }
func (id ProjectID) String() string { return uuid.UUID(id).String() }
func (id AssetID) String() string   { return uuid.UUID(id).String() }

func (id RecordID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ProjectID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AssetID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// IDs travel as canonical UUID strings on every wire format.

func (id RecordID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id ProjectID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id AssetID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }

func (id *RecordID) UnmarshalText(data []byte) error  { return (*uuid.UUID)(id).UnmarshalText(data) }
func (id *ProjectID) UnmarshalText(data []byte) error { return (*uuid.UUID)(id).UnmarshalText(data) }
func (id *AssetID) UnmarshalText(data []byte) error   { return (*uuid.UUID)(id).UnmarshalText(data) }
