// Package data embeds the reference data seeded into new databases.
package data

import (
	_ "embed"
)

// DocumentTypes is the retention schedule seed, a JSON array of document
// types.
//
//go:embed document_types.json
var DocumentTypes []byte
