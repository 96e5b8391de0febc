package services

import (
	"strings"

	"bulletin-etl/models"
)

type itemRule struct {
	fragment  string
	canonical string
}

// itemRules restores labels that a line wrap in the bulletin cuts short.
// Matching is case-sensitive and the first matching rule wins.
var itemRules = []itemRule{
	{fragment: "- Small", canonical: "Pineapple - Small"},
	{fragment: "- Medium", canonical: "Pineapple - Medium"},
	{fragment: "- Karathakol", canonical: "Mango - Karthakolomban"},
}

// CanonicalItemName maps a known fragment to its full item label.
func CanonicalItemName(name string) string {
	for _, r := range itemRules {
		if strings.Contains(name, r.fragment) {
			return r.canonical
		}
	}
	return name
}

// CanonicalizeItems rewrites ItemName on every record in place.
func CanonicalizeItems(records []models.LongRecord) {
	for i := range records {
		records[i].ItemName = CanonicalItemName(records[i].ItemName)
	}
}
