package schemas

import "embed"

// SchemasFS содержит JSON-схемы ответов маркетплейса и событий.
//
//go:embed responses events
var SchemasFS embed.FS
