package aliasing

import (
	"log/slog"
	"strings"
)

// Resolver maps CSV headers to canonical field names.
// Thread-safe for concurrent use (immutable after construction).
//
// Resolution is a two-step transform: headers are lowercased and trimmed,
// then looked up in the alias table. Headers without an alias pass through
// unchanged, so an export that already uses canonical names needs no
// configuration at all.
type Resolver struct {
	aliases map[string]string
}

// NewResolver creates a resolver from config.
//
// Alias entries with an empty alias or canonical name are skipped with a
// warning. If config is nil or has no aliases, the resolver is a passthrough.
func NewResolver(cfg *Config) *Resolver {
	if cfg == nil || len(cfg.ColumnAliases) == 0 {
		return &Resolver{aliases: map[string]string{}}
	}

	aliases := make(map[string]string, len(cfg.ColumnAliases))

	for alias, canonical := range cfg.ColumnAliases {
		alias = normalizeHeader(alias)
		canonical = normalizeHeader(canonical)

		if alias == "" || canonical == "" {
			slog.Warn("Skipping invalid column alias",
				slog.String("alias", alias),
				slog.String("canonical", canonical))

			continue
		}

		aliases[alias] = canonical
	}

	return &Resolver{aliases: aliases}
}

// Resolve returns the canonical field name for a CSV header.
func (r *Resolver) Resolve(header string) string {
	normalized := normalizeHeader(header)

	if canonical, ok := r.aliases[normalized]; ok {
		return canonical
	}

	return normalized
}

// ResolveAll maps a full header row to canonical field names.
func (r *Resolver) ResolveAll(headers []string) []string {
	resolved := make([]string, len(headers))
	for i, header := range headers {
		resolved[i] = r.Resolve(header)
	}

	return resolved
}

// Len returns the number of configured aliases.
func (r *Resolver) Len() int {
	return len(r.aliases)
}

// normalizeHeader lowercases and trims a header name. A UTF-8 byte order mark
// left by spreadsheet exports is stripped as well.
func normalizeHeader(header string) string {
	header = strings.TrimPrefix(header, "\uFEFF")

	return strings.ToLower(strings.TrimSpace(header))
}
