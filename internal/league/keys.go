package league

import (
	"strings"

	"github.com/yourusername/sports-sims/internal/datasource"
)

// ResolveKeys expands configured tokens into concrete competition keys.
// Tokens ending in "_" are prefixes matched against the provider catalog and
// kept only when admitted. Exact soccer and tennis tokens must pass IsAllowed;
// other exact tokens pass through. Order of first appearance is preserved.
func ResolveKeys(tokens []string, competitions []datasource.Competition) []string {
	seen := make(map[string]struct{})
	keys := make([]string, 0, len(tokens))
	add := func(k string) {
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	for _, raw := range tokens {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		if strings.HasSuffix(token, "_") {
			for _, c := range competitions {
				if strings.HasPrefix(c.Key, token) && Admit(c.Key) {
					add(c.Key)
				}
			}
			continue
		}
		if Blocked(token) {
			continue
		}
		add(token)
	}
	return keys
}

// NeedsCatalog reports whether any token is a prefix requiring the provider catalog
func NeedsCatalog(tokens []string) bool {
	for _, t := range tokens {
		if strings.HasSuffix(strings.TrimSpace(t), "_") {
			return true
		}
	}
	return false
}

// FilterKeys keeps keys present in include (when non-empty) and absent from exclude
func FilterKeys(keys, include, exclude []string) []string {
	inc := toSet(include)
	exc := toSet(exclude)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if len(inc) > 0 {
			if _, ok := inc[k]; !ok {
				continue
			}
		}
		if _, ok := exc[k]; ok {
			continue
		}
		out = append(out, k)
	}
	return out
}

// ParseCSV splits a comma separated list, trimming blanks
func ParseCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
