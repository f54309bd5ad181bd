// Package classify decides, per acquisition, whether the 4-D volume is an
// already-subtracted difference series or an alternating control/label
// series. It uses a three-tier fallback: an explicit per-run context table,
// unsupervised intensity clustering, and finally a positional heuristic.
package classify

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Role is one volume's role as declared in a context table.
type Role int

const (
	Control Role = iota
	Label
	Difference
)

func (r Role) String() string {
	switch r {
	case Control:
		return "control"
	case Label:
		return "label"
	default:
		return "deltam"
	}
}

// roleTokens maps accepted context-table tokens (lower-cased) to roles.
var roleTokens = map[string]Role{
	"control": Control,
	"label":   Label,
	"deltam":  Difference,
}

// ParseContextFile reads a per-run context table: one role per data row,
// first whitespace-delimited token, optionally preceded by a header row.
// The header row is recognized by its first token being neither a role
// token nor a number.
func ParseContextFile(path string) ([]Role, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var roles []Role
	first := true
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		token := strings.ToLower(fields[0])
		role, ok := roleTokens[token]
		if !ok {
			if first {
				if _, err := strconv.ParseFloat(token, 64); err != nil {
					// Header row.
					first = false
					continue
				}
			}
			return nil, fmt.Errorf("%s: unrecognized volume role %q", path, fields[0])
		}
		roles = append(roles, role)
		first = false
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("%s: context table has no data rows", path)
	}
	return roles, nil
}
