package mcp

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/a3tai/mcp-doc-verifier/internal/boq"
	"github.com/a3tai/mcp-doc-verifier/internal/session"
)

// parseRows accepts an array of {designator, quantity} objects or "D=Q"
// strings, a JSON encoding of such an array, or newline separated "D=Q" lines.
func parseRows(raw interface{}) ([]boq.Row, error) {
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("rows is required")
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "[") {
			var decoded []interface{}
			if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
				return nil, fmt.Errorf("rows is not a valid JSON array: %w", err)
			}
			return parseRows(decoded)
		}
		var rows []boq.Row
		for _, line := range strings.FieldsFunc(trimmed, func(r rune) bool { return r == '\n' || r == ';' }) {
			if line = strings.TrimSpace(line); line == "" {
				continue
			}
			row, err := boq.ParseRow(line)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		return rows, nil
	case []interface{}:
		rows := make([]boq.Row, 0, len(v))
		for i, item := range v {
			row, err := parseRowItem(item)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			rows = append(rows, row)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("rows must be an array, got %T", raw)
	}
}

func parseRowItem(item interface{}) (boq.Row, error) {
	switch v := item.(type) {
	case string:
		return boq.ParseRow(v)
	case map[string]interface{}:
		designator, _ := v["designator"].(string)
		quantity, err := toInt(v["quantity"])
		if err != nil {
			return boq.Row{}, fmt.Errorf("quantity: %w", err)
		}
		return boq.Row{Designator: strings.TrimSpace(designator), Quantity: quantity}, nil
	default:
		return boq.Row{}, fmt.Errorf("expected an object or \"D=Q\" string, got %T", item)
	}
}

// toInt converts the number shapes a JSON decoder produces
func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not a whole number", n)
		}
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	case nil:
		return 0, fmt.Errorf("missing")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// parseVerdicts accepts an object mapping designators to a verdict string or
// a {verdict, notes} object, or a JSON encoding of that object.
func parseVerdicts(raw interface{}) (map[string]session.Review, error) {
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("verdicts is required")
	case string:
		var decoded map[string]interface{}
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil, fmt.Errorf("verdicts is not a valid JSON object: %w", err)
		}
		return parseVerdicts(decoded)
	case map[string]interface{}:
		reviews := make(map[string]session.Review, len(v))
		for designator, entry := range v {
			review, err := parseReview(entry)
			if err != nil {
				return nil, fmt.Errorf("designator %q: %w", designator, err)
			}
			reviews[strings.TrimSpace(designator)] = review
		}
		return reviews, nil
	default:
		return nil, fmt.Errorf("verdicts must be an object, got %T", raw)
	}
}

func parseReview(entry interface{}) (session.Review, error) {
	switch e := entry.(type) {
	case string:
		return session.Review{Verdict: session.Verdict(e)}, nil
	case map[string]interface{}:
		verdict, _ := e["verdict"].(string)
		notes, _ := e["notes"].(string)
		return session.Review{Verdict: session.Verdict(verdict), Notes: notes}, nil
	default:
		return session.Review{}, fmt.Errorf("expected a verdict string or object, got %T", entry)
	}
}
