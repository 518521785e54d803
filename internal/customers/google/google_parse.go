package google

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ledgerbilling/internal/customers"
)

// parseCustomers converts a values matrix into customers. The header row must
// name a Name column; Address and ID are optional. Rows without a name are
// skipped.
func parseCustomers(values [][]interface{}) ([]customers.Customer, error) {
	list := make([]customers.Customer, 0)
	if len(values) == 0 {
		return list, nil
	}
	headers := toStrings(values[0])
	colName := indexOf(headers, "Name")
	colAddress := indexOf(headers, "Address")
	colID := indexOf(headers, "ID")
	if colName == -1 {
		return nil, fmt.Errorf("unexpected customer header: missing Name; got headers=%v", headers)
	}

	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		name := safeGet(row, colName)
		if name == "" {
			continue
		}
		c := customers.Customer{
			Name: name,
			// Multi-line addresses are typed with literal "\n" in cells.
			Address: strings.ReplaceAll(safeGet(row, colAddress), `\n`, "\n"),
		}
		if raw := safeGet(row, colID); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid customer id %q: %w", i+1, raw, err)
			}
			c.ID = id
		}
		list = append(list, customers.Normalize(c))
	}
	return list, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
