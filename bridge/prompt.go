package bridge

import (
	"fmt"
	"strings"

	"workshop_tool_inventory/db"
)

const schemaDescription = `Database schema:
- items table: id, catalog_id, name, brand, equipment, stock, available, location, notes
- employees table: id, name, employee_code, department, active
- loans table: id, item_id, employee_id, quantity, returned_quantity, checkout_at, expected_return, returned_at, location, order_ref, status ('active' or 'returned')`

func sqlPrompt(dialect, query string) string {
	name := "SQLite"
	if dialect == "postgres" {
		name = "PostgreSQL"
	}
	return fmt.Sprintf(`You are a SQL expert. Convert this natural language query to a single read-only %s SELECT query.

%s

Natural language query: %s

Return ONLY the SQL query, nothing else. No explanations, just the SQL.
SQL:`, name, schemaDescription, query)
}

func classifyPrompt(input string) string {
	return fmt.Sprintf(`Analyze this user input and determine if it's:
1. A QUERY (asking for information)
2. A CHECKOUT command (checking out items)
3. A CHECKIN command (returning items)
4. An ADD command (adding new items)
5. OTHER

User input: %s

Respond with just the category (QUERY, CHECKOUT, CHECKIN, ADD, or OTHER):`, input)
}

// FormatRows renders one line per row with values joined by " | ".
func FormatRows(res *db.QueryResult) string {
	if res == nil || len(res.Rows) == 0 {
		return NoResults
	}
	lines := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		vals := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				vals[i] = "NULL"
				continue
			}
			vals[i] = fmt.Sprint(v)
		}
		lines = append(lines, strings.Join(vals, " | "))
	}
	return strings.Join(lines, "\n")
}
