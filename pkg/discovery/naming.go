package discovery

import (
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
)

// ModelName converts a table name such as "product_order" to "ProductOrder".
// Runs of capitals are treated as words: "INVENTORY" becomes "Inventory".
func ModelName(table string) string {
	return strcase.ToCamel(table)
}

// PropertyName converts a column name such as "created_at" to "createdAt".
func PropertyName(column string) string {
	return strcase.ToLowerCamel(column)
}

// relationName derives a relation name from a foreign key column, dropping
// an "id" suffix: "customer_id" becomes "customer". Without the suffix the
// referenced model is used, unless several keys of the table point at the
// same model, in which case the column is used ("created_by" becomes
// "createdByRel"). The result never collides with the column property.
func relationName(column, refTable string, sharedTarget bool) string {
	prop := PropertyName(column)
	if trimmed := strings.TrimSuffix(prop, "Id"); trimmed != prop && trimmed != "" {
		return trimmed
	}
	if sharedTarget {
		return prop + "Rel"
	}
	name := PropertyName(refTable)
	if name == prop {
		name += "Rel"
	}
	return name
}

// uniqueName returns name, or name followed by the first free counter
// starting at 2.
func uniqueName[V any](name string, taken map[string]V) string {
	if _, ok := taken[name]; !ok {
		return name
	}
	for i := 2; ; i++ {
		candidate := name + strconv.Itoa(i)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
