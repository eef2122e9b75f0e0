package classify

import "finch/internal/core"

// categoryNames translates raw class ids into category names. The table is
// fixed at training time; ids 4 and 5 both map to Health because the
// training data labeled those two classes with the same category.
var categoryNames = map[int]string{
	1:  "Entertainment",
	2:  "Finance",
	3:  "Food_Drinks",
	4:  "Health",
	5:  "Health",
	6:  "Housing",
	7:  "Insurance",
	8:  "Lifestyle",
	9:  "Loans",
	10: "Shopping",
	11: "Technology",
	12: "Transportation",
	13: "Travel",
	14: "Utilities",
}

// CategoryName resolves a class id to its category name. Ids outside the
// table resolve to Uncategorized.
func CategoryName(id int) string {
	if name, ok := categoryNames[id]; ok {
		return name
	}
	return core.Uncategorized
}

// Categories returns the distinct category names in id order, useful for
// budget forms and validation lists.
func Categories() []string {
	names := make([]string, 0, len(categoryNames))
	seen := make(map[string]bool, len(categoryNames))
	for id := 1; id <= len(categoryNames); id++ {
		name, ok := categoryNames[id]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
