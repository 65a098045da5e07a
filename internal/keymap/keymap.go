// Package keymap is the static keyboard-shortcut table consumed by help
// surfaces. It holds no logic beyond lookup.
package keymap

const (
	CategoryNavigation = "navigation"
	CategorySelection  = "selection"
	CategoryEditing    = "editing"
	CategoryView       = "view"
)

type Shortcut struct {
	Keys        string `json:"keys"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

var shortcuts = []Shortcut{
	{Keys: "ArrowLeft/ArrowRight", Description: "Move one slot earlier/later", Category: CategoryNavigation},
	{Keys: "ArrowUp/ArrowDown", Description: "Move to the previous/next table", Category: CategoryNavigation},
	{Keys: "Home/End", Description: "Jump to start/end of service", Category: CategoryNavigation},
	{Keys: "T", Description: "Go to today", Category: CategoryNavigation},
	{Keys: "Click", Description: "Select a reservation", Category: CategorySelection},
	{Keys: "Ctrl+Click", Description: "Toggle a reservation in the selection", Category: CategorySelection},
	{Keys: "Escape", Description: "Clear the selection", Category: CategorySelection},
	{Keys: "Enter", Description: "Edit the selected reservation", Category: CategoryEditing},
	{Keys: "Ctrl+D", Description: "Duplicate the selected reservations", Category: CategoryEditing},
	{Keys: "Delete/Backspace", Description: "Delete the selected reservations", Category: CategoryEditing},
	{Keys: "Ctrl+C", Description: "Copy the selected reservations", Category: CategoryEditing},
	{Keys: "Ctrl+V", Description: "Paste at the selected slot", Category: CategoryEditing},
	{Keys: "Ctrl+Z", Description: "Undo the last action", Category: CategoryEditing},
	{Keys: "Ctrl+Shift+Z", Description: "Redo the last undone action", Category: CategoryEditing},
	{Keys: "+/-", Description: "Zoom the grid in/out", Category: CategoryView},
	{Keys: "1/3/7", Description: "Day, 3-day or week view", Category: CategoryView},
	{Keys: "/", Description: "Focus the search box", Category: CategoryView},
}

// All returns the full shortcut table in display order.
func All() []Shortcut {
	return append([]Shortcut(nil), shortcuts...)
}

// ByCategory returns the shortcuts of one category, preserving order.
func ByCategory(category string) []Shortcut {
	var out []Shortcut
	for _, s := range shortcuts {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range shortcuts {
		if !seen[s.Category] {
			seen[s.Category] = true
			out = append(out, s.Category)
		}
	}
	return out
}
