package llm

import "strings"

// Model describes a model alias accepted by the claude CLI.
type Model struct {
	Name        string
	Label       string
	Description string
}

// Models lists the aliases the analyze command accepts.
var Models = []Model{
	{Name: "sonnet", Label: "Claude Sonnet", Description: "default, balanced"},
	{Name: "opus", Label: "Claude Opus", Description: "most capable"},
	{Name: "haiku", Label: "Claude Haiku", Description: "fastest"},
}

// IsKnownModel reports whether name is one of Models.
func IsKnownModel(name string) bool {
	name = normalizeModel(name)
	for _, m := range Models {
		if m.Name == name {
			return true
		}
	}
	return false
}

// ModelNames returns the aliases joined for help text.
func ModelNames() string {
	names := make([]string, 0, len(Models))
	for _, m := range Models {
		names = append(names, m.Name)
	}
	return strings.Join(names, ", ")
}
