package constants

// Category is one of the four production output buckets a workspace stages
// files into. Each category is a top-level subtree of both the workspace root
// and the production root.
type Category string

// Default artifact categories.
const (
	// CategoryScripts holds generated scripts.
	CategoryScripts Category = "scripts"

	// CategoryCommands holds generated command definitions.
	CategoryCommands Category = "commands"

	// CategoryAgents holds generated agent definitions.
	CategoryAgents Category = "agents"

	// CategorySkills holds generated skill bundles.
	CategorySkills Category = "skills"
)

// CategoryCount is the fixed number of artifact categories.
const CategoryCount = 4

// DefaultCategories returns the default category set in canonical order.
func DefaultCategories() []Category {
	return []Category{CategoryScripts, CategoryCommands, CategoryAgents, CategorySkills}
}

// String returns the directory name of the category.
func (c Category) String() string {
	return string(c)
}
