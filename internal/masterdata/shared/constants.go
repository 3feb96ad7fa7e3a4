package shared

const (
	// MaxDescriptionLength caps the description box of every entity form.
	MaxDescriptionLength = 500

	// Allowed characters
	NamePattern    = `^[A-Za-z0-9\s]+$`
	ContactPattern = `^[A-Za-z0-9\s+\-()]*$`

	// Stretched grid column
	DescriptionHeader = "Description"
)

// StatusOptions are the selectable record states.
var StatusOptions = []string{"Active", "Inactive"}
