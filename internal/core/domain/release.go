package domain

// Release identifies a release on the hosting platform. It is owned by
// the platform; we only carry the fields the workflow needs.
type Release struct {
	// ID is the platform's numeric release identifier.
	ID int64

	// TagName is the tag the release is published under.
	TagName string

	// Name is the human-readable release title.
	Name string
}

// Asset is a single named binary file attached to a release.
// Asset names are unique within a release.
type Asset struct {
	ID   int64
	Name string
	Size int64
}
