package repository

// Blob keys. Three collections plus the first-run marker.
const (
	KeyProfile      = "csf:profile"
	KeyPeople       = "csf:people"
	KeyArtifacts    = "csf:artifacts"
	KeyBootstrapped = "csf:bootstrapped"
)
