package models

// StorageKind discriminates where a file's bytes physically live.
type StorageKind string

const (
	// StorageLocal means the bytes are a file under the local upload root.
	StorageLocal StorageKind = "local"
	// StorageRemote means the bytes live on the remote blob host and are
	// served at a public URL.
	StorageRemote StorageKind = "remote"
)

// StorageRef is a tagged reference to a file's byte source. Exactly one of
// Path or URL is meaningful, selected by Kind. A zero StorageRef resolves
// to nothing.
type StorageRef struct {
	Kind StorageKind `bson:"kind"`
	Path string      `bson:"path,omitempty"` // set when Kind == StorageLocal
	URL  string      `bson:"url,omitempty"`  // set when Kind == StorageRemote
}

// LocalRef returns a StorageRef for bytes stored under the local upload root.
func LocalRef(path string) StorageRef {
	return StorageRef{Kind: StorageLocal, Path: path}
}

// RemoteRef returns a StorageRef for bytes hosted at a public URL.
func RemoteRef(url string) StorageRef {
	return StorageRef{Kind: StorageRemote, URL: url}
}

// IsRemote returns true if the bytes live on the remote blob host.
func (r StorageRef) IsRemote() bool {
	return r.Kind == StorageRemote && r.URL != ""
}

// IsLocal returns true if the bytes live under the local upload root.
func (r StorageRef) IsLocal() bool {
	return r.Kind == StorageLocal && r.Path != ""
}

// IsZero returns true if the ref points at nothing.
func (r StorageRef) IsZero() bool {
	return !r.IsRemote() && !r.IsLocal()
}
