package manifest

import (
	"encoding/json"
	"fmt"
)

func jsonString(v interface{}) string {
	b, _ := json.Marshal(map[string]interface{}{
		fmt.Sprintf("%T", v): v,
	})
	return string(b)
}

// EventManifestLoaded is emitted when a package definition has been parsed.
type EventManifestLoaded struct {
	Path string `json:"path,omitempty"`
}

func (e EventManifestLoaded) String() string { return jsonString(e) }

// EventPackageBuilt is emitted when a .deb has been written.
type EventPackageBuilt struct {
	Manifest     string `json:"manifest,omitempty"`
	Output       string `json:"output,omitempty"`
	Package      string `json:"package,omitempty"`
	Version      string `json:"version,omitempty"`
	Architecture string `json:"architecture,omitempty"`
}

func (e EventPackageBuilt) String() string { return jsonString(e) }

// EventChangesWritten is emitted when a .changes document has been written.
type EventChangesWritten struct {
	Output string `json:"output,omitempty"`
	// SigningKey is the key requested for signing, empty for unsigned
	// documents.
	SigningKey string `json:"signing_key,omitempty"`
}

func (e EventChangesWritten) String() string { return jsonString(e) }
