package deb

import (
	"encoding/json"
	"fmt"
)

// Listener is a callback function that receives events during the build process.
type Listener func(fmt.Stringer)

// Emit sends e to the listener, if any.
func (l Listener) Emit(e fmt.Stringer) {
	if l != nil {
		l(e)
	}
}

func jsonString(v interface{}) string {
	b, _ := json.Marshal(map[string]interface{}{
		fmt.Sprintf("%T", v): v,
	})
	return string(b)
}

// EventDirectory is emitted when a directory entry is written to the data archive.
type EventDirectory struct {
	Path string `json:"path"`
	Mode int64  `json:"mode"`
}

func (e EventDirectory) String() string { return jsonString(e) }

// EventFile is emitted when a file entry is written to the data archive.
type EventFile struct {
	Path  string `json:"path"`
	Size  int64  `json:"size"`
	Mode  int64  `json:"mode"`
	User  string `json:"user,omitempty"`
	UID   int    `json:"uid"`
	Group string `json:"group,omitempty"`
	GID   int    `json:"gid"`
	MD5   string `json:"md5"`
}

func (e EventFile) String() string { return jsonString(e) }

// EventDataBuilt is emitted once the data archive is complete.
type EventDataBuilt struct {
	Size  uint64 `json:"size"`
	Files int    `json:"files"`
}

func (e EventDataBuilt) String() string { return jsonString(e) }

// EventControlBuilt is emitted once the control archive is complete.
type EventControlBuilt struct {
	Package       string `json:"package,omitempty"`
	Version       string `json:"version,omitempty"`
	InstalledSize string `json:"installed_size,omitempty"`
}

func (e EventControlBuilt) String() string { return jsonString(e) }

// EventPackageWrite is emitted when the .deb has been written.
type EventPackageWrite struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

func (e EventPackageWrite) String() string { return jsonString(e) }
