package source

import (
	"testing"

	"github.com/etnz/deb-builder/deb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermMapper(t *testing.T) {
	m := &PermMapper{
		Prefix:   "/opt/app",
		Strip:    1,
		User:     "app",
		UID:      intPtr(1000),
		Group:    "staff",
		GID:      intPtr(50),
		FileMode: "640",
		DirMode:  "750",
	}

	e, err := m.Map(deb.Entry{Name: "app-1.0/bin/run", User: "root", Mode: 0o755, Size: 3})
	require.NoError(t, err)
	assert.Equal(t, deb.Entry{Name: "/opt/app/bin/run", User: "app", UID: 1000, Group: "staff", GID: 50, Mode: 0o640, Size: 3}, e)

	e, err = m.Map(deb.Entry{Name: "app-1.0/bin/", Mode: 0o755})
	require.NoError(t, err)
	assert.Equal(t, "/opt/app/bin/", e.Name)
	assert.Equal(t, int64(0o750), e.Mode)
}

func TestPermMapperKeepsUnset(t *testing.T) {
	m := &PermMapper{}
	in := deb.Entry{Name: "usr/bin/app", User: "root", UID: 0, Group: "root", Mode: 0o755}
	out, err := m.Map(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	var nilMapper *PermMapper
	out, err = nilMapper.Map(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStripComponents(t *testing.T) {
	assert.Equal(t, "bin/app", stripComponents("usr/bin/app", 1))
	assert.Equal(t, "app", stripComponents("usr/bin/app", 2))
	assert.Equal(t, "usr/bin/app", stripComponents("usr/bin/app", 3))
	assert.Equal(t, "usr/bin/app", stripComponents("usr/bin/app", 0))
}
