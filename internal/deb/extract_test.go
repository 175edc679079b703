package deb_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godsvagn/godsvagn/internal/deb"
	"github.com/godsvagn/godsvagn/internal/deb/debtest"
	"github.com/godsvagn/godsvagn/internal/models"
)

func TestExtractControlAllCompressions(t *testing.T) {
	control := debtest.ControlFor("mytool", "1.0.0", "amd64", "A tool\n for testing")

	for _, comp := range []debtest.Compression{debtest.None, debtest.Gzip, debtest.Xz, debtest.Zstd} {
		t.Run(string(comp), func(t *testing.T) {
			data, err := debtest.BuildDeb(control, comp)
			require.NoError(t, err)

			stanza, raw, err := deb.ExtractControl(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, control, raw)

			name, _ := stanza.Get("Package")
			assert.Equal(t, "mytool", name)
			desc, _ := stanza.Get("Description")
			assert.Equal(t, "A tool\n for testing", desc)
		})
	}
}

func TestExtractControlNotAnArchive(t *testing.T) {
	_, _, err := deb.ExtractControl(bytes.NewReader([]byte("definitely not a deb")))
	require.Error(t, err)
	assert.True(t, models.IsParse(err))
}

func TestExtractControlTruncated(t *testing.T) {
	control := debtest.ControlFor("mytool", "1.0.0", "amd64", "A tool")
	data, err := debtest.BuildDeb(control, debtest.Gzip)
	require.NoError(t, err)

	_, _, err = deb.ExtractControl(bytes.NewReader(data[:len(data)/2]))
	require.Error(t, err)
	assert.True(t, models.IsParse(err))
}

func TestExtractControlMissingRequiredField(t *testing.T) {
	// No Description field.
	control := "Package: mytool\nVersion: 1.0.0\nArchitecture: amd64\n"
	data, err := debtest.BuildDeb(control, debtest.Gzip)
	require.NoError(t, err)

	_, _, err = deb.ExtractControl(bytes.NewReader(data))
	require.Error(t, err)
	assert.True(t, models.IsParse(err))
	assert.Contains(t, err.Error(), "Description")
}

func TestExtractControlNoControlMember(t *testing.T) {
	// An ar archive with only a debian-binary member.
	var buf bytes.Buffer
	buf.WriteString("!<arch>\n")
	buf.WriteString("debian-binary   0           0     0     100644  4         `\n2.0\n")

	_, _, err := deb.ExtractControl(&buf)
	require.Error(t, err)
	assert.True(t, models.IsParse(err))
}
