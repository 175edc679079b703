package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godsvagn/godsvagn/internal/models"
	"github.com/godsvagn/godsvagn/internal/utils"
)

func testPackage(name, version, arch, control string) models.Package {
	desc := "A tool\n for testing"
	return models.Package{
		Name:           name,
		Version:        version,
		Architecture:   arch,
		Control:        control,
		Size:           1234,
		Filepath:       "pool/ab/abcdef.deb",
		MD5:            []byte{0x01, 0x02},
		SHA1:           []byte{0x03, 0x04},
		SHA256:         []byte{0x05, 0x06},
		DescriptionMD5: utils.DescriptionDigest(desc),
	}
}

func TestBuildPackagesFileScenario(t *testing.T) {
	control := "Package: mytool\nVersion: 1.0.0\nArchitecture: amd64\nDescription: A tool\n for testing\n"
	pkg := testPackage("mytool", "1.0.0", "amd64", control)

	out, err := BuildPackagesFile([]models.Package{pkg})
	require.NoError(t, err)
	content := string(out)

	assert.Equal(t, 1, strings.Count(content, "Package: mytool\n"))
	assert.Contains(t, content, "Filename: pool/ab/abcdef.deb\n")
	assert.Contains(t, content, "Size: 1234\n")
	assert.Contains(t, content, "Description: A tool\n for testing\n")
	assert.Contains(t, content, "Description-md5: "+utils.Hex(utils.DescriptionDigest("A tool\n for testing"))+"\n")
	assert.Contains(t, content, "MD5sum: 0102\n")
	assert.Contains(t, content, "SHA1: 0304\n")
	assert.Contains(t, content, "SHA256: 0506\n")

	// One stanza, one trailing blank line.
	assert.True(t, strings.HasSuffix(content, "\n\n"))
	assert.Equal(t, 1, strings.Count(content, "\n\n"))
}

func TestBuildPackagesFileOverridesLayoutFields(t *testing.T) {
	// Stored control text carries stale layout fields; the catalog
	// row wins.
	control := "Package: mytool\nVersion: 1.0.0\nArchitecture: amd64\nFilename: wrong.deb\nSize: 9\nDescription: A tool\n"
	pkg := testPackage("mytool", "1.0.0", "amd64", control)

	out, err := BuildPackagesFile([]models.Package{pkg})
	require.NoError(t, err)
	content := string(out)

	assert.Contains(t, content, "Filename: pool/ab/abcdef.deb\n")
	assert.Contains(t, content, "Size: 1234\n")
	assert.NotContains(t, content, "wrong.deb")
	assert.NotContains(t, content, "Size: 9\n")
	// Overridden fields appear once only.
	assert.Equal(t, 1, strings.Count(content, "Filename: "))
	assert.Equal(t, 1, strings.Count(content, "Size: "))
}

func TestBuildPackagesFileOrdering(t *testing.T) {
	mk := func(name, version string) models.Package {
		control := "Package: " + name + "\nVersion: " + version + "\nArchitecture: amd64\nDescription: x\n"
		return testPackage(name, version, "amd64", control)
	}

	out, err := BuildPackagesFile([]models.Package{
		mk("zsh", "5.9"),
		mk("bash", "5.2"),
		mk("bash", "5.1"),
	})
	require.NoError(t, err)
	content := string(out)

	posBash51 := strings.Index(content, "Version: 5.1")
	posBash52 := strings.Index(content, "Version: 5.2")
	posZsh := strings.Index(content, "Package: zsh")
	assert.Less(t, posBash51, posBash52)
	assert.Less(t, posBash52, posZsh)
}

func TestBuildPackagesFileDeterministic(t *testing.T) {
	pkgs := []models.Package{
		testPackage("mytool", "1.0.0", "amd64", "Package: mytool\nVersion: 1.0.0\nArchitecture: amd64\nDescription: A tool\n"),
		testPackage("othertool", "2.0.0", "amd64", "Package: othertool\nVersion: 2.0.0\nArchitecture: amd64\nDescription: Another\n"),
	}

	first, err := BuildPackagesFile(pkgs)
	require.NoError(t, err)
	second, err := BuildPackagesFile(pkgs)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildPackagesFileEmpty(t *testing.T) {
	out, err := BuildPackagesFile(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestBuildPackagesFileBadStoredControl(t *testing.T) {
	pkg := testPackage("mytool", "1.0.0", "amd64", "garbage without colon\n")

	_, err := BuildPackagesFile([]models.Package{pkg})
	require.Error(t, err)
	assert.True(t, models.IsGeneration(err))
}
