package storage

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

var pdfData = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

func TestValidate(t *testing.T) {
	store, err := NewStore(t.TempDir(), 32)
	require.NoError(t, err)

	ext, err := store.Validate(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, ".png", ext)

	_, err = store.Validate([]byte("just some text"))
	assert.True(t, errors.Is(err, ErrUnsupportedType))

	_, err = store.Validate(append(pdfData, make([]byte, 64)...))
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestSaveAndResolveContractFile(t *testing.T) {
	root := t.TempDir()
	store, err := NewStore(root, 0)
	require.NoError(t, err)

	name, err := store.SaveContractFile("CN-2024-1", "id photo", ".png", pngHeader)
	require.NoError(t, err)
	assert.Regexp(t, `^id_photo_\d+\.png$`, name)

	path, err := store.ContractFilePath("CN-2024-1", "../../"+name)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	_, err = store.ContractFilePath("CN-2024-1", "missing.png")
	assert.True(t, errors.Is(err, ErrNotExist))

	require.NoError(t, store.RemoveContractDir("CN-2024-1"))
	_, err = os.Stat(filepath.Join(root, "contracts", "CN-2024-1"))
	assert.True(t, os.IsNotExist(err))
}

func TestSaveSignedWritesBothPaths(t *testing.T) {
	root := t.TempDir()
	store, err := NewStore(root, 0)
	require.NoError(t, err)

	_, err = store.SignedPath("CN-2024-1")
	assert.True(t, errors.Is(err, ErrNotExist))

	require.NoError(t, store.SaveSigned("CN-2024-1", pdfData))
	assert.FileExists(t, filepath.Join(root, "contracts", "CN-2024-1", "signed_CN-2024-1.pdf"))

	path, err := store.SignedPath("CN-2024-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "signed_CN-2024-1.pdf"), path)
}

func TestDecodeDataURI(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pdfData)

	data, err := DecodeDataURI("data:application/pdf;base64," + encoded)
	require.NoError(t, err)
	assert.Equal(t, pdfData, data)

	data, err = DecodeDataURI(encoded)
	require.NoError(t, err)
	assert.Equal(t, pdfData, data)

	_, err = DecodeDataURI("data:image/png;base64,@@@")
	assert.True(t, errors.Is(err, ErrInvalidData))
}

func TestUnsafeContractIDsAreRejected(t *testing.T) {
	root := t.TempDir()
	store, err := NewStore(root, 0)
	require.NoError(t, err)

	_, err = store.SaveContractFile("CN-2024-1", "site", ".png", pngHeader)
	require.NoError(t, err)
	require.NoError(t, store.SaveSigned("CN-2024-1", []byte("%PDF-1.4")))

	for _, id := range []string{"", ".", "..", "../x", "a/b", `a\b`} {
		_, err := store.ContractDir(id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
		assert.ErrorIs(t, store.RemoveContractDir(id), ErrInvalidID, id)
		assert.ErrorIs(t, store.SaveSigned(id, []byte("%PDF-1.4")), ErrInvalidID, id)
		_, err = store.SaveContractFile(id, "site", ".png", pngHeader)
		assert.ErrorIs(t, err, ErrInvalidID, id)
		_, err = store.SignedPath(id)
		assert.ErrorIs(t, err, ErrNotExist, id)
	}

	// 其他合同的文件不受影响
	_, err = os.Stat(filepath.Join(root, "contracts", "CN-2024-1"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "signed_CN-2024-1.pdf"))
	assert.NoError(t, err)
}
