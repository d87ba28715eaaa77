package manifest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickops/quicksuite-admin/internal/domain"
)

type memFetcher struct {
	objects map[string][]byte
}

func (m *memFetcher) Fetch(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func writeTempManifest(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

const jsonManifest = `{
  "users": [
    {
      "username": "jdoe",
      "email": "jdoe@example.com",
      "given_name": "Jane",
      "family_name": "Doe",
      "group": "QUICK_SUITE_PRO"
    }
  ]
}`

const yamlManifest = `users:
  - username: jdoe
    email: jdoe@example.com
    given_name: Jane
    family_name: Doe
    group: QUICK_SUITE_ADMIN
`

func TestLoader_Load_JSON(t *testing.T) {
	loader := NewLoader(nil, domain.DefaultRoleMapping())
	p := writeTempManifest(t, "users.json", jsonManifest)

	m, err := loader.Load(context.Background(), p)

	require.NoError(t, err)
	require.Len(t, m.Users, 1)
	assert.Equal(t, "jdoe", m.Users[0].Username)
	assert.Equal(t, "Jane", m.Users[0].GivenName)
	assert.Equal(t, domain.GroupProfessional, m.Users[0].Group)
}

func TestLoader_Load_YAML(t *testing.T) {
	loader := NewLoader(nil, domain.DefaultRoleMapping())
	p := writeTempManifest(t, "users.yaml", yamlManifest)

	m, err := loader.Load(context.Background(), p)

	require.NoError(t, err)
	require.Len(t, m.Users, 1)
	assert.Equal(t, domain.GroupAdmin, m.Users[0].Group)
}

func TestLoader_Load_S3Path(t *testing.T) {
	fetcher := &memFetcher{objects: map[string][]byte{
		"ops-bucket/manifests/users.json": []byte(jsonManifest),
	}}
	loader := NewLoader(fetcher, domain.DefaultRoleMapping())

	m, err := loader.Load(context.Background(), "s3://ops-bucket/manifests/users.json")

	require.NoError(t, err)
	require.Len(t, m.Users, 1)
}

func TestLoader_Load_S3WithoutFetcher(t *testing.T) {
	loader := NewLoader(nil, domain.DefaultRoleMapping())

	_, err := loader.Load(context.Background(), "s3://ops-bucket/users.json")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestLoader_Load_RejectsInvalidEntry(t *testing.T) {
	loader := NewLoader(nil, domain.DefaultRoleMapping())
	p := writeTempManifest(t, "users.json", `{"users":[{"username":"jdoe","email":"broken","given_name":"J","family_name":"D"}]}`)

	_, err := loader.Load(context.Background(), p)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestLoader_Load_RejectsMalformedJSON(t *testing.T) {
	loader := NewLoader(nil, domain.DefaultRoleMapping())
	p := writeTempManifest(t, "users.json", `{"users": [`)

	_, err := loader.Load(context.Background(), p)

	require.Error(t, err)
}

func TestSplitS3Path(t *testing.T) {
	tests := []struct {
		in     string
		bucket string
		key    string
		ok     bool
	}{
		{"s3://bucket/key.json", "bucket", "key.json", true},
		{"s3://bucket/nested/key.yaml", "bucket", "nested/key.yaml", true},
		{"s3://bucket", "", "", false},
		{"/local/path.json", "", "", false},
	}

	for _, tt := range tests {
		bucket, key, ok := splitS3Path(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.bucket, bucket, tt.in)
		assert.Equal(t, tt.key, key, tt.in)
	}
}
