package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lyzr/genstore/common/models"
)

func TestDeriveSchema_Python(t *testing.T) {
	files := models.FileSet{
		"models.py": []byte("class User:\n    pass\n\nclass Order:\n    pass\n"),
		"main.py":   []byte("@app.get(\"/users\")\ndef list_users(): ...\n\n@router.post('/orders')\ndef create_order(): ...\n"),
	}

	schema := DeriveSchema(files)

	assert.Equal(t, []string{"Order", "User"}, schema.Entities)
	assert.Equal(t, []string{"/orders", "/users"}, schema.Endpoints)
	assert.Equal(t, []string{"main.py", "models.py"}, schema.Files)
}

func TestDeriveSchema_GoAndTypeScript(t *testing.T) {
	files := models.FileSet{
		"server.go": []byte("type Server struct {\n}\n\nfunc routes(e *echo.Echo) {\n\te.GET(\"/health\", health)\n}\n"),
		"client.ts": []byte("export class ApiClient {}\n\nrouter.get('/items', handler)\n"),
		"readme.md": []byte("# not scanned\nclass Fake\n"),
	}

	schema := DeriveSchema(files)

	assert.ElementsMatch(t, []string{"Server", "ApiClient"}, schema.Entities)
	assert.ElementsMatch(t, []string{"/health", "/items"}, schema.Endpoints)
	assert.Len(t, schema.Files, 3)
}

func TestDeriveSchema_EmptySet(t *testing.T) {
	schema := DeriveSchema(models.FileSet{})

	assert.Empty(t, schema.Entities)
	assert.Empty(t, schema.Endpoints)
	assert.Empty(t, schema.Files)
}
