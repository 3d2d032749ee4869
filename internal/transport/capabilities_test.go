package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/peersync/internal/models"
)

func TestCompatible(t *testing.T) {
	tests := []struct {
		local   map[string]string
		remote  map[string]string
		name    string
		wantErr bool
	}{
		{
			name:   "same version",
			local:  map[string]string{"theme_sync": "1.0"},
			remote: map[string]string{"theme_sync": "1.0"},
		},
		{
			name:   "minor difference",
			local:  map[string]string{"theme_sync": "1.0"},
			remote: map[string]string{"theme_sync": "1.4.2"},
		},
		{
			name:    "major difference",
			local:   map[string]string{"theme_sync": "1.0"},
			remote:  map[string]string{"theme_sync": "2.0"},
			wantErr: true,
		},
		{
			name:   "disjoint capabilities",
			local:  map[string]string{"theme_sync": "1.0"},
			remote: map[string]string{"bookmark_sync": "3.0"},
		},
		{
			name:    "garbage remote version",
			local:   map[string]string{"theme_sync": "1.0"},
			remote:  map[string]string{"theme_sync": "latest"},
			wantErr: true,
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Compatible(tt.local, tt.remote)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		AppID:        "reader",
		ServiceName:  "peersync.theme",
		Schema:       models.Schema{{Name: "name", Type: models.FieldString}},
		Capabilities: map[string]string{"theme_sync": "1.0"},
	}
	assert.NoError(t, valid.Validate())

	noApp := valid
	noApp.AppID = ""
	assert.Error(t, noApp.Validate())

	noService := valid
	noService.ServiceName = ""
	assert.Error(t, noService.Validate())

	badSchema := valid
	badSchema.Schema = nil
	assert.ErrorIs(t, badSchema.Validate(), models.ErrInvalidSchema)

	badCaps := valid
	badCaps.Capabilities = map[string]string{"theme_sync": "one"}
	assert.Error(t, badCaps.Validate())
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "updated", OpUpdated.String())
	assert.Equal(t, "deleted", OpDeleted.String())
	assert.Equal(t, "op(9)", Op(9).String())
}
