package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductFromURL(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		wantName    string
		wantDisplay string
	}{
		{
			name:        "idea download page",
			url:         "https://www.jetbrains.com/idea/download/other.html",
			wantName:    "idea",
			wantDisplay: "Idea",
		},
		{
			name:        "goland download page",
			url:         "https://www.jetbrains.com/goland/download/other.html",
			wantName:    "goland",
			wantDisplay: "Goland",
		},
		{
			name:        "unrecognised host falls back",
			url:         "https://example.com/downloads",
			wantName:    "jetbrains",
			wantDisplay: "Jetbrains",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ProductFromURL(tt.url)
			assert.Equal(t, tt.wantName, p.Name)
			assert.Equal(t, tt.wantDisplay, p.DisplayName)
		})
	}
}

func TestProduct_Naming(t *testing.T) {
	p := ProductFromURL("https://www.jetbrains.com/idea/download/other.html")

	assert.Equal(t, "idea-ultimate", p.EditionName(EditionUltimate))
	assert.Equal(t, "Idea Community", p.EditionDisplay(EditionCommunity))
	assert.Equal(t, "idea-ultimate-2024.2", p.ReleaseTag(EditionUltimate, "2024.2"))
	assert.Equal(t, "Idea Ultimate", p.Key())
}

func TestEditions_UltimateFirst(t *testing.T) {
	assert.Equal(t, []Edition{EditionUltimate, EditionCommunity}, Editions())
}

func TestSyncState_VersionOnNil(t *testing.T) {
	var state *SyncState
	assert.Equal(t, "", state.Version("Idea Ultimate"))
}

func TestSyncState_SetRecordInitialisesMap(t *testing.T) {
	state := &SyncState{}
	state.SetRecord("Idea Ultimate", SyncRecord{Version: "2024.2"})
	assert.Equal(t, "2024.2", state.Version("Idea Ultimate"))
}
