package lcu

import (
	"encoding/json"
	"testing"
)

func TestParticipantStats_WireKeys(t *testing.T) {
	payload := []byte(`{
		"participantId": 1,
		"stats": {
			"totalShieldedOnTeammates": 1234,
			"totalHeal": 800,
			"timeCCingOthers": 21,
			"visionWardsBoughtInGame": 4
		}
	}`)

	var p ParticipantData
	if err := json.Unmarshal(payload, &p); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if p.Stats.TotalShieldedOnTeammates != 1234 {
		t.Errorf("Expected shielded 1234, got %d", p.Stats.TotalShieldedOnTeammates)
	}
	if p.Stats.TotalHeal != 800 || p.Stats.TimeCCingOthers != 21 {
		t.Errorf("Unexpected heal/cc: %d %d", p.Stats.TotalHeal, p.Stats.TimeCCingOthers)
	}
	if p.Stats.VisionWardsBoughtInGame != 4 {
		t.Errorf("Expected 4 control wards, got %d", p.Stats.VisionWardsBoughtInGame)
	}
}
