package domain

import "testing"

func TestTierForBalance(t *testing.T) {
	tests := []struct {
		balance int
		want    Tier
	}{
		{0, TierNuevo},
		{49, TierNuevo},
		{50, TierActivo},
		{99, TierActivo},
		{100, TierBronze},
		{299, TierBronze},
		{300, TierSilver},
		{499, TierSilver},
		{500, TierGold},
		{10000, TierGold},
	}

	for _, tt := range tests {
		if got := TierForBalance(tt.balance); got != tt.want {
			t.Errorf("TierForBalance(%d) = %s, want %s", tt.balance, got, tt.want)
		}
	}
}

func TestActivity_RefreshStatus(t *testing.T) {
	tests := []struct {
		name       string
		current    int
		max        int
		wantCount  int
		wantStatus ActivityStatus
	}{
		{"empty", 0, 20, 0, ActivityAvailable},
		{"partial", 7, 20, 7, ActivityAvailable},
		{"one below capacity", 19, 20, 19, ActivityAvailable},
		{"at capacity", 20, 20, 20, ActivityFull},
		{"over capacity clamps", 25, 20, 20, ActivityFull},
		{"negative clamps", -3, 20, 0, ActivityAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Activity{MaxParticipants: tt.max, CurrentParticipants: tt.current}
			a.RefreshStatus()
			if a.CurrentParticipants != tt.wantCount {
				t.Errorf("count = %d, want %d", a.CurrentParticipants, tt.wantCount)
			}
			if a.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", a.Status, tt.wantStatus)
			}
			if a.CurrentParticipants > a.MaxParticipants {
				t.Error("invariant violated: current > max")
			}
		})
	}
}
